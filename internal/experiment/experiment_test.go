package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Decentralized")
	require.NoError(t, err)
	assert.Equal(t, Decentralized, s)
	assert.Equal(t, "Decentralized", s.Title())

	_, err = ParseStrategy("swarmish")
	assert.Error(t, err)
}

func TestParseFolderType(t *testing.T) {
	f, err := ParseFolderType("countFixed")
	require.NoError(t, err)
	assert.Equal(t, CountFixed, f)

	_, err = ParseFolderType("nothingFixed")
	assert.Error(t, err)
}

func TestLayoutDirs(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, "makespan/centralized/bothFixed", l.EventDir(Centralized, BothFixed))
	assert.Equal(t, "spatial/decentralized/angleFixed", l.PositionDir(Decentralized, AngleFixed))
}
