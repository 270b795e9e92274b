package fakedata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/swarm_analytics_go/internal/experiment"
	"github.com/user/swarm_analytics_go/internal/parser"
)

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestGenerateWritesTree(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	res, err := Generate(root, DefaultOptions())
	require.NoError(t, err)
	// (20 counts + 21 angles + 1 fixed) runs, two logs each, two strategies.
	assert.Equal(t, 168, res.Files)

	layout := experiment.DefaultLayout()
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(layout.EventDir(experiment.Centralized, experiment.AngleFixed))))
	require.NoError(t, err)
	assert.Len(t, entries, 20)

	entries, err = os.ReadDir(filepath.Join(root, filepath.FromSlash(layout.PositionDir(experiment.Decentralized, experiment.CountFixed))))
	require.NoError(t, err)
	assert.Len(t, entries, 21)
}

func TestGeneratedLinesParse(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	_, err := Generate(root, DefaultOptions())
	require.NoError(t, err)

	events, err := parser.ParseEvents(strings.NewReader(readFile(t, root, "makespan/decentralized/bothFixed/fixed.txt")))
	require.NoError(t, err)
	require.Len(t, events, 10)
	for i, e := range events {
		assert.Equal(t, "decentralizedWeighted", e.Label)
		assert.Equal(t, 10, e.DroneCount)
		assert.Equal(t, 40.0, e.Angle)
		assert.Equal(t, i, e.Sequence)
		tr, ok := e.Traversal()
		require.True(t, ok)
		assert.Positive(t, tr)
	}

	snap, err := parser.ParsePositions(strings.NewReader(readFile(t, root, "spatial/centralized/countFixed/angle35.txt")))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snap.Timestamps())
	for _, ts := range snap.Timestamps() {
		assert.Len(t, snap[ts], 10)
	}
}

func TestGenerateIsSeeded(t *testing.T) {
	t.Parallel()
	a, b, c := t.TempDir(), t.TempDir(), t.TempDir()

	_, err := Generate(a, DefaultOptions())
	require.NoError(t, err)
	_, err = Generate(b, DefaultOptions())
	require.NoError(t, err)
	other := DefaultOptions()
	other.Seed = 99
	_, err = Generate(c, other)
	require.NoError(t, err)

	const rel = "spatial/decentralized/angleFixed/count7.txt"
	assert.Equal(t, readFile(t, a, rel), readFile(t, b, rel))
	assert.NotEqual(t, readFile(t, a, rel), readFile(t, c, rel))
}

func TestGenerateRejectsBadOptions(t *testing.T) {
	t.Parallel()

	bad := DefaultOptions()
	bad.MinCount = 0
	_, err := Generate(t.TempDir(), bad)
	assert.Error(t, err)

	bad = DefaultOptions()
	bad.MaxAngle = 10
	_, err = Generate(t.TempDir(), bad)
	assert.Error(t, err)

	bad = DefaultOptions()
	bad.Timesteps = 0
	_, err = Generate(t.TempDir(), bad)
	assert.Error(t, err)
}
