// Package experiment names the fixed dimensions of the swarm experiment:
// navigation strategies, folder types, and where their logs live.
package experiment

import (
	"fmt"
	"path"
	"strings"
)

// Strategy is a swarm navigation strategy under comparison.
type Strategy int

const (
	Centralized Strategy = iota
	Decentralized
)

// Strategies lists every strategy in presentation order.
var Strategies = []Strategy{Centralized, Decentralized}

func (s Strategy) String() string {
	switch s {
	case Centralized:
		return "centralized"
	case Decentralized:
		return "decentralized"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Title returns the capitalised strategy name used in chart labels.
func (s Strategy) Title() string {
	name := s.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseStrategy maps a directory name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// FolderType says which independent variable is held fixed in a folder.
type FolderType int

const (
	BothFixed FolderType = iota
	AngleFixed
	CountFixed
)

// FolderTypes lists every folder type.
var FolderTypes = []FolderType{BothFixed, AngleFixed, CountFixed}

func (f FolderType) String() string {
	switch f {
	case BothFixed:
		return "bothFixed"
	case AngleFixed:
		return "angleFixed"
	case CountFixed:
		return "countFixed"
	default:
		return fmt.Sprintf("folderType(%d)", int(f))
	}
}

// ParseFolderType maps a directory name to a FolderType.
func ParseFolderType(name string) (FolderType, error) {
	for _, f := range FolderTypes {
		if strings.EqualFold(name, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown folder type %q", name)
}

// Layout locates log folders beneath a root:
// {metricDir}/{strategy}/{folderType}/*{Ext}. Paths are slash-separated
// so they can be used with an fs.FS rooted at the experiment root.
type Layout struct {
	MakespanDir string
	SpatialDir  string
	Ext         string
}

// DefaultLayout matches the directories written by the simulation runner.
func DefaultLayout() Layout {
	return Layout{
		MakespanDir: "makespan",
		SpatialDir:  "spatial",
		Ext:         ".txt",
	}
}

// EventDir is the folder holding makespan logs.
func (l Layout) EventDir(s Strategy, f FolderType) string {
	return path.Join(l.MakespanDir, s.String(), f.String())
}

// PositionDir is the folder holding spatial logs.
func (l Layout) PositionDir(s Strategy, f FolderType) string {
	return path.Join(l.SpatialDir, s.String(), f.String())
}
