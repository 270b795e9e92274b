package parser

import "sort"

const (
	// Delimiter separates fields within one log line.
	Delimiter = ","
	// NullSentinel marks a field with no measurement.
	NullSentinel = "<null>"

	// MinEventFields is the field count below which an event line is dropped.
	MinEventFields = 6
	// MinPositionFields is the field count below which a position line is dropped.
	MinPositionFields = 7
)

// Column positions shared by both log shapes.
const (
	fieldLabel      = 0
	fieldDroneCount = 1
	fieldAngle      = 2
	fieldDroneID    = 3
)

// Event shape columns. Lines written by the simulation carry a sequence
// column before entry/exit; the short six-column form omits it.
const (
	fieldEventSequence  = 4
	fieldEventEntryLong = 5
	fieldEventExitLong  = 6
	fieldEventEntry     = 4
	fieldEventExit      = 5
)

// Position shape columns.
const (
	fieldPosTimestamp = 4
	fieldPosX         = 5
	fieldPosY         = 6
)

// EventRecord is one drone's entry/exit observation from a makespan log.
type EventRecord struct {
	Label      string
	DroneCount int
	Angle      float64
	DroneID    string
	Sequence   int // -1 when the line has no sequence column
	EntryTime  float64
	HasEntry   bool // false when the entry field was null or unparseable
	ExitTime   float64
}

// Traversal returns exit minus entry. ok is false when the entry time is
// missing.
func (r EventRecord) Traversal() (float64, bool) {
	if !r.HasEntry {
		return 0, false
	}
	return r.ExitTime - r.EntryTime, true
}

// Point is a planar drone position.
type Point struct {
	X, Y float64
}

// PositionRecord is one drone's position at one timestamp from a spatial log.
type PositionRecord struct {
	Label      string
	DroneCount int
	Angle      float64
	DroneID    string
	Timestamp  int
	X, Y       float64
}

// Point returns the record's position.
func (r PositionRecord) Point() Point {
	return Point{X: r.X, Y: r.Y}
}

// PositionSnapshot maps a timestamp to the points observed at it, in file
// order. It is built once per file and not mutated afterwards.
type PositionSnapshot map[int][]Point

// Timestamps returns the snapshot's timestamps in ascending order.
func (s PositionSnapshot) Timestamps() []int {
	ts := make([]int, 0, len(s))
	for t := range s {
		ts = append(ts, t)
	}
	sort.Ints(ts)
	return ts
}

// Reference returns the points of the earliest timestamp that has any.
func (s PositionSnapshot) Reference() ([]Point, bool) {
	for _, t := range s.Timestamps() {
		if pts := s[t]; len(pts) > 0 {
			return pts, true
		}
	}
	return nil, false
}

// Axis selects which header field a file is grouped by.
type Axis int

const (
	AxisDroneCount Axis = iota
	AxisAngle
)

func (a Axis) String() string {
	switch a {
	case AxisDroneCount:
		return "droneCount"
	case AxisAngle:
		return "angle"
	default:
		return "unknown"
	}
}

// Label returns the human-readable axis title.
func (a Axis) Label() string {
	switch a {
	case AxisDroneCount:
		return "Drone Count"
	case AxisAngle:
		return "Angle (Degrees)"
	default:
		return ""
	}
}
