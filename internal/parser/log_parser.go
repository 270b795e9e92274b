package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// maxLineBytes bounds one log line; longer lines are dropped.
const maxLineBytes = 1 << 20

// splitFields splits a raw line on the delimiter and trims every field.
func splitFields(line string) []string {
	fields := strings.Split(line, Delimiter)
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// parseFloatField parses a trimmed field, rejecting the null sentinel and
// non-finite values.
func parseFloatField(s string) (float64, bool) {
	if s == NullSentinel {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseIntField(s string) (int, bool) {
	if s == NullSentinel {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseHeader reads the label, drone count, angle and drone id columns.
func parseHeader(fields []string) (label string, count int, angle float64, droneID string, ok bool) {
	count, ok = parseIntField(fields[fieldDroneCount])
	if !ok {
		return "", 0, 0, "", false
	}
	angle, ok = parseFloatField(fields[fieldAngle])
	if !ok {
		return "", 0, 0, "", false
	}
	return fields[fieldLabel], count, angle, fields[fieldDroneID], true
}

// ParseEventLine parses one makespan log line. ok is false when the line
// has too few fields, a null exit time, or an unparseable numeric field.
func ParseEventLine(line string) (EventRecord, bool) {
	fields := splitFields(line)
	if len(fields) < MinEventFields {
		return EventRecord{}, false
	}
	label, count, angle, droneID, ok := parseHeader(fields)
	if !ok {
		return EventRecord{}, false
	}

	rec := EventRecord{
		Label:      label,
		DroneCount: count,
		Angle:      angle,
		DroneID:    droneID,
		Sequence:   -1,
	}

	entryIdx, exitIdx := fieldEventEntry, fieldEventExit
	if len(fields) > fieldEventExitLong {
		entryIdx, exitIdx = fieldEventEntryLong, fieldEventExitLong
		seq, ok := parseIntField(fields[fieldEventSequence])
		if !ok {
			return EventRecord{}, false
		}
		rec.Sequence = seq
	}

	exit, ok := parseFloatField(fields[exitIdx])
	if !ok {
		return EventRecord{}, false
	}
	rec.ExitTime = exit
	rec.EntryTime, rec.HasEntry = parseFloatField(fields[entryIdx])
	return rec, true
}

// ParsePositionLine parses one spatial log line. ok is false when the line
// has too few fields, a null coordinate, or an unparseable numeric field.
func ParsePositionLine(line string) (PositionRecord, bool) {
	fields := splitFields(line)
	if len(fields) < MinPositionFields {
		return PositionRecord{}, false
	}
	label, count, angle, droneID, ok := parseHeader(fields)
	if !ok {
		return PositionRecord{}, false
	}
	ts, ok := parseIntField(fields[fieldPosTimestamp])
	if !ok {
		return PositionRecord{}, false
	}
	x, ok := parseFloatField(fields[fieldPosX])
	if !ok {
		return PositionRecord{}, false
	}
	y, ok := parseFloatField(fields[fieldPosY])
	if !ok {
		return PositionRecord{}, false
	}
	return PositionRecord{
		Label:      label,
		DroneCount: count,
		Angle:      angle,
		DroneID:    droneID,
		Timestamp:  ts,
		X:          x,
		Y:          y,
	}, true
}

// scanLines calls fn for every line of r until fn returns false. Lines
// longer than maxLineBytes are dropped. Only read errors are returned.
func scanLines(r io.Reader, fn func(line string) bool) error {
	br := bufio.NewReader(r)
	var buf []byte
	tooLong := false
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read log: %w", err)
		}
		if !tooLong {
			if len(buf)+len(frag) > maxLineBytes {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, frag...)
			}
		}
		if isPrefix {
			continue
		}
		if !tooLong && !fn(string(buf)) {
			return nil
		}
		buf = buf[:0]
		tooLong = false
	}
}

// ParseEvents returns every valid event record in r, in file order.
// Malformed lines are dropped silently.
func ParseEvents(r io.Reader) ([]EventRecord, error) {
	var records []EventRecord
	err := scanLines(r, func(line string) bool {
		if rec, ok := ParseEventLine(line); ok {
			records = append(records, rec)
		}
		return true
	})
	return records, err
}

// ParsePositions groups every valid position record in r by timestamp.
func ParsePositions(r io.Reader) (PositionSnapshot, error) {
	snap := make(PositionSnapshot)
	err := scanLines(r, func(line string) bool {
		if rec, ok := ParsePositionLine(line); ok {
			snap[rec.Timestamp] = append(snap[rec.Timestamp], rec.Point())
		}
		return true
	})
	return snap, err
}

// ReadEventKey returns the axis value of the first valid event record in r.
// ok is false when the file has none.
func ReadEventKey(r io.Reader, axis Axis) (float64, bool, error) {
	return readKey(r, axis, func(line string) (int, float64, bool) {
		rec, ok := ParseEventLine(line)
		return rec.DroneCount, rec.Angle, ok
	})
}

// ReadPositionKey returns the axis value of the first valid position record
// in r. ok is false when the file has none.
func ReadPositionKey(r io.Reader, axis Axis) (float64, bool, error) {
	return readKey(r, axis, func(line string) (int, float64, bool) {
		rec, ok := ParsePositionLine(line)
		return rec.DroneCount, rec.Angle, ok
	})
}

func readKey(r io.Reader, axis Axis, parse func(line string) (count int, angle float64, ok bool)) (float64, bool, error) {
	if axis != AxisDroneCount && axis != AxisAngle {
		return 0, false, fmt.Errorf("unknown axis: %d", axis)
	}
	var key float64
	found := false
	err := scanLines(r, func(line string) bool {
		count, angle, ok := parse(line)
		if !ok {
			return true
		}
		key, found = angle, true
		if axis == AxisDroneCount {
			key = float64(count)
		}
		return false
	})
	if err != nil {
		return 0, false, err
	}
	return key, found, nil
}
