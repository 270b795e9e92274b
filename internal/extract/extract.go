// Package extract reduces one parsed log file to a list of samples. Scalar
// per-file statistics are derived from that list by a separate reducer.
package extract

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/user/swarm_analytics_go/internal/emd"
	"github.com/user/swarm_analytics_go/internal/parser"
)

// Source is the kind of log a metric is read from.
type Source int

const (
	EventLog Source = iota
	PositionLog
)

func (s Source) String() string {
	switch s {
	case EventLog:
		return "event"
	case PositionLog:
		return "position"
	default:
		return "unknown"
	}
}

// Metric is one of the statistics computed per file.
type Metric int

const (
	Makespan Metric = iota
	Traversal
	EMD
)

// Metrics lists every metric in presentation order.
var Metrics = []Metric{Makespan, Traversal, EMD}

func (m Metric) String() string {
	switch m {
	case Makespan:
		return "makespan"
	case Traversal:
		return "traversal"
	case EMD:
		return "emd"
	default:
		return "unknown"
	}
}

// Source returns the log kind the metric is computed from.
func (m Metric) Source() Source {
	if m == EMD {
		return PositionLog
	}
	return EventLog
}

// Title is the metric name used in chart titles.
func (m Metric) Title() string {
	switch m {
	case Makespan:
		return "Makespan"
	case Traversal:
		return "Average Traversal Time"
	case EMD:
		return "EMD"
	default:
		return ""
	}
}

// YLabel is the axis label for the metric's values.
func (m Metric) YLabel() string {
	switch m {
	case Makespan:
		return "Makespan (ms)"
	case Traversal:
		return "Average Traversal Time (ms)"
	case EMD:
		return "Wasserstein EMD"
	default:
		return ""
	}
}

// ExitTimes returns the exit time of every record.
func ExitTimes(records []parser.EventRecord) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ExitTime)
	}
	return out
}

// Traversals returns exit minus entry for every record with an entry time.
// Negative traversals are dropped.
func Traversals(records []parser.EventRecord) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		d, ok := r.Traversal()
		if !ok || d < 0 {
			continue
		}
		out = append(out, d)
	}
	return out
}

// EMDSeries returns the distance between every timestamp's points and ref,
// in ascending timestamp order. A nil ref selects the first non-empty
// timestamp. Timestamps with no computable distance are skipped.
func EMDSeries(snap parser.PositionSnapshot, ref []parser.Point) []float64 {
	if len(ref) == 0 {
		var ok bool
		if ref, ok = snap.Reference(); !ok {
			return nil
		}
	}
	var out []float64
	for _, t := range snap.Timestamps() {
		if d, ok := emd.Distance(snap[t], ref); ok {
			out = append(out, d)
		}
	}
	return out
}

// MakespanSamples returns the valid exit times in r.
func MakespanSamples(r io.Reader) ([]float64, error) {
	records, err := parser.ParseEvents(r)
	if err != nil {
		return nil, err
	}
	return ExitTimes(records), nil
}

// TraversalSamples returns the non-negative traversal times in r.
func TraversalSamples(r io.Reader) ([]float64, error) {
	records, err := parser.ParseEvents(r)
	if err != nil {
		return nil, err
	}
	return Traversals(records), nil
}

// EMDSamples returns the per-timestamp distance series of the spatial log in r.
func EMDSamples(r io.Reader, ref []parser.Point) ([]float64, error) {
	snap, err := parser.ParsePositions(r)
	if err != nil {
		return nil, err
	}
	return EMDSeries(snap, ref), nil
}

// Range returns max minus min. ok is false for an empty list.
func Range(samples []float64) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	return floats.Max(samples) - floats.Min(samples), true
}

// Mean returns the arithmetic mean. ok is false for an empty list.
func Mean(samples []float64) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	return stat.Mean(samples, nil), true
}

// Extractor pairs a metric's sample extraction with its per-file reducer.
type Extractor struct {
	Metric  Metric
	Samples func(r io.Reader) ([]float64, error)
	Reduce  func(samples []float64) (float64, bool)
}

// Value extracts the samples from r and reduces them to one scalar.
// ok is false when the file yields no defined value.
func (e Extractor) Value(r io.Reader) (float64, bool, error) {
	samples, err := e.Samples(r)
	if err != nil {
		return 0, false, err
	}
	v, ok := e.Reduce(samples)
	return v, ok, nil
}

// Key reads the axis value of the first valid record of r, using the log
// shape the metric is computed from.
func (e Extractor) Key(r io.Reader, axis parser.Axis) (float64, bool, error) {
	if e.Metric.Source() == PositionLog {
		return parser.ReadPositionKey(r, axis)
	}
	return parser.ReadEventKey(r, axis)
}

// ForMetric returns the extractor for m. EMD uses the file's own first
// non-empty timestamp as reference.
func ForMetric(m Metric) (Extractor, error) {
	switch m {
	case Makespan:
		return Extractor{Metric: m, Samples: MakespanSamples, Reduce: Range}, nil
	case Traversal:
		return Extractor{Metric: m, Samples: TraversalSamples, Reduce: Mean}, nil
	case EMD:
		return Extractor{
			Metric:  m,
			Samples: func(r io.Reader) ([]float64, error) { return EMDSamples(r, nil) },
			Reduce:  Mean,
		}, nil
	default:
		return Extractor{}, fmt.Errorf("unknown metric: %d", m)
	}
}

// WithReference returns an EMD extractor measuring every timestamp against ref.
func WithReference(ref []parser.Point) Extractor {
	return Extractor{
		Metric:  EMD,
		Samples: func(r io.Reader) ([]float64, error) { return EMDSamples(r, ref) },
		Reduce:  Mean,
	}
}
