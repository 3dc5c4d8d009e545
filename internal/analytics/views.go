package analytics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TimelineRow is one category's count in one frame.
type TimelineRow struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Count     int       `json:"count"`
}

// CategoryConfidence is the mean score of a category's retained series.
type CategoryConfidence struct {
	Category string  `json:"category"`
	Mean     float64 `json:"mean"`
	Samples  int     `json:"samples"`
}

// LatencyStats summarises the retained latency series, in seconds.
type LatencyStats struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean_seconds"`
	Min     float64 `json:"min_seconds"`
	Max     float64 `json:"max_seconds"`
}

// CategoryTotals returns every category by descending cumulative count.
func (a *Aggregator) CategoryTotals() []CategoryCount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ranked()
}

// Timeline flattens History into one row per (frame, category). Rows keep
// frame order; within a frame categories are sorted by name.
func (a *Aggregator) Timeline() []TimelineRow {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timeline()
}

func (a *Aggregator) timeline() []TimelineRow {
	rows := []TimelineRow{}
	for _, e := range a.history.values() {
		cats := make([]string, 0, len(e.Categories))
		for c := range e.Categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			rows = append(rows, TimelineRow{Timestamp: e.Timestamp, Category: c, Count: e.Categories[c]})
		}
	}
	return rows
}

// AverageConfidence returns the mean retained score per category, highest
// first. Equal means are ordered by category name.
func (a *Aggregator) AverageConfidence() []CategoryConfidence {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.averageConfidence()
}

func (a *Aggregator) averageConfidence() []CategoryConfidence {
	out := make([]CategoryConfidence, 0, len(a.confidence))
	for cat, s := range a.confidence {
		points := s.values()
		if len(points) == 0 {
			continue
		}
		scores := make([]float64, len(points))
		for i, p := range points {
			scores[i] = p.Score
		}
		out = append(out, CategoryConfidence{Category: cat, Mean: stat.Mean(scores, nil), Samples: len(scores)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// LatencySummary returns mean, min and max of the retained latencies. ok is
// false when no latency has been recorded.
func (a *Aggregator) LatencySummary() (stats LatencyStats, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latencySummary()
}

func (a *Aggregator) latencySummary() (LatencyStats, bool) {
	points := a.latencies.values()
	if len(points) == 0 {
		return LatencyStats{}, false
	}
	secs := make([]float64, len(points))
	for i, p := range points {
		secs[i] = p.Duration.Seconds()
	}
	return LatencyStats{
		Samples: len(secs),
		Mean:    stat.Mean(secs, nil),
		Min:     floats.Min(secs),
		Max:     floats.Max(secs),
	}, true
}

// Snapshot is a consistent copy of the aggregator's state and views.
type Snapshot struct {
	MaxHistory        int                          `json:"max_history"`
	Frames            int                          `json:"frames"`
	ObjectCounts      map[string]int               `json:"object_counts"`
	CategoryTotals    []CategoryCount              `json:"category_totals"`
	History           []HistoryEntry               `json:"object_history"`
	ConfidenceHistory map[string][]ConfidencePoint `json:"confidence_history"`
	DetectionTimes    []LatencyPoint               `json:"detection_times"`
	Timeline          []TimelineRow                `json:"timeline"`
	AverageConfidence []CategoryConfidence         `json:"average_confidence"`
	Latency           *LatencyStats                `json:"latency,omitempty"`
}

// Snapshot captures everything under a single lock.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	counts := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		counts[k] = v
	}
	s := Snapshot{
		MaxHistory:        a.maxHistory,
		Frames:            a.frames,
		ObjectCounts:      counts,
		CategoryTotals:    a.ranked(),
		History:           a.historyCopy(),
		ConfidenceHistory: a.confidenceCopy(),
		DetectionTimes:    a.latencies.values(),
		Timeline:          a.timeline(),
		AverageConfidence: a.averageConfidence(),
	}
	if stats, ok := a.latencySummary(); ok {
		s.Latency = &stats
	}
	return s
}
