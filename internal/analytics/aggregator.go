// Package analytics keeps rolling statistics over a stream of detection
// results: cumulative per-category counts, a bounded per-frame history, a
// bounded per-category confidence series and a bounded latency series.
//
// Every bounded collection keeps only the newest MaxHistory entries. Older
// entries are overwritten as new ones arrive.
package analytics

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tkzzzzzz6/dino-x/internal/detection"
)

const (
	// DefaultMaxHistory is used when NewAggregator is given a non-positive size.
	DefaultMaxHistory = 100

	// MaxHistoryLimit is the largest window the configuration accepts. Rings
	// are allocated at full size up front.
	MaxHistoryLimit = 1 << 20
)

// ErrInvalidCount is returned by TopObjects for a negative n.
var ErrInvalidCount = errors.New("count must not be negative")

// CategoryCount pairs a category with a count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// HistoryEntry describes one ingested frame.
type HistoryEntry struct {
	Timestamp    time.Time      `json:"timestamp"`
	TotalObjects int            `json:"total_objects"`
	Categories   map[string]int `json:"categories"`
}

// ConfidencePoint is one score observed for a category.
type ConfidencePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}

// LatencyPoint is the processing time reported for one frame.
type LatencyPoint struct {
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"-"`
}

// MarshalJSON writes the duration in seconds.
func (p LatencyPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp time.Time `json:"timestamp"`
		Seconds   float64   `json:"seconds"`
	}{p.Timestamp, p.Duration.Seconds()})
}

// Aggregator accumulates analytics for one session. It is safe for
// concurrent use.
type Aggregator struct {
	mu         sync.Mutex
	maxHistory int
	now        func() time.Time

	counts     map[string]int
	firstSeen  []string // categories in order of first appearance
	frames     int
	history    *series[HistoryEntry]
	confidence map[string]*series[ConfidencePoint]
	latencies  *series[LatencyPoint]
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the time source used to stamp ingested frames.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator returns an empty aggregator that keeps maxHistory entries in
// each bounded collection.
func NewAggregator(maxHistory int, opts ...Option) *Aggregator {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	a := &Aggregator{maxHistory: maxHistory, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	a.reset()
	return a
}

func (a *Aggregator) reset() {
	a.counts = map[string]int{}
	a.firstSeen = nil
	a.frames = 0
	a.history = newSeries[HistoryEntry](a.maxHistory)
	a.confidence = map[string]*series[ConfidencePoint]{}
	a.latencies = newSeries[LatencyPoint](a.maxHistory)
}

// Reset discards everything collected so far.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

// MaxHistory returns the bound applied to each rolling collection.
func (a *Aggregator) MaxHistory() int {
	return a.maxHistory
}

// Ingest records a result without a latency sample. A nil result or one with
// no objects is ignored.
func (a *Aggregator) Ingest(r *detection.Result) {
	a.ingest(r, 0, false)
}

// IngestWithLatency records a result together with how long the provider
// took to produce it.
func (a *Aggregator) IngestWithLatency(r *detection.Result, d time.Duration) {
	a.ingest(r, d, true)
}

func (a *Aggregator) ingest(r *detection.Result, d time.Duration, hasLatency bool) {
	if r == nil || len(r.Objects) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	ts := a.now()

	frame := make(map[string]int)
	for i := range r.Objects {
		cat := r.Objects[i].CategoryOr(detection.SummaryCategory)
		if _, ok := a.counts[cat]; !ok {
			a.firstSeen = append(a.firstSeen, cat)
		}
		a.counts[cat]++
		frame[cat]++
	}
	a.frames++

	a.history.add(HistoryEntry{
		Timestamp:    ts,
		TotalObjects: len(r.Objects),
		Categories:   frame,
	})

	for i := range r.Objects {
		o := &r.Objects[i]
		cat := o.CategoryOr(detection.SummaryCategory)
		s, ok := a.confidence[cat]
		if !ok {
			s = newSeries[ConfidencePoint](a.maxHistory)
			a.confidence[cat] = s
		}
		s.add(ConfidencePoint{Timestamp: ts, Score: o.ScoreOr(detection.SummaryScore)})
	}

	if hasLatency {
		a.latencies.add(LatencyPoint{Timestamp: ts, Duration: d})
	}
}

// TopObjects returns up to n categories with the highest cumulative counts.
// Equal counts keep the order in which the categories were first seen.
func (a *Aggregator) TopObjects(n int) ([]CategoryCount, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidCount, "top objects: n = %d", n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ranked := a.ranked()
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// ranked returns every category by descending count. Caller holds mu.
func (a *Aggregator) ranked() []CategoryCount {
	out := make([]CategoryCount, len(a.firstSeen))
	for i, cat := range a.firstSeen {
		out[i] = CategoryCount{Category: cat, Count: a.counts[cat]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// ObjectCounts returns a copy of the cumulative counts.
func (a *Aggregator) ObjectCounts() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

// Frames returns how many non-empty results have been ingested, including
// those no longer in History.
func (a *Aggregator) Frames() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

// History returns a copy of the per-frame history, oldest first.
func (a *Aggregator) History() []HistoryEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.historyCopy()
}

func (a *Aggregator) historyCopy() []HistoryEntry {
	out := a.history.values()
	for i, e := range out {
		cats := make(map[string]int, len(e.Categories))
		for k, v := range e.Categories {
			cats[k] = v
		}
		out[i].Categories = cats
	}
	return out
}

// ConfidenceHistory returns a copy of the per-category score series.
func (a *Aggregator) ConfidenceHistory() map[string][]ConfidencePoint {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.confidenceCopy()
}

func (a *Aggregator) confidenceCopy() map[string][]ConfidencePoint {
	out := make(map[string][]ConfidencePoint, len(a.confidence))
	for k, v := range a.confidence {
		out[k] = v.values()
	}
	return out
}

// DetectionTimes returns a copy of the latency series, oldest first.
func (a *Aggregator) DetectionTimes() []LatencyPoint {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latencies.values()
}
