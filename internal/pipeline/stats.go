package pipeline

import (
	"slices"
	"sync"
	"time"
)

// docSample is one finished document.
type docSample struct {
	at    time.Time
	ms    int64
	pages int
}

// StatsSnapshot aggregates the documents finished within the stats window.
type StatsSnapshot struct {
	Count     int     `json:"count"`
	Pages     int     `json:"pages"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
	MsPerPage float64 `json:"ms_per_page"`
}

// ExtractStats keeps per-document extraction latency over a rolling window.
type ExtractStats struct {
	mu     sync.Mutex
	window time.Duration
	docs   []docSample
}

// NewExtractStats tracks documents finished within window (default one hour).
func NewExtractStats(window time.Duration) *ExtractStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ExtractStats{window: window}
}

// Record adds a document that took d to extract and had the given page count.
func (s *ExtractStats) Record(d time.Duration, pages int) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(now)
	s.docs = append(s.docs, docSample{at: now, ms: max(d.Milliseconds(), 0), pages: pages})
}

// Snapshot summarises the current window. An empty window yields zeros.
func (s *ExtractStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	s.expire(time.Now())
	docs := slices.Clone(s.docs)
	s.mu.Unlock()

	if len(docs) == 0 {
		return StatsSnapshot{}
	}

	ms := make([]int64, len(docs))
	var total int64
	snap := StatsSnapshot{Count: len(docs)}
	for i, d := range docs {
		ms[i] = d.ms
		total += d.ms
		snap.Pages += d.pages
	}
	slices.Sort(ms)

	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(total) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.P99Ms = percentile(ms, 99)
	if snap.Pages > 0 {
		snap.MsPerPage = float64(total) / float64(snap.Pages)
	}
	return snap
}

// expire drops samples older than the window. Samples are appended in time
// order, so the expired ones form a prefix.
func (s *ExtractStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.docs) && s.docs[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.docs = slices.Delete(s.docs, 0, i)
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}
