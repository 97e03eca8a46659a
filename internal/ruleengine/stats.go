package ruleengine

import "sync"

// Stats holds counters kept by the live engine. Monotonic; reset only at
// process start.
type Stats struct {
	mu               sync.Mutex
	packetsObserved  uint64
	packetsMatched   uint64
	hitsPerRuleSID   map[int]uint64
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{hitsPerRuleSID: map[int]uint64{}}
}

func (s *Stats) recordPacket() {
	s.mu.Lock()
	s.packetsObserved++
	s.mu.Unlock()
}

func (s *Stats) recordHits(hits []Hit) {
	if len(hits) == 0 {
		return
	}
	s.mu.Lock()
	s.packetsMatched++
	for _, h := range hits {
		s.hitsPerRuleSID[h.SID]++
	}
	s.mu.Unlock()
}

// Snapshot is a read-only copy of the engine's statistics.
type Snapshot struct {
	PacketsObserved uint64
	PacketsMatched  uint64
	HitsPerRuleSID  map[int]uint64
}

// Snapshot returns a copy of the current statistics.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	hits := make(map[int]uint64, len(s.hitsPerRuleSID))
	for k, v := range s.hitsPerRuleSID {
		hits[k] = v
	}
	return Snapshot{
		PacketsObserved: s.packetsObserved,
		PacketsMatched:  s.packetsMatched,
		HitsPerRuleSID:  hits,
	}
}
