package flow

import (
	"sync"
	"time"
)

// Handle is an opaque reference to a tracked flow, returned by Observe so
// callers (the anomaly detector) can check and update rate-limiting state
// without re-looking the flow up by key.
type Handle struct {
	stats *Stats
}

// Stats returns the underlying flow state. Callers must not retain it past
// the current packet's processing, since the table may mutate or evict it
// concurrently with the next Observe call (the table itself is not
// goroutine-safe beyond the RWMutex guarding the map; field-level updates
// are expected to happen from the single capture-loop goroutine that owns
// the table, per spec's concurrency model).
func (h Handle) Stats() *Stats { return h.stats }

// Table owns the set of currently active flows, keyed by their canonical
// 5-tuple. It is intended to be owned by exactly one capture loop; no other
// goroutine should mutate it, though reads (e.g. for a status endpoint) can
// be done safely through the RWMutex.
type Table struct {
	mu    sync.RWMutex
	flows map[Key]*Stats
}

// NewTable creates an empty flow table.
func NewTable() *Table {
	return &Table{flows: make(map[Key]*Stats)}
}

// Len returns the number of currently tracked flows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.flows)
}

// Observe folds one decoded packet into the flow table, creating the flow
// on first sight, and returns the canonical key, the current feature
// vector, and a handle to the flow for anomaly-detector rate limiting.
func (t *Table) Observe(p *Packet, now time.Time) (Key, Vector, Handle) {
	key := CanonicalKey(p)

	t.mu.Lock()
	stats, exists := t.flows[key]
	if !exists {
		stats = &Stats{
			FirstSrcIP:   p.SrcIP,
			FirstSrcPort: p.SrcPort,
			FirstDstIP:   p.DstIP,
			FirstDstPort: p.DstPort,
			Protocol:     p.Protocol,
			StartTime:    p.Timestamp,
		}
		t.flows[key] = stats
	}
	// LastTime is read by Sweep, so it is updated under the same lock.
	if p.Timestamp.After(stats.LastTime) || stats.LastTime.IsZero() {
		stats.LastTime = p.Timestamp
	}
	t.mu.Unlock()

	if isForward(stats, p) {
		stats.Forward.observe(p.Length, p.Timestamp)
	} else {
		stats.Backward.observe(p.Length, p.Timestamp)
	}

	return key, Extract(stats), Handle{stats: stats}
}

// isForward reports whether packet p travels in the flow's first-observed
// direction: forward iff (src,sport) == (first_src,first_sport) and
// (dst,dport) == (first_dst,first_dport).
func isForward(s *Stats, p *Packet) bool {
	return p.SrcIP.Equal(s.FirstSrcIP) && p.SrcPort == s.FirstSrcPort &&
		p.DstIP.Equal(s.FirstDstIP) && p.DstPort == s.FirstDstPort
}

// Sweep deletes flows that have been idle longer than Timeout relative to
// now. It should be called periodically by the owning capture loop.
func (t *Table) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, s := range t.flows {
		if now.Sub(s.LastTime) > Timeout {
			delete(t.flows, k)
			removed++
		}
	}
	return removed
}

// Snapshot returns a shallow copy of the current flow map for read-only
// inspection (e.g. a status endpoint). Mutating the returned Stats values
// is not safe.
func (t *Table) Snapshot() map[Key]*Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[Key]*Stats, len(t.flows))
	for k, v := range t.flows {
		out[k] = v
	}
	return out
}
