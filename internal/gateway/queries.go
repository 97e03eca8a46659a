package gateway

import "sort"

// Stats is the §4.7.B summary: totals, per-engine counts, per-severity
// distribution.
type Stats struct {
	Total               int            `json:"total"`
	PerEngine           map[string]int `json:"per_engine"`
	SeverityDistribution map[int]int   `json:"severity_distribution"`
}

// ComputeStats summarizes alerts.
func ComputeStats(alerts []StoredAlert) Stats {
	s := Stats{
		Total:                len(alerts),
		PerEngine:            map[string]int{},
		SeverityDistribution: map[int]int{},
	}
	for _, a := range alerts {
		s.PerEngine[a.Engine]++
		s.SeverityDistribution[a.Severity]++
	}
	return s
}

// FilterByEngine returns the subset matching engine, or all alerts if
// engine is empty.
func FilterByEngine(alerts []StoredAlert, engine string) []StoredAlert {
	if engine == "" {
		return alerts
	}
	out := make([]StoredAlert, 0, len(alerts))
	for _, a := range alerts {
		if a.Engine == engine {
			out = append(out, a)
		}
	}
	return out
}

// Truncate returns at most the first limit entries; limit <= 0 means no
// truncation.
func Truncate(alerts []StoredAlert, limit int) []StoredAlert {
	if limit <= 0 || limit >= len(alerts) {
		return alerts
	}
	return alerts[:limit]
}

// AttackDetail is one row of the §4.7.C dashboard aggregation.
type AttackDetail struct {
	AttackType         string         `json:"attack_type"`
	Count              int            `json:"count"`
	SeverityHistogram  map[int]int    `json:"severity_histogram"`
	MeanConfidence     float64        `json:"mean_confidence"`
	DistinctSources    int            `json:"distinct_sources"`
	DistinctTargets    int            `json:"distinct_targets"`
	PerProtocol        map[string]int `json:"per_protocol"`
}

// ComputeAttackDetails aggregates alerts per attack type, sorted
// descending by count.
func ComputeAttackDetails(alerts []StoredAlert) []AttackDetail {
	type agg struct {
		count       int
		severities  map[int]int
		confSum     float64
		sources     map[string]struct{}
		targets     map[string]struct{}
		protocols   map[string]int
	}

	byType := map[string]*agg{}
	order := []string{}

	for _, a := range alerts {
		g, ok := byType[a.AttackType]
		if !ok {
			g = &agg{
				severities: map[int]int{},
				sources:    map[string]struct{}{},
				targets:    map[string]struct{}{},
				protocols:  map[string]int{},
			}
			byType[a.AttackType] = g
			order = append(order, a.AttackType)
		}
		g.count++
		g.severities[a.Severity]++
		g.confSum += a.Confidence
		g.sources[a.SrcIP] = struct{}{}
		g.targets[a.DstIP] = struct{}{}
		g.protocols[a.Protocol]++
	}

	details := make([]AttackDetail, 0, len(order))
	for _, t := range order {
		g := byType[t]
		mean := 0.0
		if g.count > 0 {
			mean = g.confSum / float64(g.count)
		}
		details = append(details, AttackDetail{
			AttackType:        t,
			Count:             g.count,
			SeverityHistogram: g.severities,
			MeanConfidence:    mean,
			DistinctSources:   len(g.sources),
			DistinctTargets:   len(g.targets),
			PerProtocol:       g.protocols,
		})
	}

	sort.Slice(details, func(i, j int) bool { return details[i].Count > details[j].Count })
	return details
}

// ByAttackType returns the full chronological list for one attack type,
// newest first. Callers pass an already most-recent-first list (e.g. from
// Store.Snapshot).
func ByAttackType(alerts []StoredAlert, attackType string) []StoredAlert {
	out := make([]StoredAlert, 0)
	for _, a := range alerts {
		if a.AttackType == attackType {
			out = append(out, a)
		}
	}
	return out
}
