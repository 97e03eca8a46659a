package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alert"
)

func sampleAlerts() []StoredAlert {
	return []StoredAlert{
		{Envelope: alert.Envelope{Engine: "rule", AttackType: "PortScan", Severity: 3, Confidence: 0.5, SrcIP: "1.1.1.1", DstIP: "2.2.2.2", Protocol: "tcp"}, Sequence: 1},
		{Envelope: alert.Envelope{Engine: "anomaly", AttackType: "PortScan", Severity: 4, Confidence: 0.9, SrcIP: "1.1.1.1", DstIP: "3.3.3.3", Protocol: "tcp"}, Sequence: 2},
		{Envelope: alert.Envelope{Engine: "anomaly", AttackType: "DDoS", Severity: 5, Confidence: 0.95, SrcIP: "4.4.4.4", DstIP: "2.2.2.2", Protocol: "udp"}, Sequence: 3},
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(sampleAlerts())
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.PerEngine["rule"])
	assert.Equal(t, 2, s.PerEngine["anomaly"])
	assert.Equal(t, 1, s.SeverityDistribution[3])
}

func TestFilterByEngine(t *testing.T) {
	out := FilterByEngine(sampleAlerts(), "anomaly")
	assert.Len(t, out, 2)
}

func TestTruncate(t *testing.T) {
	out := Truncate(sampleAlerts(), 1)
	assert.Len(t, out, 1)
	assert.Equal(t, Truncate(sampleAlerts(), 0), sampleAlerts())
}

func TestComputeAttackDetailsSortedByCountDesc(t *testing.T) {
	details := ComputeAttackDetails(sampleAlerts())
	assert.Equal(t, "PortScan", details[0].AttackType)
	assert.Equal(t, 2, details[0].Count)
	assert.Equal(t, 2, details[0].DistinctTargets)
	assert.InDelta(t, 0.7, details[0].MeanConfidence, 0.001)
}

func TestByAttackType(t *testing.T) {
	out := ByAttackType(sampleAlerts(), "DDoS")
	assert.Len(t, out, 1)
	assert.Equal(t, 3, out[0].Sequence)
}
