package flow

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkPacket(src string, sport uint16, dst string, dport uint16, proto uint8, length int, ts time.Time) *Packet {
	return &Packet{
		SrcIP:     net.ParseIP(src),
		SrcPort:   sport,
		DstIP:     net.ParseIP(dst),
		DstPort:   dport,
		Protocol:  proto,
		Length:    length,
		Timestamp: ts,
	}
}

func TestCanonicalKeySymmetric(t *testing.T) {
	now := time.Now()
	p1 := mkPacket("192.168.1.10", 12345, "192.168.1.100", 80, ProtoTCP, 100, now)
	p2 := mkPacket("192.168.1.100", 80, "192.168.1.10", 12345, ProtoTCP, 100, now)

	assert.Equal(t, CanonicalKey(p1), CanonicalKey(p2))
}

func TestObserveCountsBothDirections(t *testing.T) {
	tbl := NewTable()
	now := time.Now()

	tbl.Observe(mkPacket("10.0.0.1", 1000, "10.0.0.2", 80, ProtoTCP, 100, now), now)
	tbl.Observe(mkPacket("10.0.0.2", 80, "10.0.0.1", 1000, ProtoTCP, 200, now.Add(time.Millisecond)), now.Add(time.Millisecond))
	_, vec, _ := tbl.Observe(mkPacket("10.0.0.1", 1000, "10.0.0.2", 80, ProtoTCP, 50, now.Add(2*time.Millisecond)), now.Add(2*time.Millisecond))

	require.Equal(t, float64(2), vec.FwdPackets())
	require.Equal(t, float64(1), vec.BwdPackets())
	assert.Equal(t, float64(150), vec[idxFwdBytes])
	assert.Equal(t, float64(200), vec[idxBwdBytes])
}

func TestExtractVectorNonNegativeFinite(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	_, vec, _ := tbl.Observe(mkPacket("1.2.3.4", 4444, "5.6.7.8", 443, ProtoTCP, 64, now), now)

	for i, f := range vec {
		assert.GreaterOrEqual(t, f, 0.0, "feature %d must be non-negative", i)
	}
	assert.GreaterOrEqual(t, vec[idxDurationMicros], 1.0)
}

func TestSweepRemovesTimedOutFlows(t *testing.T) {
	tbl := NewTable()
	start := time.Now()
	tbl.Observe(mkPacket("10.0.0.1", 1, "10.0.0.2", 2, ProtoUDP, 10, start), start)

	removed := tbl.Sweep(start.Add(Timeout))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, tbl.Len())
}

func TestSweepKeepsActiveFlows(t *testing.T) {
	tbl := NewTable()
	start := time.Now()
	tbl.Observe(mkPacket("10.0.0.1", 1, "10.0.0.2", 2, ProtoUDP, 10, start), start)

	removed := tbl.Sweep(start.Add(Timeout - time.Second))
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, tbl.Len())
}

func TestFirstPacketNoIAT(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	_, vec, _ := tbl.Observe(mkPacket("10.0.0.1", 1, "10.0.0.2", 2, ProtoTCP, 10, now), now)
	assert.Equal(t, 0.0, vec[idxFwdMeanIAT])
	assert.Equal(t, 0.0, vec[idxBwdMeanIAT])
}

func TestOneDirectionOnlyReportsZeroForOther(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	_, vec, _ := tbl.Observe(mkPacket("10.0.0.1", 1, "10.0.0.2", 2, ProtoTCP, 10, now), now)
	assert.Equal(t, 0.0, vec[idxBwdLenMean])
	assert.Equal(t, 0.0, vec[idxBwdLenMin])
	assert.Equal(t, 0.0, vec.BwdPackets())
}
