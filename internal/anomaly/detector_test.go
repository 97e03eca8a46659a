package anomaly

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
)

func observeN(table *flow.Table, src, dst net.IP, n int, start time.Time) flow.Key {
	var key flow.Key
	for i := 0; i < n; i++ {
		p := &flow.Packet{
			SrcIP: src, DstIP: dst,
			SrcPort: 1234, DstPort: 80,
			Protocol: flow.ProtoTCP, Length: 60,
			Timestamp: start.Add(time.Duration(i) * time.Millisecond),
		}
		key, _, _ = table.Observe(p, p.Timestamp)
	}
	return key
}

func TestShouldRunGating(t *testing.T) {
	table := flow.NewTable()
	src, dst := net.ParseIP("10.0.0.1"), net.ParseIP("93.184.216.34")
	now := time.Now()

	key := observeN(table, src, dst, 15, now)
	s := table.Snapshot()[key]
	assert.False(t, ShouldRun(s), "fewer than SEQ_LEN/2 packets observed")

	observeN(table, src, dst, 1, now.Add(20*time.Millisecond))
	s = table.Snapshot()[key]
	assert.True(t, ShouldRun(s))

	s.LastDetectionPackets = s.TotalPackets()
	assert.False(t, ShouldRun(s), "no packets accumulated since last detection")

	observeN(table, src, dst, 15, now.Add(40*time.Millisecond))
	s = table.Snapshot()[key]
	assert.False(t, ShouldRun(s), "only 15 packets since last detection")

	observeN(table, src, dst, 1, now.Add(60*time.Millisecond))
	s = table.Snapshot()[key]
	assert.True(t, ShouldRun(s))
}
