package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimulatorNextProducesOnePacketPerProfile(t *testing.T) {
	sim := NewSimulator(1)
	pkts := sim.Next(time.Now())
	assert.Len(t, pkts, 4)
	for _, p := range pkts {
		assert.NotNil(t, p.SrcIP)
		assert.NotNil(t, p.DstIP)
		assert.True(t, p.Protocol == 6 || p.Protocol == 17)
	}
}

func TestSimulatorIsDeterministicPerSeed(t *testing.T) {
	now := time.Now()
	a := NewSimulator(7).Next(now)
	b := NewSimulator(7).Next(now)
	assert.Equal(t, a, b)
}
