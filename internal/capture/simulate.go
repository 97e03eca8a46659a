package capture

import (
	"math/rand"
	"net"
	"time"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
)

// Simulator periodically crafts synthetic flow.Packet values and feeds them
// through the same processing path as a live capture, for demo and
// integration-test environments without a real interface.
type Simulator struct {
	rng      *rand.Rand
	profiles []simProfile
}

type simProfile struct {
	srcIP, dstIP     net.IP
	srcPort, dstPort uint16
	protocol         uint8
	size             int
}

// NewSimulator builds a simulator with a fixed cast of synthetic flows,
// mirroring common legitimate traffic shapes (HTTPS, DNS, HTTP) plus one
// port-scan-shaped flow to exercise the rule engine and anomaly detector.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng: rand.New(rand.NewSource(seed)),
		profiles: []simProfile{
			{net.ParseIP("192.168.1.100"), net.ParseIP("8.8.8.8"), 54321, 443, flow.ProtoTCP, 1200},
			{net.ParseIP("10.0.0.50"), net.ParseIP("1.1.1.1"), 12345, 80, flow.ProtoTCP, 800},
			{net.ParseIP("172.16.0.10"), net.ParseIP("208.67.222.222"), 65432, 53, flow.ProtoUDP, 512},
			{net.ParseIP("192.168.1.200"), net.ParseIP("203.0.113.5"), 58000, 22, flow.ProtoTCP, 64},
		},
	}
}

// Next produces the next batch of synthetic packets, one per configured
// profile, timestamped now.
func (s *Simulator) Next(now time.Time) []*flow.Packet {
	out := make([]*flow.Packet, 0, len(s.profiles))
	for _, p := range s.profiles {
		jitter := time.Duration(s.rng.Intn(5)) * time.Millisecond
		out = append(out, &flow.Packet{
			SrcIP:     p.srcIP,
			DstIP:     p.dstIP,
			SrcPort:   p.srcPort,
			DstPort:   p.dstPort,
			Protocol:  p.protocol,
			Length:    p.size,
			Payload:   nil,
			Timestamp: now.Add(jitter),
		})
	}
	return out
}
