// Package flow tracks bidirectional network flows and derives behavioral
// feature vectors from them.
package flow

import (
	"fmt"
	"net"
	"time"
)

// Protocol identifiers, matching IANA assigned numbers used on the wire.
const (
	ProtoTCP = 6
	ProtoUDP = 17
)

// Timeout after which an idle flow is evicted from the table.
const Timeout = 60 * time.Second

// Packet is the normalized representation of one decoded IP packet, as
// produced by internal/capture and consumed by the flow tracker, rule
// engine, and anomaly detector.
type Packet struct {
	SrcIP     net.IP
	DstIP     net.IP
	SrcPort   uint16
	DstPort   uint16
	Protocol  uint8
	Length    int
	Payload   []byte
	Timestamp time.Time
}

// Key is the canonicalized 5-tuple identifying a bidirectional flow.
// Canonicalization places the endpoint with the lexicographically smaller
// (ip, port) pair first, so both directions of a conversation hash to the
// same key.
type Key struct {
	IPLow    string
	IPHigh   string
	PortLow  uint16
	PortHigh uint16
	Protocol uint8
}

// CanonicalKey derives the canonical flow key for a packet.
func CanonicalKey(p *Packet) Key {
	srcIP, dstIP := p.SrcIP.String(), p.DstIP.String()

	if endpointLess(srcIP, p.SrcPort, dstIP, p.DstPort) {
		return Key{IPLow: srcIP, IPHigh: dstIP, PortLow: p.SrcPort, PortHigh: p.DstPort, Protocol: p.Protocol}
	}
	return Key{IPLow: dstIP, IPHigh: srcIP, PortLow: p.DstPort, PortHigh: p.SrcPort, Protocol: p.Protocol}
}

// endpointLess reports whether (ipA, portA) sorts before (ipB, portB).
func endpointLess(ipA string, portA uint16, ipB string, portB uint16) bool {
	if ipA != ipB {
		return ipA < ipB
	}
	return portA <= portB
}

// String renders the key as a stable string, suitable for use as a map key
// or log field.
func (k Key) String() string {
	return fmt.Sprintf("%s:%d-%s:%d/%d", k.IPLow, k.PortLow, k.IPHigh, k.PortHigh, k.Protocol)
}

// directionStats accumulates per-direction counters for one side of a flow.
type directionStats struct {
	packets    uint64
	bytes      uint64
	minLen     uint32
	maxLen     uint32
	sumLen     uint64
	prevTime   time.Time
	sumIATSecs float64
	hasPacket  bool
}

func (d *directionStats) observe(length int, ts time.Time) {
	l := uint32(length)
	if !d.hasPacket {
		d.minLen = l
		d.maxLen = l
		d.hasPacket = true
	} else {
		if l < d.minLen {
			d.minLen = l
		}
		if l > d.maxLen {
			d.maxLen = l
		}
	}
	d.sumLen += uint64(l)
	d.bytes += uint64(length)
	d.packets++

	if !d.prevTime.IsZero() {
		d.sumIATSecs += ts.Sub(d.prevTime).Seconds()
	}
	d.prevTime = ts
}

func (d *directionStats) mean() float64 {
	if d.packets == 0 {
		return 0
	}
	return float64(d.sumLen) / float64(d.packets)
}

func (d *directionStats) meanIAT() float64 {
	if d.packets <= 1 {
		return 0
	}
	// one fewer interval than packets
	return d.sumIATSecs / float64(d.packets-1)
}

// Stats holds the mutable state tracked for one flow. It is owned
// exclusively by the Table that created it; nothing outside the flow
// tracker mutates it.
type Stats struct {
	// First-observed endpoints, kept for display/reporting only — never
	// used for keying.
	FirstSrcIP   net.IP
	FirstSrcPort uint16
	FirstDstIP   net.IP
	FirstDstPort uint16
	Protocol     uint8

	StartTime time.Time
	LastTime  time.Time

	Forward  directionStats
	Backward directionStats

	// LastDetectionPackets is the total packet count (fwd+bwd) observed the
	// last time the anomaly detector ran on this flow, used to rate-limit
	// re-evaluation.
	LastDetectionPackets uint64
}

// TotalPackets returns the number of packets observed across both
// directions of the flow.
func (s *Stats) TotalPackets() uint64 {
	return s.Forward.packets + s.Backward.packets
}

// TotalBytes returns the number of bytes observed across both directions.
func (s *Stats) TotalBytes() uint64 {
	return s.Forward.bytes + s.Backward.bytes
}

// Duration returns the flow's observed lifetime, clamped to at least one
// microsecond so downstream division is always safe.
func (s *Stats) Duration() time.Duration {
	d := s.LastTime.Sub(s.StartTime)
	if d < time.Microsecond {
		return time.Microsecond
	}
	return d
}
