// Package capture turns raw frames into the normalized packets the flow
// tracker, rule engine, and anomaly detector operate on.
package capture

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
)

// RejectReason names why a captured frame was not turned into a flow.Packet.
// The capture loop treats every reason as "skip silently": no log spam per
// packet, since these are expected on any live interface.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectNoIPLayer
	RejectUnroutedIPv6
	RejectUnsupportedTransport
)

func (r RejectReason) String() string {
	switch r {
	case RejectNoIPLayer:
		return "no ip layer"
	case RejectUnroutedIPv6:
		return "unrouted ipv6"
	case RejectUnsupportedTransport:
		return "unsupported transport"
	default:
		return "none"
	}
}

// Decode extracts a flow.Packet from a raw capture frame. ok is false when
// the frame should be dropped; reason explains why.
func Decode(raw gopacket.Packet, now time.Time) (pkt *flow.Packet, reason RejectReason, ok bool) {
	var srcIP, dstIP []byte
	var protocol uint8

	switch {
	case raw.Layer(layers.LayerTypeIPv4) != nil:
		ip4 := raw.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		srcIP, dstIP = ip4.SrcIP, ip4.DstIP
		protocol = uint8(ip4.Protocol)
	case raw.Layer(layers.LayerTypeIPv6) != nil:
		ip6 := raw.Layer(layers.LayerTypeIPv6).(*layers.IPv6)
		if !isRoutedIPv6(ip6) {
			return nil, RejectUnroutedIPv6, false
		}
		srcIP, dstIP = ip6.SrcIP, ip6.DstIP
		protocol = uint8(ip6.NextHeader)
	default:
		return nil, RejectNoIPLayer, false
	}

	if protocol != flow.ProtoTCP && protocol != flow.ProtoUDP {
		return nil, RejectUnsupportedTransport, false
	}

	var srcPort, dstPort uint16
	var payload []byte

	switch {
	case raw.Layer(layers.LayerTypeTCP) != nil:
		tcp := raw.Layer(layers.LayerTypeTCP).(*layers.TCP)
		srcPort, dstPort = uint16(tcp.SrcPort), uint16(tcp.DstPort)
		payload = tcp.Payload
	case raw.Layer(layers.LayerTypeUDP) != nil:
		udp := raw.Layer(layers.LayerTypeUDP).(*layers.UDP)
		srcPort, dstPort = uint16(udp.SrcPort), uint16(udp.DstPort)
		payload = udp.Payload
	default:
		return nil, RejectUnsupportedTransport, false
	}

	ts := now
	if meta := raw.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		ts = meta.Timestamp
	}

	pkt = &flow.Packet{
		SrcIP:     srcIP,
		DstIP:     dstIP,
		SrcPort:   srcPort,
		DstPort:   dstPort,
		Protocol:  protocol,
		Length:    len(raw.Data()),
		Payload:   payload,
		Timestamp: ts,
	}
	return pkt, RejectNone, true
}

// isRoutedIPv6 filters out link-local and multicast IPv6 traffic, handled
// separately from ordinary flow tracking.
func isRoutedIPv6(l *layers.IPv6) bool {
	return !l.SrcIP.IsLinkLocalUnicast() && !l.DstIP.IsLinkLocalUnicast() &&
		!l.SrcIP.IsMulticast() && !l.DstIP.IsMulticast()
}
