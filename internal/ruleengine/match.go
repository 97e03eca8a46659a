package ruleengine

import (
	"encoding/hex"
	"net"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/l7sig"
)

// Hit records one rule match against one packet.
type Hit struct {
	SID       int
	Msg       string
	Severity  int
	Tags      []string
	Protocol  string
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
	PayloadHexPreview string
}

const payloadPreviewBytes = 512
const payloadPreviewHexChars = 200

// protoName renders a flow protocol byte as the lowercase name rules use.
func protoName(p uint8) string {
	switch p {
	case flow.ProtoTCP:
		return "tcp"
	case flow.ProtoUDP:
		return "udp"
	default:
		return "ip"
	}
}

// Match evaluates every rule against one decoded packet in rule-declaration
// order and returns every rule that hits.
func Match(rules []Rule, p *flow.Packet) []Hit {
	var hits []Hit

	proto := protoName(p.Protocol)
	srcIP, dstIP := p.SrcIP.String(), p.DstIP.String()

	for _, r := range rules {
		if !protocolMatches(r.Protocol, proto) {
			continue
		}
		if !ipMatches(r.SrcIP, srcIP) {
			continue
		}
		if !ipMatches(r.DstIP, dstIP) {
			continue
		}
		if !portMatches(r.SrcPort, p.SrcPort) {
			continue
		}
		if !portMatches(r.DstPort, p.DstPort) {
			continue
		}
		if r.Content != nil && !r.Content.Match(p.Payload) {
			continue
		}

		hits = append(hits, Hit{
			SID:               r.SID,
			Msg:               r.Msg,
			Severity:          r.Severity,
			Tags:              withL7Tags(r.Tags, p.Payload),
			Protocol:          proto,
			SrcIP:             srcIP,
			DstIP:             dstIP,
			SrcPort:           p.SrcPort,
			DstPort:           p.DstPort,
			PayloadHexPreview: payloadPreview(p.Payload),
		})
	}

	return hits
}

// withL7Tags appends any application-layer signal l7sig finds in payload to
// a rule's declared tags, so e.g. a generic "suspicious-http" rule hit also
// carries "bot-user-agent" when the request's User-Agent warrants it.
func withL7Tags(ruleTags []string, payload []byte) []string {
	sig := l7sig.Inspect(payload)
	if len(sig.Tags) == 0 {
		return ruleTags
	}
	out := make([]string, 0, len(ruleTags)+len(sig.Tags))
	out = append(out, ruleTags...)
	out = append(out, sig.Tags...)
	return out
}

func payloadPreview(payload []byte) string {
	n := len(payload)
	if n > payloadPreviewBytes {
		n = payloadPreviewBytes
	}
	s := hex.EncodeToString(payload[:n])
	if len(s) > payloadPreviewHexChars {
		s = s[:payloadPreviewHexChars]
	}
	return s
}

// protocolMatches implements the "ip" alias: a rule with protocol "ip"
// additionally matches tcp and udp traffic, which is required for
// CIDR-only rules to apply to transport traffic.
func protocolMatches(ruleProto, pktProto string) bool {
	if ruleProto == "any" || ruleProto == pktProto {
		return true
	}
	if ruleProto == "ip" && (pktProto == "tcp" || pktProto == "udp") {
		return true
	}
	return false
}

func ipMatches(pred ipPredicate, addr string) bool {
	switch pred.kind {
	case predAny:
		return true
	case predExact:
		return pred.value == addr
	case predCIDR:
		_, network, err := net.ParseCIDR(pred.value)
		if err != nil {
			// Malformed CIDR: treat as non-match for this packet, don't
			// disable the rule across subsequent packets.
			return false
		}
		ip := net.ParseIP(addr)
		if ip == nil {
			return false
		}
		return network.Contains(ip)
	default:
		return false
	}
}

func portMatches(pred portPredicate, port uint16) bool {
	p := int(port)
	switch pred.kind {
	case predAny:
		return true
	case predExact:
		return pred.exact == p
	case predRange:
		if pred.lo > pred.hi {
			// src_port="a-b" where a>b matches nothing.
			return false
		}
		return p >= pred.lo && p <= pred.hi
	default:
		return false
	}
}
