// Package l7sig does lightweight application-layer protocol identification
// over a packet's payload bytes, for tagging rule-engine and anomaly-engine
// alerts with signal a 5-tuple-only view can't see (e.g. a bot-flavored
// User-Agent riding inside an otherwise unremarkable HTTP request).
package l7sig

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Protocol names the application-layer protocol identified from a payload.
type Protocol string

const (
	Unknown Protocol = "unknown"
	HTTP11  Protocol = "HTTP/1.1"
	HTTP2   Protocol = "HTTP/2"
	TLS     Protocol = "TLS"
	QUIC    Protocol = "QUIC"
)

// Signals is the result of inspecting one payload.
type Signals struct {
	Protocol Protocol
	Method   string
	Path     string
	Tags     []string
}

var botKeywords = []string{
	"bot", "crawler", "spider", "scraper", "automation",
	"headless", "selenium", "phantom", "puppet",
}

// Inspect identifies the application-layer protocol of payload and derives
// a small set of tags useful as extra rule-hit evidence. An empty or
// unrecognized payload yields Unknown with no tags.
func Inspect(payload []byte) Signals {
	switch {
	case len(payload) >= 5 && payload[0] == 0x16:
		return inspectTLS(payload)
	case bytes.HasPrefix(payload, []byte("PRI * HTTP/2.0")):
		return Signals{Protocol: HTTP2}
	case hasHTTP11Prefix(payload):
		return inspectHTTP11(payload)
	case len(payload) >= 4 && (payload[0]&0xC0) == 0x40:
		return Signals{Protocol: QUIC}
	default:
		return Signals{Protocol: Unknown}
	}
}

func hasHTTP11Prefix(payload []byte) bool {
	return bytes.HasPrefix(payload, []byte("GET ")) ||
		bytes.HasPrefix(payload, []byte("POST ")) ||
		bytes.HasPrefix(payload, []byte("HTTP/1.1"))
}

func inspectTLS(payload []byte) Signals {
	s := Signals{Protocol: TLS}
	if len(payload) >= 3 {
		version := binary.BigEndian.Uint16(payload[1:3])
		if version < 0x0301 {
			s.Tags = append(s.Tags, "legacy-tls")
		}
	}
	return s
}

func inspectHTTP11(payload []byte) Signals {
	s := Signals{Protocol: HTTP11}

	lines := strings.Split(string(payload), "\r\n")
	if len(lines) == 0 {
		return s
	}

	fields := strings.Fields(lines[0])
	if len(fields) >= 2 && !strings.HasPrefix(lines[0], "HTTP/") {
		s.Method = fields[0]
		s.Path = fields[1]
	}

	var userAgent string
	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if strings.EqualFold(key, "User-Agent") {
			userAgent = strings.TrimSpace(line[idx+1:])
			break
		}
	}

	if userAgent != "" && hasBotKeyword(userAgent) {
		s.Tags = append(s.Tags, "bot-user-agent")
	}
	if s.Path != "" && strings.Contains(s.Path, "..") {
		s.Tags = append(s.Tags, "path-traversal-like")
	}

	return s
}

func hasBotKeyword(userAgent string) bool {
	lower := strings.ToLower(userAgent)
	for _, kw := range botKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
