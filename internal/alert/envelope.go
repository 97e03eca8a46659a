// Package alert defines the wire envelope shared by the rule engine, the
// anomaly detector, and the gateway.
package alert

import (
	"strconv"
	"time"
)

// Engine names the detection engine that produced an alert.
const (
	EngineRule    = "rule"
	EngineAnomaly = "anomaly"
)

const timestampLayout = "2006-01-02 15:04:05"

// Envelope is the common alert shape produced by both engines and
// consumed by the gateway.
type Envelope struct {
	Engine          string   `json:"engine"`
	Timestamp       string   `json:"timestamp"`
	AttackType      string   `json:"attack_type"`
	Severity        int      `json:"severity"`
	Confidence      float64  `json:"confidence"`
	Message         string   `json:"message"`
	Session         string   `json:"session"`
	SrcIP           string   `json:"src_ip"`
	DstIP           string   `json:"dst_ip"`
	SrcPort         int      `json:"src_port"`
	DstPort         int      `json:"dst_port"`
	Protocol        string   `json:"protocol"`
	Tags            []string `json:"tags,omitempty"`
	PayloadPreview  string   `json:"payload_preview,omitempty"`
	RealScore       *float64 `json:"real_score,omitempty"`
}

// FormatTimestamp renders t in the envelope's canonical local-time layout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(timestampLayout)
}

// NewSession renders the canonical "src_ip:src_port -> dst_ip:dst_port"
// session string.
func NewSession(srcIP string, srcPort int, dstIP string, dstPort int) string {
	return srcIP + ":" + strconv.Itoa(srcPort) + " -> " + dstIP + ":" + strconv.Itoa(dstPort)
}
