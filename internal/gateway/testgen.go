package gateway

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alert"
)

// TestGenerator produces synthetic alert envelopes for exercising the
// gateway's ingestion and query surface without a live detector attached.
// Test-only: never wired into the production ingestion path.
type TestGenerator struct {
	rng *rand.Rand
}

var (
	knownAttackTypes   = []string{"DDoS", "SYN Flood", "UDP Flood", "PortScan", "ICMP Flood"}
	unknownAttackTypes = []string{"UnknownAttack", "Suspicious Traffic", "Anomalous Pattern"}
	sourceIPs          = []string{"192.168.31.41", "192.168.1.100", "10.0.0.50", "172.16.0.20"}
	destIPs            = []string{"192.168.109.151", "192.168.1.1", "10.0.0.1", "172.16.0.1"}
	knownPorts         = []int{80, 443, 22, 21, 25, 53, 3306, 3389}
	unknownPorts       = []int{45000, 45001, 45018, 56000, 57000}
	protocols          = []string{"tcp", "udp", "icmp"}
)

// NewTestGenerator builds a generator seeded for reproducible test runs.
func NewTestGenerator(seed int64) *TestGenerator {
	return &TestGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces one alert envelope. When isKnown is true the attack
// type, ports, and message resemble a known-attack detection; otherwise
// they resemble an out-of-distribution promotion.
func (g *TestGenerator) Generate(isKnown bool) alert.Envelope {
	attackType := g.pick(knownAttackTypes)
	srcPort := g.pickInt([]int{50000, 50001, 50010})
	dstPort := g.pickInt(knownPorts)
	message := fmt.Sprintf("known attack: %s", attackType)
	var realScore *float64

	if !isKnown {
		attackType = g.pick(unknownAttackTypes)
		srcPort = g.pickInt([]int{56000, 57000})
		dstPort = g.pickInt(unknownPorts)
		rs := -5000 + g.rng.Float64()*-5000
		realScore = &rs
		message = fmt.Sprintf("unknown attack (OOD, real_score=%.2f)", rs)
	}

	srcIP := g.pick(sourceIPs)
	dstIP := g.pick(destIPs)

	return alert.Envelope{
		Engine:     alert.EngineAnomaly,
		Timestamp:  alert.FormatTimestamp(time.Now()),
		AttackType: attackType,
		Severity:   g.pickInt([]int{3, 4, 5}),
		Confidence: 0.75 + g.rng.Float64()*0.23,
		Message:    message,
		Session:    alert.NewSession(srcIP, srcPort, dstIP, dstPort),
		SrcIP:      srcIP,
		DstIP:      dstIP,
		SrcPort:    srcPort,
		DstPort:    dstPort,
		Protocol:   g.pick(protocols),
		RealScore:  realScore,
	}
}

func (g *TestGenerator) pick(options []string) string {
	return options[g.rng.Intn(len(options))]
}

func (g *TestGenerator) pickInt(options []int) int {
	return options[g.rng.Intn(len(options))]
}
