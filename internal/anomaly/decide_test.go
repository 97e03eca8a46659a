package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
)

func vectorWithRate(packetsPerSec, bytesPerSec float64) flow.Vector {
	var v flow.Vector
	v[idxTestPacketsPerSec] = packetsPerSec
	v[idxTestBytesPerSec] = bytesPerSec
	v[idxTestFwdPackets] = 10
	return v
}

// Mirrors the private field order in internal/flow/features.go; kept in
// sync by the accessor-level tests in that package.
const (
	idxTestDstPort = iota
	idxTestDurationMicros
	idxTestFwdPackets
	idxTestBwdPackets
	idxTestFwdBytes
	idxTestBwdBytes
	idxTestFwdLenMax
	idxTestFwdLenMin
	idxTestFwdLenMean
	idxTestBwdLenMax
	idxTestBwdLenMin
	idxTestBwdLenMean
	idxTestBytesPerSec
	idxTestPacketsPerSec
	idxTestFwdMeanIAT
	idxTestBwdMeanIAT
)

func TestDecideStage1BenignCommonPort(t *testing.T) {
	in := decisionInput{
		raw:       rawOutput{predictedClass: "Benign", confidence: 0.9, realScore: 0.5},
		direction: ExternalToLocal,
		vector:    vectorWithRate(10, 1000),
		srcPort:   443,
		dstPort:   51000,
		protocol:  "tcp",
	}
	d := Decide(in, DefaultThresholds())
	assert.Equal(t, Benign, d.Kind)
	assert.Equal(t, 0, d.Severity)
}

func TestDecideStage1KnownAttackHighConfidence(t *testing.T) {
	in := decisionInput{
		raw:       rawOutput{predictedClass: "DDoS", confidence: 0.9, realScore: -0.2},
		direction: ExternalToLocal,
		vector:    vectorWithRate(10, 1000),
		srcPort:   12345,
		dstPort:   80,
		protocol:  "tcp",
	}
	d := Decide(in, DefaultThresholds())
	assert.Equal(t, KnownAttack, d.Kind)
	assert.Equal(t, "DDoS", d.Class)
	assert.Equal(t, 5, d.Severity) // confidence >= 0.8
}

func TestDecideStage2LocalToExternalLowRatePortScanBenign(t *testing.T) {
	in := decisionInput{
		raw:       rawOutput{predictedClass: "PortScan", confidence: 0.2, realScore: -0.2},
		direction: LocalToExternal,
		vector:    vectorWithRate(10, 1000),
		srcPort:   50001,
		dstPort:   80,
		protocol:  "tcp",
	}
	d := Decide(in, DefaultThresholds())
	assert.Equal(t, Benign, d.Kind)
}

func TestDecideStage3OODPromotion(t *testing.T) {
	in := decisionInput{
		raw:       rawOutput{predictedClass: "Benign", confidence: 0.9, realScore: -0.2},
		direction: ExternalToLocal,
		vector:    vectorWithRate(10, 1000),
		srcPort:   12345,
		dstPort:   9999,
		protocol:  "tcp",
	}
	d := Decide(in, DefaultThresholds())
	assert.Equal(t, UnknownAttack, d.Kind)
}

func TestDecideStage4RatePromotion(t *testing.T) {
	in := decisionInput{
		raw:       rawOutput{predictedClass: "Benign", confidence: 0.9, realScore: 0.1},
		direction: ExternalToLocal,
		vector:    vectorWithRate(500, 1000),
		srcPort:   12345,
		dstPort:   9999,
		protocol:  "tcp",
	}
	d := Decide(in, DefaultThresholds())
	assert.Equal(t, UnknownAttack, d.Kind)
}

func TestDecideStage5PortSignatureOverride(t *testing.T) {
	in := decisionInput{
		raw:       rawOutput{predictedClass: "Benign", confidence: 0.1, realScore: -0.2},
		direction: ExternalToLocal,
		vector:    vectorWithRate(10, 1000),
		srcPort:   60000,
		dstPort:   22,
		protocol:  "tcp",
	}
	d := Decide(in, DefaultThresholds())
	assert.Equal(t, KnownAttack, d.Kind)
	assert.Equal(t, "BruteForce", d.Class)
}

func TestDecideStage6LocalToExternalGuardDemotesToBenign(t *testing.T) {
	in := decisionInput{
		raw:       rawOutput{predictedClass: "Bot", confidence: 0.9, realScore: -0.2},
		direction: LocalToExternal,
		vector:    vectorWithRate(10, 1000),
		srcPort:   40000,
		dstPort:   443,
		protocol:  "tcp",
	}
	d := Decide(in, DefaultThresholds())
	assert.Equal(t, Benign, d.Kind)
}

func TestClassifyDirection(t *testing.T) {
	assert.Equal(t, LocalToExternal, ClassifyDirection("192.168.1.5", "8.8.8.8"))
	assert.Equal(t, ExternalToLocal, ClassifyDirection("8.8.8.8", "10.0.0.1"))
	assert.Equal(t, LocalToLocal, ClassifyDirection("10.0.0.1", "10.0.0.2"))
	assert.Equal(t, ExternalToExternal, ClassifyDirection("1.1.1.1", "8.8.8.8"))
}
