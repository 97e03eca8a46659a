package anomaly

import (
	"math"
	"strings"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/netutil"
)

// Default tunables; both are overridable via config.
const (
	DefaultMinAttackConfidence = 0.5
	DefaultRealScoreThreshold  = -0.05
)

// Direction classifies a flow's endpoints against the private-ip predicate.
type Direction int

const (
	LocalToExternal Direction = iota
	ExternalToLocal
	LocalToLocal
	ExternalToExternal
)

// ClassifyDirection tests srcIP and dstIP against the private-ip predicate.
func ClassifyDirection(srcIP, dstIP string) Direction {
	srcPrivate := netutil.IsPrivate(srcIP)
	dstPrivate := netutil.IsPrivate(dstIP)
	switch {
	case srcPrivate && !dstPrivate:
		return LocalToExternal
	case !srcPrivate && dstPrivate:
		return ExternalToLocal
	case srcPrivate && dstPrivate:
		return LocalToLocal
	default:
		return ExternalToExternal
	}
}

// Kind is the decision procedure's verdict category.
type Kind int

const (
	Benign Kind = iota
	KnownAttack
	UnknownAttack
)

// Decision is the outcome of the §4.5.E decision procedure.
type Decision struct {
	Kind       Kind
	Class      string
	Confidence float64
	Severity   int
}

// Thresholds holds the two tunable cutoffs the decision procedure consults.
type Thresholds struct {
	MinAttackConfidence float64
	RealScoreThreshold  float64
}

// DefaultThresholds returns the spec's default tunables.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAttackConfidence: DefaultMinAttackConfidence,
		RealScoreThreshold:  DefaultRealScoreThreshold,
	}
}

// softmax converts raw logits to a probability distribution.
func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}
	exps := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		e := math.Exp(l - maxLogit)
		exps[i] = e
		sum += e
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

func argmax(p []float64) int {
	best := 0
	for i, v := range p {
		if v > p[best] {
			best = i
		}
	}
	return best
}

// rawOutput is the softmaxed, argmax'd result of one forward pass.
type rawOutput struct {
	predictedClass string
	confidence     float64
	realScore      float64
}

func computeRawOutput(labels []string, real float64, logits []float64) rawOutput {
	probs := softmax(logits)
	idx := argmax(probs)
	class := "Unknown"
	if idx < len(labels) {
		class = labels[idx]
	}
	return rawOutput{predictedClass: class, confidence: probs[idx], realScore: real}
}

// decisionInput bundles everything the decision procedure needs beyond the
// raw model output.
type decisionInput struct {
	raw       rawOutput
	direction Direction
	vector    flow.Vector
	srcPort   int
	dstPort   int
	protocol  string // "tcp" or "udp", lowercase
}

// Decide applies the §4.5.E decision tree.
//
// Only Stage 1's first bullet terminates immediately ("skip further
// rules" in the spec); every other Stage 1-4 bullet sets a provisional
// verdict via first-match-wins, but Stage 5 can still override it and
// Stage 6 can still demote it regardless of which earlier bullet fired.
func Decide(in decisionInput, th Thresholds) Decision {
	isCommonPort := netutil.IsCommonPort(uint16(in.srcPort)) || netutil.IsCommonPort(uint16(in.dstPort))
	packetsPerSec := in.vector.PacketsPerSec()
	bytesPerSec := in.vector.BytesPerSec()

	class := in.raw.predictedClass
	real := in.raw.realScore

	if class == "Benign" && real > 0 && isCommonPort {
		return finalize(Benign, "", 0, in)
	}

	kind, verdictClass, confidence := provisionalDecision(in, th, packetsPerSec, bytesPerSec)

	if attack, conf, ok := matchPortSignature(in.srcPort, in.protocol, in.dstPort); ok {
		return finalize(KnownAttack, attack, conf, in)
	}

	if kind != Benign && in.direction == LocalToExternal && packetsPerSec < 2000 {
		return finalize(Benign, "", 0, in)
	}

	return finalize(kind, verdictClass, confidence, in)
}

// provisionalDecision implements Stage 1's remaining bullets through
// Stage 4, first match wins.
func provisionalDecision(in decisionInput, th Thresholds, packetsPerSec, bytesPerSec float64) (Kind, string, float64) {
	class := in.raw.predictedClass
	confidence := in.raw.confidence
	real := in.raw.realScore

	if class != "Benign" {
		if confidence >= th.MinAttackConfidence {
			return KnownAttack, class, confidence
		}
		if confidence >= 0.3 && isKnownAttackLabel(class) {
			return KnownAttack, class, confidence
		}
	}

	if in.direction == LocalToExternal {
		if class == "PortScan" && packetsPerSec < 200 {
			return Benign, "", 0
		}
		if containsDoS(class) && packetsPerSec < 500 {
			return Benign, "", 0
		}
		if class == "Benign" {
			return Benign, "", 0
		}
	}

	if real <= th.RealScoreThreshold && class == "Benign" && in.direction != LocalToExternal {
		return UnknownAttack, "UnknownAttack", math.Max(1-confidence, 0.01)
	}
	if real <= -0.15 && in.direction != LocalToExternal {
		return UnknownAttack, "UnknownAttack", math.Min(0.85, 0.5+2*math.Abs(real))
	}

	if class == "Benign" && (packetsPerSec > 200 || bytesPerSec > 200000) && in.direction != LocalToExternal {
		return UnknownAttack, "UnknownAttack", rateConfidence(packetsPerSec, bytesPerSec)
	}

	return classifyFallback(class), class, confidence
}

func classifyFallback(class string) Kind {
	if class == "Benign" {
		return Benign
	}
	return KnownAttack
}

func containsDoS(class string) bool {
	return strings.Contains(class, "DoS")
}

// rateConfidence derives confidence from flow rate as 0.5 + 0.1*ln(1+r),
// where r is the larger of packets/s over 200 and bytes/s over 200000,
// capped at 0.95. It grows logarithmically with r, not linearly.
func rateConfidence(packetsPerSec, bytesPerSec float64) float64 {
	pRatio := packetsPerSec / 200
	bRatio := bytesPerSec / 200000
	ratio := math.Max(pRatio, bRatio)
	conf := 0.5 + 0.1*math.Log1p(ratio)
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

func finalize(kind Kind, class string, confidence float64, in decisionInput) Decision {
	d := Decision{Kind: kind, Class: class, Confidence: confidence}
	d.Severity = severityFor(d, in)
	return d
}

// severityFor implements §4.5.F.
func severityFor(d Decision, in decisionInput) int {
	switch d.Kind {
	case Benign:
		return 0
	case UnknownAttack:
		packetsPerSec := in.vector.PacketsPerSec()
		bytesPerSec := in.vector.BytesPerSec()
		if packetsPerSec > 200 || bytesPerSec > 200000 {
			return 5
		}
		if in.raw.realScore <= -0.1 {
			return 5
		}
		if packetsPerSec > 100 || bytesPerSec > 100 {
			return 4
		}
		return 4
	case KnownAttack:
		if isHighSeverityClass(d.Class) {
			if d.Confidence >= 0.8 {
				return 5
			}
			return 4
		}
		return 4
	default:
		return 0
	}
}

func isHighSeverityClass(class string) bool {
	switch {
	case class == "DDoS", class == "DoS_Hulk", class == "DoS_GoldenEye", class == "BruteForce":
		return true
	default:
		return false
	}
}
