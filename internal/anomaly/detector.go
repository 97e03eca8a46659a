package anomaly

import (
	"context"
	"log/slog"
	"time"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alert"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alertclient"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
)

// minObservedPackets is the flow-age gate: SEQ_LEN/2.
const minObservedPackets = SeqLen / 2

// minPacketsSinceDetection is the re-evaluation gate.
const minPacketsSinceDetection = 16

// Detector runs the anomaly decision procedure against flows the tracker
// has built feature vectors for. Stateless per call: all per-flow state
// (LastDetectionPackets) lives in flow.Stats, owned by the tracker.
type Detector struct {
	artifact Artifact
	scaler   *Scaler
	reducer  *Reducer
	labels   []string
	th       Thresholds

	localLog *alertclient.LocalLog
	client   *alertclient.Client
}

// NewDetector assembles a Detector from its loaded artifacts.
func NewDetector(artifact Artifact, scaler *Scaler, reducer *Reducer, labels []string, th Thresholds, localLog *alertclient.LocalLog, client *alertclient.Client) *Detector {
	return &Detector{
		artifact: artifact,
		scaler:   scaler,
		reducer:  reducer,
		labels:   labels,
		th:       th,
		localLog: localLog,
		client:   client,
	}
}

// ShouldRun implements the §4.5.B invocation gate.
func ShouldRun(s *flow.Stats) bool {
	total := s.TotalPackets()
	if total < minObservedPackets {
		return false
	}
	return total-s.LastDetectionPackets >= minPacketsSinceDetection
}

// Evaluate runs the full preprocessing → inference → decision pipeline for
// one flow and, for a non-Benign verdict, emits an alert. The caller is
// responsible for checking ShouldRun and updating LastDetectionPackets.
func (d *Detector) Evaluate(ctx context.Context, s *flow.Stats, v flow.Vector) (Decision, error) {
	sequence := BuildSequence(d.scaler, d.reducer, v)

	real, logits, err := d.artifact.Infer(sequence)
	if err != nil {
		return Decision{}, err
	}

	raw := computeRawOutput(d.labels, real, logits)

	protocol := "tcp"
	if s.Protocol == flow.ProtoUDP {
		protocol = "udp"
	}

	in := decisionInput{
		raw:       raw,
		direction: ClassifyDirection(s.FirstSrcIP.String(), s.FirstDstIP.String()),
		vector:    v,
		srcPort:   int(s.FirstSrcPort),
		dstPort:   int(s.FirstDstPort),
		protocol:  protocol,
	}

	decision := Decide(in, d.th)

	if decision.Kind != Benign {
		d.emit(ctx, decision, s, raw, protocol)
	}

	return decision, nil
}

func (d *Detector) emit(ctx context.Context, decision Decision, s *flow.Stats, raw rawOutput, protocol string) {
	now := time.Now()
	realScore := raw.realScore

	env := alert.Envelope{
		Engine:     alert.EngineAnomaly,
		Timestamp:  alert.FormatTimestamp(now),
		AttackType: decision.Class,
		Severity:   decision.Severity,
		Confidence: decision.Confidence,
		Message:    "anomaly detector: " + decision.Class,
		Session:    alert.NewSession(s.FirstSrcIP.String(), int(s.FirstSrcPort), s.FirstDstIP.String(), int(s.FirstDstPort)),
		SrcIP:      s.FirstSrcIP.String(),
		DstIP:      s.FirstDstIP.String(),
		SrcPort:    int(s.FirstSrcPort),
		DstPort:    int(s.FirstDstPort),
		Protocol:   protocol,
		RealScore:  &realScore,
	}

	slog.Info("anomaly decision",
		"class", decision.Class, "confidence", decision.Confidence,
		"severity", decision.Severity, "session", env.Session, "real_score", realScore)

	if d.localLog != nil {
		d.localLog.Append(env)
	}
	if d.client != nil {
		_ = d.client.Send(ctx, env)
	}
}
