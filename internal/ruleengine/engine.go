package ruleengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alert"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alertclient"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
)

// Engine wires rule compilation, the blocked/trusted safety overlay, and
// alert emission into the packet path driven by the capture loop.
type Engine struct {
	rules   []Rule
	overlay *Overlay
	stats   *Stats

	localLog *alertclient.LocalLog
	client   *alertclient.Client
}

// NewEngine loads rules from rulesPath and builds a ready-to-use engine.
func NewEngine(rulesPath string, overlay *Overlay, localLog *alertclient.LocalLog, client *alertclient.Client) (*Engine, error) {
	rules, err := LoadRules(rulesPath)
	if err != nil {
		return nil, err
	}

	slog.Info("rule engine loaded", "rule_file", rulesPath, "rule_count", len(rules))

	return &Engine{
		rules:    rules,
		overlay:  overlay,
		stats:    NewStats(),
		localLog: localLog,
		client:   client,
	}, nil
}

// Process evaluates one decoded packet against the safety overlay and the
// compiled rule set, emitting an alert for every rule hit.
func (e *Engine) Process(ctx context.Context, p *flow.Packet, now time.Time) {
	srcIP := p.SrcIP.String()
	if e.overlay.ShouldDrop(now, srcIP) {
		return
	}

	e.stats.recordPacket()

	hits := Match(e.rules, p)
	e.stats.recordHits(hits)

	for _, h := range hits {
		e.emit(ctx, h, now)
	}
}

func (e *Engine) emit(ctx context.Context, h Hit, now time.Time) {
	env := alert.Envelope{
		Engine:         alert.EngineRule,
		Timestamp:      alert.FormatTimestamp(now),
		AttackType:     h.Msg,
		Severity:       h.Severity,
		Message:        h.Msg,
		Session:        alert.NewSession(h.SrcIP, int(h.SrcPort), h.DstIP, int(h.DstPort)),
		SrcIP:          h.SrcIP,
		DstIP:          h.DstIP,
		SrcPort:        int(h.SrcPort),
		DstPort:        int(h.DstPort),
		Protocol:       h.Protocol,
		Tags:           h.Tags,
		PayloadPreview: h.PayloadHexPreview,
	}

	slog.Info("rule match",
		"sid", h.SID, "msg", h.Msg, "severity", h.Severity,
		"session", env.Session, "tags", h.Tags)

	if e.localLog != nil {
		e.localLog.Append(env)
	}
	if e.client != nil {
		_ = e.client.Send(ctx, env)
	}
}

// Stats returns the engine's live statistics.
func (e *Engine) Stats() Snapshot {
	return e.stats.Snapshot()
}
