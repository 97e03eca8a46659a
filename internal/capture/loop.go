package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/anomaly"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/ruleengine"
)

// sweepInterval is how often the flow table is swept for timed-out flows.
const sweepInterval = 10 * time.Second

// Loop drives one capture source through the flow tracker, rule engine,
// and anomaly detector. It owns the flow table exclusively, per the
// single-writer concurrency model: nothing outside the goroutine running
// Run mutates table state.
type Loop struct {
	source Source
	table  *flow.Table
	rules  *ruleengine.Engine
	anom   *anomaly.Detector
}

// NewLoop builds a capture loop. anom may be nil to run rule-engine-only.
func NewLoop(source Source, table *flow.Table, rules *ruleengine.Engine, anom *anomaly.Detector) *Loop {
	return &Loop{source: source, table: table, rules: rules, anom: anom}
}

// Run blocks, reading frames from the source until ctx is canceled or the
// source is exhausted (offline replay reaching EOF). It is safe to call
// exactly once per Loop.
func (l *Loop) Run(ctx context.Context) error {
	defer l.source.Close()

	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()

	done := make(chan error, 1)
	go l.readLoop(ctx, done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		case <-sweepTicker.C:
			removed := l.table.Sweep(time.Now())
			if removed > 0 {
				slog.Debug("swept idle flows", "removed", removed)
			}
		}
	}
}

func (l *Loop) readLoop(ctx context.Context, done chan<- error) {
	for {
		if ctx.Err() != nil {
			done <- ctx.Err()
			return
		}

		raw, err := l.source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				done <- nil
				return
			}
			done <- err
			return
		}

		now := time.Now()
		pkt, reason, ok := Decode(raw, now)
		if !ok {
			slog.Debug("dropped frame", "reason", reason.String())
			continue
		}

		l.process(ctx, pkt, now)
	}
}

func (l *Loop) process(ctx context.Context, pkt *flow.Packet, now time.Time) {
	_, vector, handle := l.table.Observe(pkt, now)

	if l.rules != nil {
		l.rules.Process(ctx, pkt, now)
	}

	if l.anom == nil {
		return
	}

	stats := handle.Stats()
	if !anomaly.ShouldRun(stats) {
		return
	}

	if _, err := l.anom.Evaluate(ctx, stats, vector); err != nil {
		slog.Warn("anomaly detector inference failed", "error", err)
		return
	}
	stats.LastDetectionPackets = stats.TotalPackets()
}
