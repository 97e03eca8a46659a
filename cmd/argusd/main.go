// Command argusd runs the packet capture and detection pipeline: flow
// tracking, the declarative rule engine, and (when enabled) the anomaly
// detector, wired to a live interface, an offline capture file, or a
// synthetic traffic simulator.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alertclient"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/anomaly"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/capture"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/config"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/ruleengine"
)

const simulatorTick = 2 * time.Second

func main() {
	configPath := flag.String("config", "argusd.yaml", "path to detector configuration file")
	flag.Parse()

	cfg, err := config.LoadDetectorConfig(*configPath)
	if err != nil {
		slog.Error("failed to load detector configuration", "error", err)
		os.Exit(1)
	}

	localLog, err := alertclient.OpenLocalLog(cfg.Alert.LocalLogPath)
	if err != nil {
		slog.Error("failed to open local alert log", "error", err)
		os.Exit(1)
	}
	defer localLog.Close()

	client := alertclient.NewClient(cfg.Alert.GatewayURL, time.Duration(cfg.Alert.TimeoutSeconds)*time.Second)

	overlay := ruleengine.NewOverlay(cfg.Rules.BlockedIPs, cfg.Rules.TrustedIPs)
	rules, err := ruleengine.NewEngine(cfg.Rules.RuleFile, overlay, localLog, client)
	if err != nil {
		slog.Error("failed to load rule engine", "error", err)
		os.Exit(1)
	}

	det, err := buildDetector(cfg, localLog, client)
	if err != nil {
		slog.Error("failed to build anomaly detector", "error", err)
		os.Exit(1)
	}

	table := flow.NewTable()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Capture.Mode {
	case "simulated":
		runSimulated(ctx, table, rules, det)
	default:
		runCapture(ctx, cfg, table, rules, det)
	}
}

func buildDetector(cfg *config.DetectorConfig, localLog *alertclient.LocalLog, client *alertclient.Client) (*anomaly.Detector, error) {
	if !cfg.Anomaly.Enabled {
		return nil, nil
	}

	artifact, err := anomaly.LoadArtifact(cfg.Anomaly.ArtifactPath)
	if err != nil {
		return nil, err
	}
	scaler, err := anomaly.LoadScaler(cfg.Anomaly.ScalerPath)
	if err != nil {
		return nil, err
	}
	reducer, err := anomaly.LoadReducer(cfg.Anomaly.ReducerPath)
	if err != nil {
		return nil, err
	}
	labels, err := anomaly.LoadLabels(cfg.Anomaly.LabelsPath)
	if err != nil {
		return nil, err
	}

	th := anomaly.Thresholds{
		MinAttackConfidence: cfg.Anomaly.MinAttackConfidence,
		RealScoreThreshold:  cfg.Anomaly.RealScoreThreshold,
	}

	slog.Info("anomaly detector enabled",
		"artifact", cfg.Anomaly.ArtifactPath,
		"min_attack_confidence", th.MinAttackConfidence,
		"real_score_threshold", th.RealScoreThreshold,
	)

	return anomaly.NewDetector(artifact, scaler, reducer, labels, th, localLog, client), nil
}

func runCapture(ctx context.Context, cfg *config.DetectorConfig, table *flow.Table, rules *ruleengine.Engine, det *anomaly.Detector) {
	var source capture.Source
	var err error

	switch cfg.Capture.Mode {
	case "offline":
		source, err = capture.OpenOffline(cfg.Capture.PcapFile)
	default:
		source, err = capture.OpenLive(cfg.Capture.Interface, cfg.Capture.SnapLen, cfg.Capture.Promiscuous, time.Second, cfg.Capture.BPFFilter)
	}
	if err != nil {
		slog.Error("failed to open capture source", "mode", cfg.Capture.Mode, "error", err)
		os.Exit(1)
	}

	loop := capture.NewLoop(source, table, rules, det)
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("capture loop exited", "error", err)
		os.Exit(1)
	}
	slog.Info("capture loop stopped")
}

// runSimulated drives synthetic traffic through the same flow tracking,
// rule engine, and anomaly detector path a real capture loop would, for
// demo and integration-test environments without a real interface.
func runSimulated(ctx context.Context, table *flow.Table, rules *ruleengine.Engine, det *anomaly.Detector) {
	sim := capture.NewSimulator(time.Now().UnixNano())
	ticker := time.NewTicker(simulatorTick)
	defer ticker.Stop()

	slog.Info("running in simulated capture mode")

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulated capture stopped")
			return
		case <-ticker.C:
			now := time.Now()
			for _, pkt := range sim.Next(now) {
				_, vector, handle := table.Observe(pkt, now)
				rules.Process(ctx, pkt, now)

				if det == nil {
					continue
				}
				stats := handle.Stats()
				if !anomaly.ShouldRun(stats) {
					continue
				}
				if _, err := det.Evaluate(ctx, stats, vector); err != nil {
					slog.Warn("anomaly detector inference failed", "error", err)
					continue
				}
				stats.LastDetectionPackets = stats.TotalPackets()
			}
		}
	}
}
