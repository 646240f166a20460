package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/kscand/internal/api"
	"codeberg.org/mutker/kscand/internal/config"
	"codeberg.org/mutker/kscand/internal/diag"
	"codeberg.org/mutker/kscand/internal/gpio"
	"codeberg.org/mutker/kscand/internal/ingest"
	"codeberg.org/mutker/kscand/internal/logger"
	"codeberg.org/mutker/kscand/internal/recorder"
	"codeberg.org/mutker/kscand/internal/rpc"
	"codeberg.org/mutker/kscand/internal/topology"
)

const recordInterval = 60 * time.Second

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	debug := cfg.LogLevel == config.LogLevelDebug.String()
	verbose := cfg.LogLevel == config.LogLevelInfo.String()
	logger.Init(debug, verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	ctrl, err := buildController()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build diagnostics controller")
	}

	reader := gpio.NewRealReader()
	defer reader.Close()

	dispatcher := rpc.NewDispatcher(ctrl, reader, cfg.GPIOChip)

	if ctrl != nil {
		bridge, err := ingest.NewBridge(cfg.Broker, cfg.ClientID, cfg.Topic, ctrl)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to event bus")
		}
		defer bridge.Close()
	}

	var rec recorder.Recorder
	if cfg.Telemetry && ctrl != nil {
		rec, err = recorder.NewService(recorder.Config{DBPath: cfg.TelemetryDB})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize session recorder")
		}
		defer rec.Close()
		go recordLoop(ctx, ctrl, rec)
	}

	server := api.NewServer(cfg.HTTPAddr, dispatcher)
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shut down management API")
		}
	}()

	if err := server.ListenAndServe(); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("management API server failed")
	}
	logger.Info().Msg("Exiting...")
}

func buildController() (*diag.Controller, error) {
	if len(cfg.Lines) == 0 {
		// No scan device configured; the dispatcher answers every
		// request with success=false instead of refusing to start.
		logger.Warn().Msg("No scan lines configured; diagnostics disabled")
		return nil, nil
	}

	lines := make([]topology.Line, len(cfg.Lines))
	for i, l := range cfg.Lines {
		lines[i] = topology.Line{Pin: l.Pin, Port: l.Port}
	}

	topo, err := topology.New(cfg.Rows, cfg.Cols, cfg.Multiplexed, lines)
	if err != nil {
		return nil, err
	}

	ctrl, err := diag.NewController(topo, diag.Options{
		EventBufferSize: cfg.EventBufferSize,
		ChatterWindowMS: cfg.ChatterWindowMS,
		ChatterBurst:    cfg.ChatterBurst,
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("lines", topo.LineCount()).
		Int("rows", topo.Rows()).
		Int("cols", topo.Cols()).
		Int("keys", topo.KeyCount()).
		Bool("multiplexed", topo.Multiplexed()).
		Msg("Keyscan diagnostics initialized")

	return ctrl, nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func recordLoop(ctx context.Context, ctrl *diag.Controller, rec recorder.Recorder) {
	ticker := time.NewTicker(recordInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := ctrl.Snapshot()

			chattering := 0
			for _, ks := range ctrl.KeyStats(-1) {
				if ks.ChatterCount > 0 {
					chattering++
				}
			}
			suspect := 0
			for _, line := range snap.Lines {
				if line.SuspectedFault {
					suspect++
				}
			}

			err := rec.Record(ctx, &recorder.SessionSnapshot{
				Timestamp:        time.Now(),
				MonitoringActive: snap.MonitoringActive,
				TotalEvents:      snap.TotalEvents,
				AlertCount:       len(snap.ChatterAlerts),
				ChatteringKeys:   chattering,
				SuspectLines:     suspect,
			})
			if err != nil {
				logger.Error().Err(err).Msg("failed to record session snapshot")
			}
		}
	}
}
