// Package orchestrator wires a probe run to its surroundings: signals,
// metrics, the optional dashboard and the exit summary.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"github.com/randomizedcoder/go-pidlimit-probe/internal/config"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/logging"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/metrics"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/preflight"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/probe"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/process"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/report"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/tui"
)

// Orchestrator runs one probe with its metrics and reporting.
type Orchestrator struct {
	config  *config.Config
	logger  *slog.Logger
	version string
	out     io.Writer

	spawner       *process.PlaceholderSpawner
	registry      *prometheus.Registry
	collector     *metrics.Collector
	metricsServer *metrics.Server // nil when -metrics is not set
	probe         *probe.Probe
}

// New creates an orchestrator for cfg. The exit summary goes to stdout.
func New(cfg *config.Config, logger *slog.Logger, version string) *Orchestrator {
	spawner := process.NewPlaceholderSpawner(&process.PlaceholderConfig{
		BinaryPath: cfg.PlaceholderBinary,
		Args:       cfg.PlaceholderArgs,
	})

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollectorWithRegistry(metrics.CollectorConfig{
		TargetCount: cfg.TargetCount,
		Command:     spawner.CommandString(),
		Version:     version,
	}, registry)

	o := &Orchestrator{
		config:    cfg,
		logger:    logger,
		version:   version,
		out:       os.Stdout,
		spawner:   spawner,
		registry:  registry,
		collector: collector,
	}

	if cfg.MetricsAddr != "" {
		o.metricsServer = metrics.NewServer(cfg.MetricsAddr, registry, logging.Component(logger, "metrics"))
	}

	var preflightFn func() *preflight.Result
	if !cfg.SkipPreflight {
		preflightFn = o.runPreflight
	}

	o.probe = probe.New(probe.Config{
		Target:        cfg.TargetCount,
		Spawner:       spawner,
		Logger:        logging.Component(logger, "probe"),
		Recorder:      collector,
		ProgressEvery: cfg.ProgressEvery,
		Hold:          cfg.Hold,
		Strict:        cfg.Strict,
		Preflight:     preflightFn,
	})

	return o
}

// SetOutput redirects the exit summary.
func (o *Orchestrator) SetOutput(w io.Writer) {
	o.out = w
}

// Run executes the probe. It blocks until the run and its cleanup are
// finished. SIGINT and SIGTERM stop spawning early; cleanup still runs.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.metricsServer != nil {
		if err := o.metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	// Setup signal handling
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGTERM, unix.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			o.logger.Info("received_signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	o.logger.Info("starting",
		"version", o.version,
		"target", o.config.TargetCount,
		"command", o.spawner.CommandString(),
		"metrics_addr", o.config.MetricsAddr,
	)

	var (
		res probe.Result
		err error
	)
	if o.config.TUIEnabled {
		res, err = o.runWithTUI(ctx, cancel)
	} else {
		o.printBanner()
		res, err = o.probe.Run(ctx)
	}

	if o.metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := o.metricsServer.Shutdown(shutdownCtx); serr != nil {
			o.logger.Warn("metrics_server_shutdown_error", "error", serr)
		}
		shutdownCancel()
	}

	if o.config.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(o.registry, o.config.MetricsTextfile); werr != nil {
			o.logger.Error("metrics_textfile_failed", "path", o.config.MetricsTextfile, "error", werr)
		} else {
			o.logger.Info("metrics_textfile_written", "path", o.config.MetricsTextfile)
		}
	}

	o.printExitSummary(res)
	return err
}

// runWithTUI runs the probe in the background while the dashboard renders
// its progress. The dashboard exits once the run, including cleanup, is done.
func (o *Orchestrator) runWithTUI(ctx context.Context, cancel context.CancelFunc) (probe.Result, error) {
	model := tui.New(tui.Config{
		Target:      o.config.TargetCount,
		Command:     o.spawner.CommandString(),
		MetricsAddr: o.config.MetricsAddr,
		Source:      o.probe.Progress(),
		Cancel:      cancel,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	var (
		res probe.Result
		err error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err = o.probe.Run(ctx)
		tui.SendDone(program, res, err)
	}()

	if _, terr := program.Run(); terr != nil {
		o.logger.Error("tui_failed", "error", terr)
		cancel()
	}
	<-done
	return res, err
}

// runPreflight runs the limit checks and publishes the limits as metrics.
func (o *Orchestrator) runPreflight() *preflight.Result {
	res := preflight.RunAll(o.config.TargetCount, o.config.PlaceholderBinary)
	for _, c := range res.Checks {
		if c.Limit != 0 {
			o.collector.SetLimit(c.Name, c.Limit)
		}
	}
	return res
}

// printBanner prints the startup banner.
func (o *Orchestrator) printBanner() {
	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, "╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(o.out, "║                      go-pidlimit-probe                            ║")
	fmt.Fprintln(o.out, "║        Spawn placeholder processes until the PID limit            ║")
	fmt.Fprintln(o.out, "╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(o.out)
	fmt.Fprintf(o.out, "  Target:      %d processes\n", o.config.TargetCount)
	fmt.Fprintf(o.out, "  Command:     %s\n", o.spawner.CommandString())
	if o.config.Hold > 0 {
		fmt.Fprintf(o.out, "  Hold:        %s\n", o.config.Hold)
	}
	if o.metricsServer != nil {
		fmt.Fprintf(o.out, "  Metrics:     http://%s/metrics\n", o.metricsServer.Addr())
	}
	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, "Press Ctrl+C to stop spawning and clean up.")
	fmt.Fprintln(o.out)
}

func (o *Orchestrator) printExitSummary(res probe.Result) {
	cfg := report.SummaryConfig{
		Command:         o.spawner.CommandString(),
		MetricsTextfile: o.config.MetricsTextfile,
		PeakLive:        o.collector.PeakLive(),
	}
	if o.metricsServer != nil {
		cfg.MetricsAddr = o.metricsServer.Addr()
	}
	fmt.Fprint(o.out, report.FormatSummary(res, cfg))
}
