package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/scalo/internal/config"
	"github.com/olivier-w/scalo/internal/hls"
	"github.com/olivier-w/scalo/internal/logging"
	"github.com/olivier-w/scalo/internal/pipeline"
	"github.com/olivier-w/scalo/internal/player"
	"github.com/olivier-w/scalo/internal/snapshot"
	"github.com/olivier-w/scalo/internal/ui"
	"github.com/olivier-w/scalo/internal/wavelet"
)

// headlessColumns is the row width printed by --headless.
const headlessColumns = 96

// output is the audio device or the silent wall clock.
type output interface {
	pipeline.Playback
	ui.Controls
	Close()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.NewFileLogger(cfg.LogFile, "scalo", level)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting",
		"url", cfg.URL,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"backend", cfg.Backend,
		"lookahead", cfg.Lookahead,
	)

	fetcher := hls.NewFetcher(&http.Client{Timeout: 30 * time.Second})
	tracks := hls.NewTrackQueue()
	poller := hls.NewPoller(fetcher, cfg.URL, tracks, cfg.PollInterval, logger)
	segments, err := hls.NewSegmentIterator(cfg.URL, tracks, fetcher, player.NewDecoder(logger), logger)
	if err != nil {
		return err
	}

	opts := pipeline.CoordinatorOptions{
		Width:           cfg.Width,
		Height:          cfg.Height,
		BandSpacing:     cfg.BandSpacing(),
		NominalDuration: float32(cfg.NominalDuration),
		Lookahead:       cfg.Lookahead,
	}
	if cfg.Snapshots != "" {
		writer, err := snapshot.NewWriter(cfg.Snapshots)
		if err != nil {
			return err
		}
		opts.OnItem = func(item pipeline.Item) {
			path, err := writer.Write(item.Name, item.Spectrogram)
			if err != nil {
				logger.Warn("snapshot failed", "track", item.Name, "err", err)
				return
			}
			logger.Debug("snapshot written", "track", item.Name, "path", path)
		}
	}
	coordinator := pipeline.NewCoordinator(segments, wavelet.NewEngine(cfg.FFTBackend(), logger), opts, logger)

	out, err := openOutput(cfg)
	if err != nil {
		return err
	}

	poller.Start(ctx)
	coordinator.Start(ctx)

	renderer := pipeline.NewRenderer(out, cfg.Tick, logger)
	var renderErr error
	if cfg.Headless {
		renderErr = renderer.Run(ctx, coordinator.Items(), pipeline.NewTextSink(os.Stdout, headlessColumns))
	} else {
		renderErr = runTUI(ctx, cfg, renderer, coordinator, out, func() ui.Stats {
			return ui.Stats{QueueLen: tracks.Len(), PollFailures: poller.Failures()}
		})
	}

	cancel()
	shutdown(cfg, logger, poller, coordinator)
	out.Close()

	if err := coordinator.Err(); err != nil {
		return err
	}
	if renderErr != nil && !errors.Is(renderErr, context.Canceled) {
		return renderErr
	}
	return nil
}

func openOutput(cfg config.Config) (output, error) {
	if cfg.NoAudio {
		return player.NewClock(time.Now, cfg.Volume), nil
	}
	p, err := player.New(cfg.Volume)
	if err != nil {
		return nil, fmt.Errorf("opening audio device (try --no-audio): %w", err)
	}
	return p, nil
}

// runTUI drives the renderer into a tea.Program until the user quits or
// the pipeline ends.
func runTUI(ctx context.Context, cfg config.Config, renderer *pipeline.Renderer, coordinator *pipeline.Coordinator, out output, stats func() ui.Stats) error {
	model := ui.New(out, stats, cfg.URL)
	program := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := renderer.Run(ctx, coordinator.Items(), ui.NewProgramSink(program))
		if ctx.Err() == nil {
			program.Send(ui.PipelineDoneMsg{Err: coordinator.Err()})
		}
		done <- err
	}()

	go func() {
		// A signal ends the program the same way a quit key does.
		<-ctx.Done()
		program.Quit()
	}()

	_, runErr := program.Run()
	cancel()
	renderErr := <-done
	if runErr != nil {
		return runErr
	}
	return renderErr
}

// shutdown joins the background workers. A join that outlives the timeout
// is logged and abandoned.
func shutdown(cfg config.Config, logger *slog.Logger, poller *hls.Poller, coordinator *pipeline.Coordinator) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := poller.Stop(ctx); err != nil {
		logger.Warn("poller did not stop", "err", err)
	}
	if err := coordinator.Wait(ctx); err != nil {
		logger.Warn("coordinator did not stop", "err", err)
	}
	logger.Info("stopped", "polls", poller.Polls(), "poll_failures", poller.Failures())
}
