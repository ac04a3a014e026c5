package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mwhitt/chartwatch/internal/api"
	"github.com/mwhitt/chartwatch/internal/config"
	"github.com/mwhitt/chartwatch/internal/database"
	"github.com/mwhitt/chartwatch/internal/ingest"
	"github.com/mwhitt/chartwatch/internal/notify"
	"github.com/mwhitt/chartwatch/internal/report"
	"github.com/mwhitt/chartwatch/internal/series"
	"github.com/mwhitt/chartwatch/internal/stream"
	"github.com/mwhitt/chartwatch/internal/validate"
	"github.com/mwhitt/chartwatch/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/chartwatch.yaml", "path to config file")
	market := flag.String("market", "", "market id (overrides config)")
	slugs := flag.String("slugs", "", "comma-separated slug set (overrides config)")
	width := flag.Int("width", 0, "bucket width in minutes (overrides config)")
	duration := flag.Duration("duration", 0, "run duration, 0 runs until interrupted (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Set up structured logging
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting chartwatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration; flags win over file values.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *market != "" {
		cfg.Run.Market = *market
		cfg.Run.Slugs = nil
	}
	if *slugs != "" {
		cfg.Run.Slugs = strings.Split(*slugs, ",")
		cfg.Run.Market = ""
	}
	if *width > 0 {
		cfg.Run.WidthMinutes = *width
	}
	if *duration > 0 {
		cfg.Run.Duration = *duration
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"market", cfg.Run.Market,
		"slugs", strings.Join(cfg.Run.Slugs, ","),
		"width_minutes", cfg.Run.WidthMinutes,
		"transport", cfg.Stream.Transport,
	)

	// Create context with cancellation; a configured duration bounds the run.
	var ctx context.Context
	var cancel context.CancelFunc
	if cfg.Run.Duration > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), cfg.Run.Duration)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Create API client
	apiClient := api.NewClient(cfg.API.BaseURL, cfg.API.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
	)

	// Resolve market metadata. Failure degrades the run rather than aborting:
	// the grid falls back to wall alignment and cross-validation is skipped.
	validateEnabled := cfg.Validation.Enabled
	marketID := cfg.Run.Market
	var originMs int64
	meta, err := apiClient.ResolveMarket(ctx, cfg.Run.Market, cfg.Run.Slugs)
	if err != nil {
		logger.Warn("market resolution failed, using wall-aligned grid and skipping validation", "error", err)
		validateEnabled = false
	} else {
		marketID = meta.MarketID
		originMs = meta.WindowStartMs
		logger.Info("market resolved",
			"market", meta.MarketID,
			"slug", meta.Slug,
			"window_start_ms", meta.WindowStartMs,
		)
	}

	// Build the stream source.
	streamURL, err := stream.BuildURL(cfg.Stream.URL, cfg.Run.Market, cfg.Run.Slugs, cfg.Run.WidthMinutes)
	if err != nil {
		logger.Error("failed to build stream url", "error", err)
		os.Exit(1)
	}

	streamCfg := stream.DefaultConfig()
	streamCfg.URL = streamURL
	streamCfg.Transport = cfg.Stream.Transport
	streamCfg.BufferSize = cfg.Stream.BufferSize

	var src stream.Source
	if cfg.Stream.Transport == "ws" {
		src = stream.NewWSClient(streamCfg, logger)
	} else {
		src = stream.NewSSEClient(streamCfg, logger)
	}

	// Classification engine over the market's bucket grid.
	engine := series.NewEngine(series.Config{
		WidthMs:  int64(cfg.Run.WidthMinutes) * 60_000,
		OriginMs: originMs,
	}, logger)

	// Start the router before connecting so it is ready to consume frames.
	router := ingest.NewRouter(ingest.Config{SampleLimit: cfg.Report.SampleLimit}, src.Frames(), engine, logger)
	if err := router.Start(ctx); err != nil {
		logger.Error("failed to start ingest router", "error", err)
		os.Exit(1)
	}

	// Cross-validation poller, over REST or directly over Postgres.
	startTsMs := time.Now().UnixMilli()
	var poller *validate.Poller
	if validateEnabled {
		var source validate.TickSource = apiClient
		if cfg.Validation.Source == "postgres" {
			pool, err := database.Connect(ctx, cfg.Database.Postgres)
			if err != nil {
				logger.Error("failed to connect to database", "error", err)
				os.Exit(1)
			}
			defer pool.Close()
			logger.Info("database connected",
				"host", cfg.Database.Postgres.Host,
				"database", cfg.Database.Postgres.Name,
			)
			source = database.NewTickStore(pool)
		}

		poller = validate.New(validate.Config{
			Interval:    cfg.Validation.Interval,
			PageSize:    cfg.Validation.PageSize,
			MissedLimit: cfg.Validation.MissedLimit,
			Timeout:     cfg.API.Timeout,
		}, marketID, source, router, startTsMs, logger)
		if err := poller.Start(ctx); err != nil {
			logger.Error("failed to start validation poller", "error", err)
			os.Exit(1)
		}
	}

	// Reporter and alert channel.
	sink, err := report.NewSink(cfg.Report.LogFile)
	if err != nil {
		logger.Error("failed to open report sink", "error", err)
		os.Exit(1)
	}

	var notifier report.Notifier
	if cfg.Notify.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, logger)
		if err != nil {
			logger.Warn("telegram notifier unavailable, alerts disabled", "error", err)
		} else {
			notifier = tg
		}
	}

	var validSrc report.ValidationSource
	if poller != nil {
		validSrc = poller
	}
	reporter := report.New(report.Config{
		Interval:     cfg.Report.Interval,
		FlatEps:      cfg.Report.FlatEps,
		FlatRunLimit: cfg.Report.FlatRunLimit,
	}, engine, router, validSrc, notifier, sink, logger)
	reporter.Start()

	// Connect last, with every consumer ready.
	if err := src.Connect(ctx); err != nil {
		logger.Error("stream handshake failed", "url", streamURL, "error", err)
		os.Exit(1)
	}
	logger.Info("stream connected", "url", streamURL, "run_id", reporter.RunID())

	// A transport error after connect is fatal to the run; a clean
	// end-of-stream or an expired run duration is a normal exit.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err, ok := <-src.Errors():
			if ok && err != nil {
				return err
			}
			logger.Info("stream ended, finishing run")
			cancel()
			return nil
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("stream transport failed", "error", err)
		exitCode = 1
	}

	logger.Info("shutting down...")
	cancel()

	// Ordered teardown: transport first so the router sees end-of-stream,
	// then the consumers, then the final report.
	if err := src.Close(); err != nil {
		logger.Warn("stream close", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := router.Stop(shutdownCtx); err != nil {
		logger.Warn("router stop", "error", err)
	}
	if poller != nil {
		if err := poller.Stop(shutdownCtx); err != nil {
			logger.Warn("poller stop", "error", err)
		}
	}

	reporter.Stop()
	if err := sink.Close(); err != nil {
		logger.Warn("sink close", "error", err)
	}

	stats := router.Stats()
	logger.Info("chartwatch stopped",
		"ticks", stats.Ticks,
		"discarded", stats.Discarded,
		"decode_errors", stats.DecodeErrors,
		"mid_hits", stats.MidHit,
		"drops", stats.Drop,
	)
	os.Exit(exitCode)
}
