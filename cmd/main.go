package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/simple-ta/internal/analysis"
	"github.com/amirphl/simple-ta/internal/api"
	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/chart"
	"github.com/amirphl/simple-ta/internal/config"
	"github.com/amirphl/simple-ta/internal/db"
	"github.com/amirphl/simple-ta/internal/exchange"
	"github.com/amirphl/simple-ta/internal/notifier"
	"github.com/amirphl/simple-ta/internal/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.MustLoadConfig()
	utils.Configure(os.Stderr, cfg.LogLevel)
	log := utils.GetLogger()
	log.Info().Str("mode", cfg.Mode).Msg("starting simple-ta")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	var err error
	switch cfg.Mode {
	case config.ModeAnalyze:
		err = runAnalyze(ctx, cfg)
	case config.ModeServe:
		err = runServer(ctx, cfg)
	case config.ModeImport:
		err = runImport(ctx, cfg)
	default:
		err = fmt.Errorf("unsupported mode: %s", cfg.Mode)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", cfg.Mode).Msg("failed")
	}
	log.Info().Msg("shutdown complete")
}

// runAnalyze loads candles, runs the indicators and writes the report, the
// chart and a notification for signals on the last bar.
func runAnalyze(ctx context.Context, cfg config.Config) error {
	log := utils.GetLogger()

	params, err := cfg.AnalysisParams()
	if err != nil {
		return err
	}

	candles, err := loadCandles(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info().Int("candles", len(candles)).Str("source", cfg.Source).Msg("candles loaded")

	if cfg.HeikinAshi {
		sorted, err := candle.Prepare(candles)
		if err != nil {
			return fmt.Errorf("invalid candles: %w", err)
		}
		candles = candle.HeikinAshi(sorted)
	}

	report, err := analysis.Run(candles, params)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if cfg.Out != "" {
		if err := writeReport(cfg.Out, report); err != nil {
			return err
		}
	}
	if cfg.Chart != "" {
		if err := writeChart(cfg.Chart, report); err != nil {
			return err
		}
		log.Info().Str("file", cfg.Chart).Msg("chart written")
	}

	latest := report.LatestSignals()
	for _, ev := range latest {
		log.Info().
			Str("indicator", ev.StrategyName).
			Str("position", ev.Position.String()).
			Float64("price", ev.TriggerPrice).
			Time("time", ev.Time).
			Msg(ev.Reason)
	}
	log.Info().Int("events", len(report.Events)).Int("latest", len(latest)).Float64("close", report.LastClose()).Msg("analysis complete")

	if cfg.NotifierEnabled() && len(latest) > 0 {
		var n notifier.Notifier = notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, cfg.NotificationRetries, cfg.NotificationDelay)
		if err := n.SendWithRetry(ctx, notifier.FormatSignals(report.Symbol, report.Timeframe, latest)); err != nil {
			log.Error().Err(err).Msg("failed to send notification")
		}
	}
	return nil
}

// runImport copies candles from a CSV file or Wallex into Postgres.
func runImport(ctx context.Context, cfg config.Config) error {
	log := utils.GetLogger()

	if err := db.Migrate(ctx, cfg.DBConnStr); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := db.Open(ctx, cfg.DBConnStr, cfg.DBMaxOpen, cfg.DBMaxIdle)
	if err != nil {
		return err
	}
	defer store.Close()

	candles, err := loadCandles(ctx, cfg)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		log.Warn().Str("symbol", cfg.Symbol).Str("timeframe", cfg.Timeframe).Msg("nothing to import")
		return nil
	}
	if err := store.ImportCandles(ctx, candles, cfg.ImportBatch); err != nil {
		return fmt.Errorf("error saving candles to database: %w", err)
	}

	start, end := candles[0].Timestamp, candles[0].Timestamp
	for _, c := range candles[1:] {
		if c.Timestamp.Before(start) {
			start = c.Timestamp
		}
		if c.Timestamp.After(end) {
			end = c.Timestamp
		}
	}
	stored, err := store.GetCandleCount(ctx, cfg.Symbol, cfg.Timeframe, candles[0].Source, start, end.Add(time.Nanosecond))
	if err != nil {
		return err
	}
	log.Info().Int("candles", len(candles)).Int("stored", stored).
		Str("symbol", cfg.Symbol).Str("timeframe", cfg.Timeframe).Msg("import complete")
	return nil
}

func runServer(ctx context.Context, cfg config.Config) error {
	log := utils.GetLogger()
	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Allow some time for in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func loadCandles(ctx context.Context, cfg config.Config) ([]candle.Candle, error) {
	switch cfg.Source {
	case config.SourceCSV:
		return candle.LoadCSV(cfg.CSVPath, cfg.Symbol, cfg.Timeframe)

	case config.SourcePostgres:
		store, err := db.Open(ctx, cfg.DBConnStr, cfg.DBMaxOpen, cfg.DBMaxIdle)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return readStored(ctx, store, cfg)

	case config.SourceWallex:
		ex := exchange.NewWallexExchange(cfg.WallexAPIKey)
		if cfg.Bars > 0 {
			return ex.FetchLatestCandles(ctx, cfg.Symbol, cfg.Timeframe, cfg.Bars)
		}
		return exchange.FetchRange(ctx, ex, cfg.Symbol, cfg.Timeframe, cfg.From, cfg.To, exchange.DefaultChunk)
	}
	return nil, fmt.Errorf("unknown source: %s", cfg.Source)
}

// readStored loads the configured range from storage, limited to cfg.DBSource when set.
func readStored(ctx context.Context, s candle.Storage, cfg config.Config) ([]candle.Candle, error) {
	candles, err := s.GetCandles(ctx, cfg.Symbol, cfg.Timeframe, cfg.DBSource, cfg.From, cfg.To)
	if err != nil {
		return nil, fmt.Errorf("error loading candles from database: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles in database for %s %s", cfg.Symbol, cfg.Timeframe)
	}
	return candles, nil
}

func writeReport(path string, report *analysis.Report) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeChart(path string, report *analysis.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	return chart.Render(f, report)
}
