// Package config
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/amirphl/simple-ta/internal/analysis"
	"github.com/amirphl/simple-ta/internal/tfutils"
	"github.com/amirphl/simple-ta/internal/utils"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

/*
YAML config example:
mode: "analyze"
source: "postgres"
symbol: "BTCUSDT"
timeframe: "1h"
from: 2024-01-01T00:00:00Z
to: 2024-06-01T00:00:00Z
heikin_ashi: false
indicators: ["rsi", "macd", "bollinger", "donchian"]
rsi_period: 14
macd_slow: 26
macd_fast: 12
macd_smooth: 9
bollinger_window: 20
donchian_window: 20
out: "report.json"
chart: "report.html"
log_level: "debug"
db_source: "wallex"
bars: 0
import_batch: 1000
db_max_open: 10
db_max_idle: 5

Keys left out of the file keep their flag values. Secrets stay in the
environment or in .env: DB_CONN_STR, WALLEX_API_KEY, TELEGRAM_TOKEN, TELEGRAM_CHAT_ID.
*/

const (
	ModeAnalyze = "analyze"
	ModeServe   = "serve"
	ModeImport  = "import"

	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceWallex   = "wallex"
)

const dateLayout = "2006-01-02"

type Config struct {
	Mode      string    `yaml:"mode"`
	Source    string    `yaml:"source"`
	CSVPath   string    `yaml:"csv"`
	Symbol    string    `yaml:"symbol"`
	Timeframe string    `yaml:"timeframe"`
	From      time.Time `yaml:"from"`
	To        time.Time `yaml:"to"`

	// HeikinAshi smooths the candles before analysis.
	HeikinAshi bool `yaml:"heikin_ashi"`

	Indicators      []string `yaml:"indicators"`
	RSIPeriod       int      `yaml:"rsi_period"`
	MACDSlow        int      `yaml:"macd_slow"`
	MACDFast        int      `yaml:"macd_fast"`
	MACDSmooth      int      `yaml:"macd_smooth"`
	BollingerWindow int      `yaml:"bollinger_window"`
	DonchianWindow  int      `yaml:"donchian_window"`

	Out      string `yaml:"out"`
	Chart    string `yaml:"chart"`
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	TelegramToken       string        `yaml:"-"`
	TelegramChatID      string        `yaml:"telegram_chat"`
	NotificationRetries int           `yaml:"notification_retries"`
	NotificationDelay   time.Duration `yaml:"notification_delay"`

	WallexAPIKey string `yaml:"-"`
	DBConnStr    string `yaml:"-"`
	DBMaxOpen    int    `yaml:"db_max_open"`
	DBMaxIdle    int    `yaml:"db_max_idle"`

	// DBSource picks which stored source the postgres source reads; empty reads
	// all of them, one row per timestamp.
	DBSource string `yaml:"db_source"`
	// Bars fetches the latest N candles from Wallex instead of the -from/-to range.
	Bars        int `yaml:"bars"`
	ImportBatch int `yaml:"import_batch"`
}

// Load parses args (without the program name) and applies the YAML file named by -config on top.
func Load(args []string) (Config, error) {
	defaults := analysis.DefaultParams()
	now := time.Now().UTC()

	fs := flag.NewFlagSet("simple-ta", flag.ContinueOnError)
	mode := fs.String("mode", ModeAnalyze, "Mode: analyze or serve or import")
	source := fs.String("source", SourceCSV, "Candle source: csv or postgres or wallex")
	csvPath := fs.String("csv", "", "Path to a CSV file with timestamp,open,high,low,close[,volume] columns")
	symbol := fs.String("symbol", "BTCUSDT", "Symbol")
	timeframe := fs.String("timeframe", "1h", "Candle timeframe")
	from := fs.String("from", now.AddDate(0, -3, 0).Format(dateLayout), "Start date (YYYY-MM-DD)")
	to := fs.String("to", now.AddDate(0, 0, 1).Format(dateLayout), "End date, exclusive (YYYY-MM-DD)")
	heikinAshi := fs.Bool("heikin-ashi", false, "Convert candles to Heikin-Ashi before analysis")
	indicators := fs.String("indicators", "", "Comma-separated indicators (rsi,macd,bollinger,donchian); empty selects all")
	rsiPeriod := fs.Int("rsi-period", defaults.RSIPeriod, "RSI lookback")
	macdSlow := fs.Int("macd-slow", defaults.MACDSlow, "MACD slow EMA period")
	macdFast := fs.Int("macd-fast", defaults.MACDFast, "MACD fast EMA period")
	macdSmooth := fs.Int("macd-smooth", defaults.MACDSmooth, "MACD signal EMA period")
	bollingerWindow := fs.Int("bollinger-window", defaults.BollingerWindow, "Bollinger window")
	donchianWindow := fs.Int("donchian-window", defaults.DonchianWindow, "Donchian window")
	out := fs.String("out", "", "Write the JSON report to this file; - for stdout")
	chart := fs.String("chart", "", "Write an HTML chart to this file")
	addr := fs.String("addr", ":8080", "HTTP listen address for serve mode")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error")
	telegramToken := fs.String("telegram-token", os.Getenv("TELEGRAM_TOKEN"), "Telegram bot token for notifications")
	telegramChatID := fs.String("telegram-chat", os.Getenv("TELEGRAM_CHAT_ID"), "Telegram chat ID for notifications")
	notificationRetries := fs.Int("notification-retries", 3, "Number of notification send attempts")
	notificationDelay := fs.Duration("notification-delay", 5*time.Second, "Delay between notification retries (e.g., 5s)")
	dbSource := fs.String("db-source", "", "Stored source the postgres source reads (csv or wallex); empty reads all")
	bars := fs.Int("bars", 0, "Fetch the latest N candles from Wallex instead of the -from/-to range")
	importBatch := fs.Int("import-batch", 1000, "Candles per insert batch in import mode")
	configFile := fs.String("config", "", "Path to YAML config file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	fromTime, err := time.Parse(dateLayout, *from)
	if err != nil {
		return Config{}, fmt.Errorf("invalid -from: %w", err)
	}
	toTime, err := time.Parse(dateLayout, *to)
	if err != nil {
		return Config{}, fmt.Errorf("invalid -to: %w", err)
	}

	cfg := Config{
		Mode:                *mode,
		Source:              *source,
		CSVPath:             *csvPath,
		Symbol:              *symbol,
		Timeframe:           *timeframe,
		From:                fromTime,
		To:                  toTime,
		HeikinAshi:          *heikinAshi,
		Indicators:          splitList(*indicators),
		RSIPeriod:           *rsiPeriod,
		MACDSlow:            *macdSlow,
		MACDFast:            *macdFast,
		MACDSmooth:          *macdSmooth,
		BollingerWindow:     *bollingerWindow,
		DonchianWindow:      *donchianWindow,
		Out:                 *out,
		Chart:               *chart,
		Addr:                *addr,
		LogLevel:            *logLevel,
		TelegramToken:       *telegramToken,
		TelegramChatID:      *telegramChatID,
		NotificationRetries: *notificationRetries,
		NotificationDelay:   *notificationDelay,
		WallexAPIKey:        os.Getenv("WALLEX_API_KEY"),
		DBConnStr:           os.Getenv("DB_CONN_STR"),
		DBMaxOpen:           10,
		DBMaxIdle:           5,
		DBSource:            *dbSource,
		Bars:                *bars,
		ImportBatch:         *importBatch,
	}

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return cfg, nil
}

// MustLoadConfig loads .env if present, parses the command line and validates the result.
// It exits the process on failure.
func MustLoadConfig() Config {
	log := utils.GetLogger()
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	return cfg
}

// Validate checks the mode, the candle source and its settings, and the indicator parameters.
func (c Config) Validate() error {
	if !slices.Contains([]string{ModeAnalyze, ModeServe, ModeImport}, c.Mode) {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if _, err := c.AnalysisParams(); err != nil {
		return err
	}
	if c.Mode == ModeServe {
		if c.Addr == "" {
			return errors.New("serve mode needs -addr")
		}
		return nil
	}

	if _, err := tfutils.ParseTimeframe(c.Timeframe); err != nil {
		return fmt.Errorf("%w (supported: %s)", err, strings.Join(tfutils.GetSupportedTimeframes(), ", "))
	}
	if c.Symbol == "" {
		return errors.New("symbol is required")
	}

	switch c.Source {
	case SourceCSV:
		if c.CSVPath == "" {
			return errors.New("csv source needs -csv")
		}
	case SourcePostgres:
		if c.DBConnStr == "" {
			return errors.New("postgres source needs DB_CONN_STR")
		}
		if c.DBSource != "" && !slices.Contains([]string{SourceCSV, SourceWallex}, c.DBSource) {
			return fmt.Errorf("unknown db source %q", c.DBSource)
		}
		if !c.To.After(c.From) {
			return fmt.Errorf("-to %s must be after -from %s", c.To.Format(dateLayout), c.From.Format(dateLayout))
		}
	case SourceWallex:
		if c.Bars < 0 {
			return fmt.Errorf("bars must not be negative, got %d", c.Bars)
		}
		if c.Bars == 0 && !c.To.After(c.From) {
			return fmt.Errorf("-to %s must be after -from %s", c.To.Format(dateLayout), c.From.Format(dateLayout))
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	if c.Mode == ModeImport {
		if c.Source == SourcePostgres {
			return errors.New("import mode reads from csv or wallex")
		}
		if c.DBConnStr == "" {
			return errors.New("import mode needs DB_CONN_STR")
		}
	}
	return nil
}

// AnalysisParams maps the indicator settings to analysis parameters.
func (c Config) AnalysisParams() (analysis.Params, error) {
	kinds, err := analysis.ParseKinds(strings.Join(c.Indicators, ","))
	if err != nil {
		return analysis.Params{}, err
	}
	p := analysis.Params{
		Indicators:      kinds,
		RSIPeriod:       c.RSIPeriod,
		MACDSlow:        c.MACDSlow,
		MACDFast:        c.MACDFast,
		MACDSmooth:      c.MACDSmooth,
		BollingerWindow: c.BollingerWindow,
		DonchianWindow:  c.DonchianWindow,
	}
	if err := p.Validate(); err != nil {
		return analysis.Params{}, err
	}
	return p, nil
}

// NotifierEnabled reports whether Telegram credentials are set.
func (c Config) NotifierEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
