package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Settings holds process-level options for the simsvc command.
type Settings struct {
	ConfigDir string   `env:"XFACTOR_CONFIG_DIR"`
	Profile   string   `env:"XFACTOR_PROFILE"     envDefault:"nver"`
	Supports  []string `env:"XFACTOR_SUPPORTS"    envSeparator:","`
	Builds    []string `env:"XFACTOR_BUILDS"      envSeparator:","`
	Runs      int      `env:"XFACTOR_RUNS"        envDefault:"50000"`
	Seed      int64    `env:"XFACTOR_SEED"        envDefault:"12345"`
	Workers   int      `env:"XFACTOR_WORKERS"`
	Turns     int      `env:"XFACTOR_TURNS"`
	MaxQueue  int      `env:"XFACTOR_MAX_QUEUE"   envDefault:"32"`
	PerTurn   bool     `env:"XFACTOR_PER_TURN"`

	Format string `env:"XFACTOR_FORMAT"     envDefault:"table"`
	Locale string `env:"XFACTOR_LOCALE"     envDefault:"en"`
	Out    string `env:"XFACTOR_OUT"`
	Trace  bool   `env:"XFACTOR_TRACE"`

	LogLevel string `env:"XFACTOR_LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"XFACTOR_STORE_DRIVER" envDefault:"sqlite"`
	StoreDSN    string `env:"XFACTOR_STORE_DSN"`

	OTelEndpoint    string  `env:"XFACTOR_OTEL_ENDPOINT"`
	OTelSampleRatio float64 `env:"XFACTOR_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// ParseSettings reads the environment first and lets flags override it.
func ParseSettings(fs *flag.FlagSet, args []string) (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}

	supports := strings.Join(s.Supports, ",")
	builds := strings.Join(s.Builds, ",")
	fs.StringVar(&s.ConfigDir, "config", s.ConfigDir, "profile directory (empty: embedded profiles)")
	fs.StringVar(&s.Profile, "profile", s.Profile, "character profile id")
	fs.StringVar(&supports, "supports", supports, "comma-separated supports (empty: all)")
	fs.StringVar(&builds, "builds", builds, "comma-separated builds (empty: all)")
	fs.IntVar(&s.Runs, "n", s.Runs, "runs per configuration")
	fs.Int64Var(&s.Seed, "seed", s.Seed, "seed")
	fs.IntVar(&s.Workers, "workers", s.Workers, "worker goroutines (0: one per CPU)")
	fs.IntVar(&s.Turns, "turns", s.Turns, "override turns per battle (0: profile value)")
	fs.IntVar(&s.MaxQueue, "max-queue", s.MaxQueue, "cap on attacks enqueued per turn")
	fs.BoolVar(&s.PerTurn, "per-turn", s.PerTurn, "report per-turn means")
	fs.StringVar(&s.Format, "format", s.Format, "output format: table|json")
	fs.StringVar(&s.Locale, "locale", s.Locale, "number formatting locale")
	fs.StringVar(&s.Out, "out", s.Out, "output file (empty: stdout)")
	fs.BoolVar(&s.Trace, "trace", s.Trace, "print the event log of a single run")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "debug|info|warn|error")
	fs.StringVar(&s.StoreDriver, "store-driver", s.StoreDriver, "result store driver: sqlite|pgx")
	fs.StringVar(&s.StoreDSN, "store", s.StoreDSN, "result store DSN (empty: do not persist)")
	fs.StringVar(&s.OTelEndpoint, "otel-endpoint", s.OTelEndpoint, "OTLP/HTTP trace endpoint")
	fs.Float64Var(&s.OTelSampleRatio, "otel-sample", s.OTelSampleRatio, "share of experiments traced, in [0,1]")
	if err := fs.Parse(args); err != nil {
		return Settings{}, err
	}
	s.Supports = splitList(supports)
	s.Builds = splitList(builds)
	return s, s.Validate()
}

func (s Settings) Validate() error {
	var errs []error
	if s.Profile == "" {
		errs = append(errs, errors.New("profile is required"))
	}
	if s.Runs <= 0 {
		errs = append(errs, fmt.Errorf("runs must be positive (got %d)", s.Runs))
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative (got %d)", s.Workers))
	}
	if s.Turns < 0 {
		errs = append(errs, fmt.Errorf("turns must not be negative (got %d)", s.Turns))
	}
	if s.MaxQueue <= 0 {
		errs = append(errs, fmt.Errorf("max queue must be positive (got %d)", s.MaxQueue))
	}
	switch s.Format {
	case "table", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", s.Format))
	}
	if s.OTelSampleRatio < 0 || s.OTelSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("otel sample ratio %v outside [0,1]", s.OTelSampleRatio))
	}
	switch s.StoreDriver {
	case "sqlite", "pgx":
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", s.StoreDriver))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (s Settings) SlogLevel() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
