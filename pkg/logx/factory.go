package logx

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Output is a destination for encoded records. WriteLevel receives one JSON
// record per call; the factory gates each output at Level().
type Output interface {
	zerolog.LevelWriter
	Name() string
	Level() Level
}

// Flusher is implemented by outputs that buffer or send asynchronously.
type Flusher interface {
	Flush(timeout time.Duration) bool
}

type ConsoleOptions struct {
	Level   Level
	Format  Format
	Target  string
	NoColor bool
	// Out overrides the target writer; used by tests and embedding programs.
	Out io.Writer
}

type TrackerOptions struct {
	DSN         string
	Level       Level
	SampleRate  float64
	Environment string
	Release     string
	RatePerSec  int
}

type ShipperOptions struct {
	Network   string
	Host      string
	Port      int
	Level     Level
	QueueSize int
	// Augment enriches every record before it is serialized.
	Augment func(rec map[string]any)
}

type FileOptions struct {
	Path       string
	Level      Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Constructors is the capability set a Factory assembles outputs from.
// Console is required; Tracker is required only when Sentry is enabled.
// A nil Shipper or File disables that output.
type Constructors struct {
	Engine  func(w zerolog.LevelWriter) zerolog.Logger
	Console func(ConsoleOptions) (Output, error)
	Tracker func(TrackerOptions) (Output, error)
	Shipper func(ShipperOptions) (Output, error)
	File    func(FileOptions) (Output, error)
}

type FactoryOption func(*Factory)

// WithClock replaces the wall clock used for shipped record metadata.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// WithPID replaces the process identity provider used for shipped records.
func WithPID(pid func() int) FactoryOption {
	return func(f *Factory) {
		if pid != nil {
			f.pid = pid
		}
	}
}

// Factory builds Loggers from configuration. It keeps no reference to the
// loggers it returns.
type Factory struct {
	ctors Constructors
	now   func() time.Time
	pid   func() int
}

func NewFactory(ctors Constructors, opts ...FactoryOption) *Factory {
	f := &Factory{ctors: ctors, now: time.Now, pid: os.Getpid}
	for _, o := range opts {
		if o != nil {
			o(f)
		}
	}
	return f
}

// New assembles the outputs described by cfg and returns a Logger over them.
// On failure every output built so far is closed.
func (f *Factory) New(cfg Config) (Logger, error) {
	c, err := f.build(cfg)
	if err != nil {
		return Logger{}, err
	}
	return Logger{core: c}, nil
}

func (f *Factory) build(cfg Config) (*core, error) {
	setupGlobals()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if f.ctors.Console == nil {
		return nil, fmt.Errorf("console: %w", ErrMissingConstructor)
	}

	outputs := make([]Output, 0, 4)
	fail := func(err error) (*core, error) {
		_ = closeOutputs(outputs)
		return nil, err
	}

	// The console follows sentry.level; the tracker itself is pinned to error.
	console, err := f.ctors.Console(ConsoleOptions{
		Level:   parseLevel(cfg.Sentry.Level, LevelInfo),
		Format:  cfg.format(),
		Target:  cfg.Console.target(),
		NoColor: cfg.Console.NoColor,
	})
	if err != nil {
		return fail(fmt.Errorf("console output: %w", err))
	}
	outputs = append(outputs, console)

	if cfg.Sentry.Enabled {
		if f.ctors.Tracker == nil {
			return fail(fmt.Errorf("sentry: %w", ErrMissingConstructor))
		}
		tracker, err := f.ctors.Tracker(TrackerOptions{
			DSN:         cfg.Sentry.DSN,
			Level:       LevelError,
			SampleRate:  cfg.Sentry.sampleRate(),
			Environment: cfg.Sentry.Environment,
			Release:     cfg.Sentry.Release,
			RatePerSec:  cfg.Sentry.RatePerSec,
		})
		if err != nil {
			return fail(fmt.Errorf("sentry output: %w", err))
		}
		outputs = append(outputs, tracker)
	}

	if ls := cfg.Logstash; ls != nil && ls.Enabled && f.ctors.Shipper != nil {
		aug := Augmenter{Application: ls.application(), Now: f.now, PID: f.pid}
		shipper, err := f.ctors.Shipper(ShipperOptions{
			Network:   ls.network(),
			Host:      ls.host(),
			Port:      ls.port(),
			Level:     parseLevel(ls.Level, LevelInfo),
			QueueSize: ls.queueSize(),
			Augment:   aug.Augment,
		})
		if err != nil {
			return fail(fmt.Errorf("logstash output: %w", err))
		}
		outputs = append(outputs, shipper)
	}

	if fc := cfg.File; fc != nil && fc.Enabled && f.ctors.File != nil {
		file, err := f.ctors.File(FileOptions{
			Path:       fc.path(),
			Level:      parseLevel(fc.Level, LevelInfo),
			MaxSizeMB:  fc.MaxSizeMB,
			MaxBackups: fc.MaxBackups,
			MaxAgeDays: fc.MaxAgeDays,
			Compress:   fc.Compress,
		})
		if err != nil {
			return fail(fmt.Errorf("file output: %w", err))
		}
		outputs = append(outputs, file)
	}

	writers := make([]io.Writer, 0, len(outputs))
	levels := make([]Level, 0, len(outputs))
	for _, o := range outputs {
		writers = append(writers, &zerolog.FilteredLevelWriter{Writer: o, Level: o.Level()})
		levels = append(levels, o.Level())
	}
	mw := zerolog.MultiLevelWriter(writers...)

	engine := f.ctors.Engine
	if engine == nil {
		engine = func(w zerolog.LevelWriter) zerolog.Logger { return zerolog.New(w) }
	}
	zl := engine(mw).Level(lowestLevel(levels...)).With().Timestamp().Logger()

	return &core{zl: zl, outputs: outputs, metaKey: cfg.MetadataKey}, nil
}
