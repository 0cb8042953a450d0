package logx

import (
	"fmt"
	"strings"
)

const (
	DefaultApplication  = "gupy"
	DefaultSampleRate   = 0.25
	DefaultLogstashHost = "127.0.0.1"
	DefaultLogstashPort = 28777
	DefaultQueueSize    = 1024
	DefaultFilePath     = "./app.log"
)

// Format selects how the console output renders records.
type Format string

const (
	// FormatJSON writes the engine's JSON records unchanged.
	FormatJSON Format = "json"
	// FormatLine writes "<timestamp> [<level>]: <message>".
	FormatLine Format = "line"
	// FormatPretty writes colored key=value lines for terminals.
	FormatPretty Format = "pretty"
)

const (
	TargetStdout   = "stdout"
	TargetStderr   = "stderr"
	TargetJournald = "journald"
)

// ---- Config ----

type Config struct {
	// Sentry is required even when disabled: its Level also drives the
	// console output.
	Sentry   SentryConfig    `json:"sentry"`
	Logstash *LogstashConfig `json:"logstash,omitempty"`
	File     *FileConfig     `json:"file,omitempty"`
	Console  ConsoleConfig   `json:"console,omitempty"`

	Format Format `json:"format,omitempty"`
	// MetadataKey nests merged metadata under a single key when set.
	MetadataKey string `json:"metadataKey,omitempty"`
}

type SentryConfig struct {
	Enabled     bool    `json:"enabled"`
	DSN         string  `json:"dsn,omitempty"`
	Level       string  `json:"level,omitempty"`
	SampleRate  float64 `json:"sampleRate,omitempty"`
	Environment string  `json:"environment,omitempty"`
	Release     string  `json:"release,omitempty"`
	RatePerSec  int     `json:"ratePerSec,omitempty"`
}

type LogstashConfig struct {
	Enabled     bool   `json:"enabled,omitempty"`
	Application string `json:"application,omitempty"`
	Host        string `json:"host,omitempty"`
	Port        int    `json:"port,omitempty"`
	Level       string `json:"level,omitempty"`
	Network     string `json:"network,omitempty"`
	QueueSize   int    `json:"queueSize,omitempty"`
}

type ConsoleConfig struct {
	Target  string `json:"target,omitempty"`
	NoColor bool   `json:"noColor,omitempty"`
}

type FileConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path,omitempty"`
	Level      string `json:"level,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMB,omitempty"`
	MaxBackups int    `json:"maxBackups,omitempty"`
	MaxAgeDays int    `json:"maxAgeDays,omitempty"`
	Compress   bool   `json:"compress,omitempty"`
}

func (c Config) format() Format {
	if c.Format == "" {
		return FormatJSON
	}
	return c.Format
}

func (c ConsoleConfig) target() string {
	if strings.TrimSpace(c.Target) == "" {
		return TargetStdout
	}
	return strings.ToLower(strings.TrimSpace(c.Target))
}

func (c SentryConfig) sampleRate() float64 {
	if c.SampleRate == 0 {
		return DefaultSampleRate
	}
	return c.SampleRate
}

func (c LogstashConfig) application() string {
	if strings.TrimSpace(c.Application) == "" {
		return DefaultApplication
	}
	return c.Application
}

func (c LogstashConfig) host() string {
	if strings.TrimSpace(c.Host) == "" {
		return DefaultLogstashHost
	}
	return c.Host
}

func (c LogstashConfig) port() int {
	if c.Port <= 0 {
		return DefaultLogstashPort
	}
	return c.Port
}

func (c LogstashConfig) network() string {
	if strings.TrimSpace(c.Network) == "" {
		return "tcp"
	}
	return strings.ToLower(strings.TrimSpace(c.Network))
}

func (c LogstashConfig) queueSize() int {
	if c.QueueSize <= 0 {
		return DefaultQueueSize
	}
	return c.QueueSize
}

func (c FileConfig) path() string {
	if strings.TrimSpace(c.Path) == "" {
		return DefaultFilePath
	}
	return c.Path
}

// Validate reports the first invalid setting. Disabled sections are still
// checked so a bad value is caught before it is switched on.
func (c Config) Validate() error {
	switch c.format() {
	case FormatJSON, FormatLine, FormatPretty:
	default:
		return fmt.Errorf("format: %w: %q", ErrInvalidFormat, c.Format)
	}
	switch c.Console.target() {
	case TargetStdout, TargetStderr, TargetJournald:
	default:
		return fmt.Errorf("console.target: %w: %q", ErrInvalidTarget, c.Console.Target)
	}
	if _, err := ParseLevel(c.Sentry.Level, LevelInfo); err != nil {
		return fmt.Errorf("sentry.level: %w", err)
	}
	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		return fmt.Errorf("sentry.sampleRate: %w: %v", ErrInvalidSampleRate, c.Sentry.SampleRate)
	}
	if c.Sentry.RatePerSec < 0 {
		return fmt.Errorf("sentry.ratePerSec: must be >= 0")
	}
	if ls := c.Logstash; ls != nil {
		if _, err := ParseLevel(ls.Level, LevelInfo); err != nil {
			return fmt.Errorf("logstash.level: %w", err)
		}
		switch ls.network() {
		case "tcp", "tcp4", "tcp6", "udp", "udp4", "udp6":
		default:
			return fmt.Errorf("logstash.network: %w: %q", ErrInvalidNetwork, ls.Network)
		}
		if ls.Port < 0 || ls.Port > 65535 {
			return fmt.Errorf("logstash.port: out of range: %d", ls.Port)
		}
	}
	if f := c.File; f != nil {
		if _, err := ParseLevel(f.Level, LevelInfo); err != nil {
			return fmt.Errorf("file.level: %w", err)
		}
	}
	return nil
}
