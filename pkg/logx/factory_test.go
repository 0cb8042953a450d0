package logx

import (
	"errors"
	"testing"
	"time"
)

func outputNames(l Logger) []string {
	var names []string
	for _, o := range l.Outputs() {
		names = append(names, o.Name())
	}
	return names
}

func TestFactoryConsoleOnlyWhenSentryDisabled(t *testing.T) {
	t.Parallel()
	r := &recorder{}
	l, err := NewFactory(r.constructors(false)).New(Config{Sentry: SentryConfig{Enabled: false}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer l.Close()

	outs := l.Outputs()
	if len(outs) != 1 || outs[0].Name() != "console" {
		t.Fatalf("outputs = %v, want [console]", outputNames(l))
	}
}

func TestFactorySentryForcesErrorLevel(t *testing.T) {
	t.Parallel()
	l, r := newTestLogger(t, Config{Sentry: SentryConfig{Enabled: true, DSN: "x", Level: "debug"}})

	outs := l.Outputs()
	if len(outs) != 2 {
		t.Fatalf("outputs = %v, want 2", outputNames(l))
	}
	if outs[1].Level() != LevelError {
		t.Fatalf("tracker level = %v, want error", outs[1].Level())
	}
	if r.trackerOpts.DSN != "x" {
		t.Fatalf("tracker dsn = %q, want x", r.trackerOpts.DSN)
	}
	if r.trackerOpts.SampleRate != DefaultSampleRate {
		t.Fatalf("sample rate = %v, want %v", r.trackerOpts.SampleRate, DefaultSampleRate)
	}
	// The console follows sentry.level.
	if r.consoleOpts.Level != LevelDebug {
		t.Fatalf("console level = %v, want debug", r.consoleOpts.Level)
	}
}

func TestFactorySentrySampleRatePassedThrough(t *testing.T) {
	t.Parallel()
	_, r := newTestLogger(t, Config{Sentry: SentryConfig{Enabled: true, SampleRate: 0.9, Environment: "prod", RatePerSec: 3}})
	if r.trackerOpts.SampleRate != 0.9 || r.trackerOpts.Environment != "prod" || r.trackerOpts.RatePerSec != 3 {
		t.Fatalf("tracker options = %+v", r.trackerOpts)
	}
}

func TestFactoryLogstashPresence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		logstash    *LogstashConfig
		withShipper bool
		want        int
	}{
		{name: "section omitted", logstash: nil, withShipper: true, want: 1},
		{name: "disabled", logstash: &LogstashConfig{Enabled: false}, withShipper: true, want: 1},
		{name: "no constructor", logstash: &LogstashConfig{Enabled: true}, withShipper: false, want: 1},
		{name: "enabled", logstash: &LogstashConfig{Enabled: true}, withShipper: true, want: 2},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &recorder{}
			l, err := NewFactory(r.constructors(tt.withShipper)).New(Config{Logstash: tt.logstash})
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			defer l.Close()
			if got := len(l.Outputs()); got != tt.want {
				t.Fatalf("outputs = %v, want %d", outputNames(l), tt.want)
			}
		})
	}
}

func TestFactoryShipperDefaultsAndAugment(t *testing.T) {
	t.Parallel()
	local := time.FixedZone("BRT", -3*60*60)
	clock := func() time.Time { return time.Date(2024, 3, 5, 4, 8, 9, 123_000_000, local) }

	r := &recorder{}
	l, err := NewFactory(r.constructors(true), WithClock(clock), WithPID(func() int { return 4242 })).
		New(Config{Logstash: &LogstashConfig{Enabled: true}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer l.Close()

	o := r.shipperOpts
	if o.Host != DefaultLogstashHost || o.Port != DefaultLogstashPort || o.Network != "tcp" {
		t.Fatalf("shipper endpoint = %s/%s:%d", o.Network, o.Host, o.Port)
	}
	if o.Level != LevelInfo {
		t.Fatalf("shipper level = %v, want info", o.Level)
	}

	rec := map[string]any{"message": "hi", "application": "other"}
	o.Augment(rec)
	if rec["application"] != "gupy" {
		t.Fatalf("application = %v, want gupy", rec["application"])
	}
	if rec["pid"] != 4242 {
		t.Fatalf("pid = %v, want 4242", rec["pid"])
	}
	if rec["time"] != "2024-03-05 07:08:09.123 +00:00" {
		t.Fatalf("time = %v", rec["time"])
	}
	if _, ok := rec["timestamp"]; !ok {
		t.Fatalf("timestamp missing: %v", rec)
	}
}

func TestFactoryShipperApplication(t *testing.T) {
	t.Parallel()
	_, r := newTestLogger(t, Config{Logstash: &LogstashConfig{Enabled: true, Application: "billing", Host: "ls", Port: 5000, Level: "warn"}})
	rec := map[string]any{}
	r.shipperOpts.Augment(rec)
	if rec["application"] != "billing" {
		t.Fatalf("application = %v, want billing", rec["application"])
	}
	if r.shipperOpts.Level != LevelWarn || r.shipperOpts.Host != "ls" || r.shipperOpts.Port != 5000 {
		t.Fatalf("shipper options = %+v", r.shipperOpts)
	}
}

func TestFactoryOutputOrder(t *testing.T) {
	t.Parallel()
	l, _ := newTestLogger(t, Config{
		Sentry:   SentryConfig{Enabled: true},
		Logstash: &LogstashConfig{Enabled: true},
		File:     &FileConfig{Enabled: true},
	})
	got := outputNames(l)
	want := []string{"console", "sentry", "logstash", "file"}
	if len(got) != len(want) {
		t.Fatalf("outputs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("outputs = %v, want %v", got, want)
		}
	}
}

func TestFactoryConstructorErrorClosesBuiltOutputs(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("bad dsn")
	r := &recorder{trackerErr: sentinel}
	_, err := NewFactory(r.constructors(true)).New(Config{Sentry: SentryConfig{Enabled: true}})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want wrapped %v", err, sentinel)
	}
	if !r.console.isClosed() {
		t.Fatalf("console output was not closed after failure")
	}
}

func TestFactoryMissingConstructors(t *testing.T) {
	t.Parallel()
	if _, err := NewFactory(Constructors{}).New(Config{}); !errors.Is(err, ErrMissingConstructor) {
		t.Fatalf("missing console: err = %v", err)
	}

	r := &recorder{}
	c := r.constructors(false)
	c.Tracker = nil
	if _, err := NewFactory(c).New(Config{Sentry: SentryConfig{Enabled: true}}); !errors.Is(err, ErrMissingConstructor) {
		t.Fatalf("missing tracker: err = %v", err)
	}
}

func TestFactoryRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	r := &recorder{}
	_, err := NewFactory(r.constructors(true)).New(Config{Sentry: SentryConfig{Level: "loud"}})
	if !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("err = %v, want ErrInvalidLevel", err)
	}
	if r.console != nil {
		t.Fatalf("console built for invalid config")
	}
}

func TestFactoryGatesOutputsByLevel(t *testing.T) {
	t.Parallel()
	l, r := newTestLogger(t, Config{Sentry: SentryConfig{Enabled: true, Level: "warn"}})

	l.Info("dropped")
	l.Warn("kept")
	_ = l.Error(errBoom)

	if got := len(r.console.all()); got != 2 {
		t.Fatalf("console records = %d, want 2", got)
	}
	recs := r.tracker.all()
	if len(recs) != 1 || recs[0].level != LevelError {
		t.Fatalf("tracker records = %+v, want one error", recs)
	}
	if l.Enabled(LevelInfo) {
		t.Fatalf("info should be disabled when every output is at warn or above")
	}
}

func TestLoggerCloseFlushesOutputs(t *testing.T) {
	t.Parallel()
	r := &recorder{}
	l, err := NewFactory(r.constructors(true)).New(Config{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !r.console.isClosed() || !r.console.flushed {
		t.Fatalf("console not flushed/closed")
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	l.Info("nothing")
	if err := l.Error(errBoom, "x"); err == nil || err.Error() != "boom :: x" {
		t.Fatalf("Error() = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}
