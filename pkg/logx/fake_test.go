package logx

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type record struct {
	level Level
	data  map[string]any
}

type fakeOutput struct {
	name  string
	level Level

	mu      sync.Mutex
	records []record
	closed  bool
	flushed bool
}

func (f *fakeOutput) Name() string { return f.name }
func (f *fakeOutput) Level() Level { return f.level }
func (f *fakeOutput) Write(p []byte) (int, error) {
	return f.WriteLevel(zerolog.NoLevel, p)
}

func (f *fakeOutput) WriteLevel(level Level, p []byte) (int, error) {
	var m map[string]any
	if err := json.Unmarshal(p, &m); err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.records = append(f.records, record{level: level, data: m})
	f.mu.Unlock()
	return len(p), nil
}

func (f *fakeOutput) Flush(time.Duration) bool {
	f.mu.Lock()
	f.flushed = true
	f.mu.Unlock()
	return true
}

func (f *fakeOutput) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeOutput) all() []record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]record(nil), f.records...)
}

func (f *fakeOutput) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// recorder captures the options every constructor was called with.
type recorder struct {
	console *fakeOutput
	tracker *fakeOutput
	shipper *fakeOutput
	file    *fakeOutput

	consoleOpts ConsoleOptions
	trackerOpts TrackerOptions
	shipperOpts ShipperOptions
	fileOpts    FileOptions

	trackerErr error
}

func (r *recorder) constructors(withShipper bool) Constructors {
	c := Constructors{
		Console: func(o ConsoleOptions) (Output, error) {
			r.consoleOpts = o
			r.console = &fakeOutput{name: "console", level: o.Level}
			return r.console, nil
		},
		Tracker: func(o TrackerOptions) (Output, error) {
			r.trackerOpts = o
			if r.trackerErr != nil {
				return nil, r.trackerErr
			}
			r.tracker = &fakeOutput{name: "sentry", level: o.Level}
			return r.tracker, nil
		},
		File: func(o FileOptions) (Output, error) {
			r.fileOpts = o
			r.file = &fakeOutput{name: "file", level: o.Level}
			return r.file, nil
		},
	}
	if withShipper {
		c.Shipper = func(o ShipperOptions) (Output, error) {
			r.shipperOpts = o
			r.shipper = &fakeOutput{name: "logstash", level: o.Level}
			return r.shipper, nil
		}
	}
	return c
}

func newTestLogger(t *testing.T, cfg Config) (Logger, *recorder) {
	t.Helper()
	r := &recorder{}
	l, err := NewFactory(r.constructors(true)).New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l, r
}

func onlyRecord(t *testing.T, out *fakeOutput) map[string]any {
	t.Helper()
	recs := out.all()
	if len(recs) != 1 {
		t.Fatalf("%s: got %d records, want 1", out.name, len(recs))
	}
	return recs[0].data
}

type stackErr struct{ msg, stack string }

func (e *stackErr) Error() string { return e.msg }
func (e *stackErr) Stack() string { return e.stack }

var errBoom = errors.New("boom")
