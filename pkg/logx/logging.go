package logx

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// callerSkip points runtime.Caller at the user frame for every public
// logging method (shortCaller <- event <- log/emit <- method <- user).
const callerSkip = 4

const flushTimeout = 2 * time.Second

var globalsOnce sync.Once

// setupGlobals pins the zerolog field names the outputs rely on.
func setupGlobals() {
	globalsOnce.Do(func() {
		zerolog.TimeFieldFormat = consoleTimeFormat
		zerolog.TimestampFieldName = "timestamp"
		zerolog.MessageFieldName = "message"
		zerolog.ErrorFieldName = "err"
	})
}

// Field mutates a zerolog event.
//
// Fields are applied in-order. If you set the same key multiple times,
// later fields win.
type Field func(e *zerolog.Event)

// Fields is a metadata record accepted by Logger.Error.
type Fields map[string]any

func String(k, v string) Field  { return func(e *zerolog.Event) { e.Str(k, v) } }
func Int(k string, v int) Field { return func(e *zerolog.Event) { e.Int(k, v) } }
func Int64(k string, v int64) Field {
	return func(e *zerolog.Event) { e.Int64(k, v) }
}
func Bool(k string, v bool) Field { return func(e *zerolog.Event) { e.Bool(k, v) } }
func Float64(k string, v float64) Field {
	return func(e *zerolog.Event) { e.Float64(k, v) }
}
func Duration(k string, v time.Duration) Field {
	return func(e *zerolog.Event) { e.Dur(k, v) }
}
func Time(k string, v time.Time) Field { return func(e *zerolog.Event) { e.Time(k, v) } }
func Any(k string, v any) Field        { return func(e *zerolog.Event) { e.Interface(k, v) } }
func Err(err error) Field {
	return func(e *zerolog.Event) {
		if err != nil {
			e.Err(err)
		}
	}
}

func Stack(stack string) Field {
	return func(e *zerolog.Event) {
		if strings.TrimSpace(stack) != "" {
			e.Str("stack", stack)
		}
	}
}

// core is one assembled output set plus the engine writing to it.
type core struct {
	zl      zerolog.Logger
	outputs []Output
	metaKey string
}

var nopCore = &core{zl: zerolog.Nop()}

// Logger is a lightweight structured logger.
//
// - If created from a Service, it stays "live" across Service.Apply() calls.
// - With() returns a derived logger with additional fixed fields.
// - Zero value is a safe no-op logger.
type Logger struct {
	svc  *Service
	core *core

	fields []Field
}

// Nop returns a logger that never writes anything.
func Nop() Logger {
	return Logger{core: nopCore}
}

func (l Logger) IsZero() bool { return l.svc == nil && l.core == nil && len(l.fields) == 0 }

func (l Logger) root() *core {
	if l.svc != nil {
		if c := l.svc.current(); c != nil {
			return c
		}
		return nopCore
	}
	if l.core != nil {
		return l.core
	}
	return nopCore
}

// Enabled reports whether the given level would be logged.
func (l Logger) Enabled(level Level) bool {
	zl := l.root().zl
	lvl := zl.GetLevel()
	return lvl != zerolog.Disabled && level >= lvl
}

// Outputs returns the outputs currently behind the logger, in assembly order.
func (l Logger) Outputs() []Output {
	return append([]Output(nil), l.root().outputs...)
}

func (l Logger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	cp := l
	cp.fields = append(append([]Field(nil), l.fields...), fields...)
	return cp
}

func (l Logger) Trace(msg string, fields ...Field) { l.log(zerolog.TraceLevel, msg, fields...) }
func (l Logger) Debug(msg string, fields ...Field) { l.log(zerolog.DebugLevel, msg, fields...) }
func (l Logger) Info(msg string, fields ...Field)  { l.log(zerolog.InfoLevel, msg, fields...) }
func (l Logger) Warn(msg string, fields ...Field)  { l.log(zerolog.WarnLevel, msg, fields...) }

// Close flushes and closes the outputs of a factory-built logger. Loggers
// derived from a Service close the service instead.
func (l Logger) Close() error {
	if l.svc != nil {
		return l.svc.Close()
	}
	if l.core == nil || l.core == nopCore {
		return nil
	}
	return closeOutputs(l.core.outputs)
}

func (l Logger) log(level zerolog.Level, msg string, fields ...Field) {
	e, _ := l.event(level)
	if e == nil {
		return
	}
	applyFields(e, fields)
	e.Msg(msg)
}

// event starts a record with the caller and With() fields applied. It
// returns nil when the level is disabled.
func (l Logger) event(level zerolog.Level) (*zerolog.Event, *core) {
	c := l.root()
	e := c.zl.WithLevel(level)
	if e == nil {
		return nil, c
	}

	// Caller: keep it short (file:line), avoid noisy function names and full paths.
	if caller := shortCaller(callerSkip); caller != "" {
		e.Str(zerolog.CallerFieldName, caller)
	}
	applyFields(e, l.fields)
	return e, c
}

func applyFields(e *zerolog.Event, fields []Field) {
	for _, f := range fields {
		if f != nil {
			f(e)
		}
	}
}

func closeOutputs(outs []Output) error {
	var errs []error
	for _, o := range outs {
		if f, ok := o.(Flusher); ok {
			f.Flush(flushTimeout)
		}
		if c, ok := o.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func shortCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok || file == "" {
		return ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

func stackTrace(skip, maxFrames int) string {
	if maxFrames <= 0 {
		maxFrames = 16
	}
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	i := 0
	for {
		fr, more := frames.Next()
		if fr.File != "" {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(fr.Function)
			b.WriteString("\n  ")
			b.WriteString(fr.File)
			b.WriteString(":")
			b.WriteString(strconv.Itoa(fr.Line))
			i++
		}
		if !more || i >= maxFrames {
			break
		}
	}
	return b.String()
}

// Stdout returns the configured stdout sink.
func Stdout() io.Writer { return os.Stdout }

// Stderr returns the configured stderr sink.
func Stderr() io.Writer { return os.Stderr }
