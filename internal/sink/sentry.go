package sink

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"logfactory/pkg/logx"
)

// Sentry reports records at or above its level as Sentry events.
type Sentry struct {
	hub     *sentry.Hub
	level   logx.Level
	limiter *rate.Limiter
}

// NewSentry builds the error-tracking output.
func NewSentry(opts logx.TrackerOptions) (logx.Output, error) {
	s, err := newSentry(opts, nil)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SentryWith returns a tracker constructor that lets mod adjust the client
// options (transport, BeforeSend hooks, integrations) before the client is
// created.
func SentryWith(mod func(*sentry.ClientOptions)) func(logx.TrackerOptions) (logx.Output, error) {
	return func(opts logx.TrackerOptions) (logx.Output, error) {
		s, err := newSentry(opts, mod)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func newSentry(opts logx.TrackerOptions, mod func(*sentry.ClientOptions)) (*Sentry, error) {
	co := sentry.ClientOptions{
		Dsn:         opts.DSN,
		SampleRate:  opts.SampleRate,
		Environment: opts.Environment,
		Release:     opts.Release,
	}
	if mod != nil {
		mod(&co)
	}
	client, err := sentry.NewClient(co)
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	s := &Sentry{
		hub:   sentry.NewHub(client, sentry.NewScope()),
		level: opts.Level,
	}
	if opts.RatePerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.RatePerSec)
	}
	return s, nil
}

func (s *Sentry) Name() string      { return "sentry" }
func (s *Sentry) Level() logx.Level { return s.level }

func (s *Sentry) Write(p []byte) (int, error) {
	// Default to info when WriteLevel isn't used.
	return s.WriteLevel(zerolog.InfoLevel, p)
}

func (s *Sentry) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < s.level {
		return len(p), nil
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return len(p), nil
	}
	rec, err := logx.DecodeRecord(p)
	if err != nil {
		return len(p), nil
	}
	s.hub.CaptureEvent(eventFromRecord(level, rec))
	return len(p), nil
}

func (s *Sentry) Flush(timeout time.Duration) bool { return s.hub.Flush(timeout) }

func (s *Sentry) Close() error {
	s.hub.Flush(2 * time.Second)
	return nil
}

func eventFromRecord(level zerolog.Level, rec map[string]any) *sentry.Event {
	ev := sentry.NewEvent()
	ev.Level = sentryLevel(level)
	ev.Logger = "logx"
	ev.Message, _ = rec[zerolog.MessageFieldName].(string)

	if errText, _ := rec[zerolog.ErrorFieldName].(string); errText != "" {
		ev.Exception = []sentry.Exception{{Type: "error", Value: errText}}
	}

	ev.Extra = make(map[string]interface{}, len(rec))
	for k, v := range rec {
		switch k {
		case zerolog.MessageFieldName, zerolog.ErrorFieldName, zerolog.LevelFieldName:
			continue
		}
		ev.Extra[k] = v
	}
	return ev
}

func sentryLevel(level zerolog.Level) sentry.Level {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return sentry.LevelDebug
	case zerolog.InfoLevel, zerolog.NoLevel:
		return sentry.LevelInfo
	case zerolog.WarnLevel:
		return sentry.LevelWarning
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return sentry.LevelFatal
	default:
		return sentry.LevelError
	}
}
