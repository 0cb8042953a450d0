package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ShipTimeLayout renders the shipped "time" field (YYYY-MM-DD HH:mm:ss.SSS Z).
const ShipTimeLayout = "2006-01-02 15:04:05.000 -07:00"

// Augmenter stamps shipped records with the application name, process id
// and a UTC wall-clock time.
type Augmenter struct {
	Application string
	Now         func() time.Time
	PID         func() int
}

// Augment overwrites application, pid and time on rec and adds a timestamp
// when the engine did not set one.
func (a Augmenter) Augment(rec map[string]any) {
	if rec == nil {
		return
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	pid := os.Getpid
	if a.PID != nil {
		pid = a.PID
	}
	app := a.Application
	if app == "" {
		app = DefaultApplication
	}

	t := now().UTC()
	rec["application"] = app
	rec["pid"] = pid()
	rec["time"] = t.Format(ShipTimeLayout)
	if _, ok := rec[zerolog.TimestampFieldName]; !ok {
		rec[zerolog.TimestampFieldName] = t.Format(consoleTimeFormat)
	}
}
