package logx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// NewFormatWriter renders engine JSON records written to it in format f.
// FormatJSON returns w unchanged.
func NewFormatWriter(w io.Writer, f Format, noColor bool) io.Writer {
	setupGlobals()
	switch f {
	case FormatLine:
		return &lineWriter{w: w}
	case FormatPretty:
		return newConsoleWriter(w, noColor)
	default:
		return w
	}
}

func newConsoleWriter(w io.Writer, noColor bool) io.Writer {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat, NoColor: noColor}
	// Keep caller short and stable.
	cw.FormatCaller = func(i interface{}) string {
		s, _ := i.(string)
		return s
	}
	return cw
}

type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) Write(p []byte) (int, error) {
	line := RenderLine(p)
	if line == "" {
		return len(p), nil
	}
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if _, err := io.WriteString(lw.w, line+"\n"); err != nil {
		return 0, err
	}
	return len(p), nil
}

// RenderLine renders one engine JSON record as "<timestamp> [<level>]: <message>".
// Input that is not JSON is returned trimmed.
func RenderLine(p []byte) string {
	setupGlobals()
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(p), &m); err != nil {
		return strings.TrimSpace(string(p))
	}
	ts, _ := m[zerolog.TimestampFieldName].(string)
	lvl, _ := m[zerolog.LevelFieldName].(string)
	msg, _ := m[zerolog.MessageFieldName].(string)
	return fmt.Sprintf("%s [%s]: %s", ts, lvl, msg)
}

// DecodeRecord decodes one engine JSON record. Outputs that need the
// structured form (tracker, shipper, journald) share it.
func DecodeRecord(p []byte) (map[string]any, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(p)))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}
