package sink

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"logfactory/pkg/logx"
)

// Console writes formatted records to stdout or stderr.
type Console struct {
	level logx.Level

	mu sync.Mutex
	w  io.Writer
}

// NewConsole builds the console output. Target "journald" sends records to
// the systemd journal and falls back to stdout when no journal is reachable.
func NewConsole(opts logx.ConsoleOptions) (logx.Output, error) {
	target := opts.Target
	if target == logx.TargetJournald {
		if opts.Out == nil && journal.Enabled() {
			return &Journald{level: opts.Level}, nil
		}
		if opts.Out == nil {
			fmt.Fprintln(logx.Stderr(), "sink: journald not available; console falls back to stdout")
		}
		target = logx.TargetStdout
	}

	out := opts.Out
	if out == nil {
		out = logx.Stdout()
		if target == logx.TargetStderr {
			out = logx.Stderr()
		}
	}
	noColor := opts.NoColor || !isTerminal(out)
	return &Console{level: opts.Level, w: logx.NewFormatWriter(out, opts.Format, noColor)}, nil
}

func (c *Console) Name() string      { return "console" }
func (c *Console) Level() logx.Level { return c.level }

func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

func (c *Console) WriteLevel(_ zerolog.Level, p []byte) (int, error) {
	return c.Write(p)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ---- journald ----

// Journald sends each record to the systemd journal with the message as
// MESSAGE and the remaining fields as upper-cased journal variables.
type Journald struct {
	level logx.Level
}

func (j *Journald) Name() string      { return "journald" }
func (j *Journald) Level() logx.Level { return j.level }

func (j *Journald) Write(p []byte) (int, error) {
	// Default to info when WriteLevel isn't used.
	return j.WriteLevel(zerolog.InfoLevel, p)
}

func (j *Journald) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	msg, vars := journalEntry(p)
	if msg == "" && len(vars) == 0 {
		return len(p), nil
	}
	// Journal failures must not break logging.
	_ = journal.Send(msg, journalPriority(level), vars)
	return len(p), nil
}

func journalEntry(p []byte) (string, map[string]string) {
	rec, err := logx.DecodeRecord(p)
	if err != nil {
		return strings.TrimSpace(string(p)), nil
	}
	msg, _ := rec[zerolog.MessageFieldName].(string)
	vars := make(map[string]string, len(rec))
	for k, v := range rec {
		if k == zerolog.MessageFieldName || k == zerolog.LevelFieldName {
			continue
		}
		key := journalKey(k)
		if key == "" {
			continue
		}
		vars[key] = truncate(fmt.Sprint(v), 8192)
	}
	return msg, vars
}

// journalKey maps a record key to a valid journal variable name
// ([A-Z0-9_], not starting with an underscore or a digit).
func journalKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(k) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := strings.TrimLeft(b.String(), "_")
	if s == "" {
		return ""
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "F_" + s
	}
	return s
}

func journalPriority(level zerolog.Level) journal.Priority {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return journal.PriDebug
	case zerolog.WarnLevel:
		return journal.PriWarning
	case zerolog.ErrorLevel:
		return journal.PriErr
	case zerolog.FatalLevel:
		return journal.PriCrit
	case zerolog.PanicLevel:
		return journal.PriEmerg
	default:
		return journal.PriInfo
	}
}
