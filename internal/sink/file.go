package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"logfactory/pkg/logx"
)

// File appends JSON records to a size-rotated file.
type File struct {
	level logx.Level
	lj    *lumberjack.Logger

	mu     sync.Mutex
	closed bool
}

func NewFile(opts logx.FileOptions) (logx.Output, error) {
	path := opts.Path
	if path == "" {
		path = logx.DefaultFilePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &File{
		level: opts.Level,
		lj: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		},
	}, nil
}

func (f *File) Name() string      { return "file" }
func (f *File) Level() logx.Level { return f.level }

// Write drops records once the output is closed; lumberjack would otherwise
// reopen the file.
func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return len(p), nil
	}
	return f.lj.Write(p)
}

func (f *File) WriteLevel(_ zerolog.Level, p []byte) (int, error) { return f.Write(p) }

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.lj.Close()
}
