package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"logfactory/internal/config"
	"logfactory/internal/sink"
	"logfactory/pkg/logx"
)

func newRunCommand(configPath *string) *cobra.Command {
	var (
		levelFlag string
		fieldFlag []string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log every stdin line at the given level",
		Long: "Reads stdin line by line and logs each line through the outputs described by the\n" +
			"config file. At error level every line is logged as an error value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			level, err := logx.ParseLevel(levelFlag, logx.LevelInfo)
			if err != nil {
				return err
			}
			meta, err := parseFields(fieldFlag)
			if err != nil {
				return err
			}

			mgr := config.NewManager(*configPath)
			cfg, err := mgr.Load(ctx)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			svc, log, err := logx.NewService(logx.NewFactory(sink.Defaults()), *cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			if watch {
				watchCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				mgr.SetLogger(log.With(logx.String("comp", "config")))
				updates := mgr.Subscribe(1)
				defer mgr.Unsubscribe(updates)
				go func() { _ = mgr.Watch(watchCtx) }()
				go applyUpdates(watchCtx, updates, svc, log)
			}

			return pipe(ctx, cmd.InOrStdin(), log, level, meta)
		},
	}

	cmd.Flags().StringVarP(&levelFlag, "level", "l", "info", "Level for every line (trace, debug, info, warn, error)")
	cmd.Flags().StringArrayVarP(&fieldFlag, "field", "f", nil, "Metadata attached to every line, as key=value (repeatable)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the config file when it changes")
	return cmd
}

// pipe logs each non-empty line of r until r is exhausted or ctx ends.
func pipe(ctx context.Context, r io.Reader, log logx.Logger, level logx.Level, meta logx.Fields) error {
	fields := make([]logx.Field, 0, len(meta))
	for k, v := range meta {
		fields = append(fields, logx.Any(k, v))
	}
	withMeta := log.With(fields...)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch level {
		case logx.LevelTrace:
			withMeta.Trace(line)
		case logx.LevelDebug:
			withMeta.Debug(line)
		case logx.LevelWarn:
			withMeta.Warn(line)
		case logx.LevelError:
			_ = log.Error(errors.New(line), meta)
		default:
			withMeta.Info(line)
		}
	}
	return sc.Err()
}

func applyUpdates(ctx context.Context, updates <-chan *logx.Config, svc *logx.Service, log logx.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			prev := svc.Config()
			changed, fields := config.SummarizeConfigChange(&prev, cfg)
			if err := svc.Apply(*cfg); err != nil {
				log.Warn("logging config not applied", logx.Err(err))
				continue
			}
			log.Info("logging config applied", append(fields, logx.String("changed", strings.Join(changed, ",")))...)
		}
	}
}

func parseFields(raw []string) (logx.Fields, error) {
	out := make(logx.Fields, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --field %q: want key=value", kv)
		}
		out[k] = v
	}
	return out, nil
}
