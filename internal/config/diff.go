package config

import (
	"strings"

	"logfactory/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact list of changed sections and
// (2) safe structured fields for logging. The Sentry DSN is never included.
func SummarizeConfigChange(oldCfg, newCfg *logx.Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &logx.Config{}
	}
	if newCfg == nil {
		newCfg = &logx.Config{}
	}

	changed := make([]string, 0, 5)
	fields := make([]logx.Field, 0, 16)

	// Sentry (never log the DSN)
	prev, next := oldCfg.Sentry, newCfg.Sentry
	if prev.Enabled != next.Enabled ||
		strings.TrimSpace(prev.DSN) != strings.TrimSpace(next.DSN) ||
		prev.Level != next.Level ||
		prev.SampleRate != next.SampleRate ||
		prev.Environment != next.Environment ||
		prev.Release != next.Release ||
		prev.RatePerSec != next.RatePerSec {
		changed = append(changed, "sentry")
		fields = append(fields,
			logx.Bool("sentry.enabled", next.Enabled),
			logx.Bool("sentry.dsn_set", strings.TrimSpace(next.DSN) != ""),
			logx.String("sentry.level", next.Level),
			logx.Float64("sentry.sample_rate", next.SampleRate),
		)
	}

	// Logstash
	ol, nl := derefLogstash(oldCfg.Logstash), derefLogstash(newCfg.Logstash)
	if ol != nl {
		changed = append(changed, "logstash")
		fields = append(fields,
			logx.Bool("logstash.enabled", nl.Enabled),
			logx.String("logstash.host", nl.Host),
			logx.Int("logstash.port", nl.Port),
			logx.String("logstash.level", nl.Level),
		)
	}

	// File
	of, nf := derefFile(oldCfg.File), derefFile(newCfg.File)
	if of != nf {
		changed = append(changed, "file")
		fields = append(fields,
			logx.Bool("file.enabled", nf.Enabled),
			logx.String("file.path", nf.Path),
		)
	}

	// Console / formatting
	if oldCfg.Console != newCfg.Console ||
		oldCfg.Format != newCfg.Format ||
		oldCfg.MetadataKey != newCfg.MetadataKey {
		changed = append(changed, "console")
		fields = append(fields,
			logx.String("console.target", newCfg.Console.Target),
			logx.String("format", string(newCfg.Format)),
		)
	}

	return changed, fields
}

func derefLogstash(c *logx.LogstashConfig) logx.LogstashConfig {
	if c == nil {
		return logx.LogstashConfig{}
	}
	return *c
}

func derefFile(c *logx.FileConfig) logx.FileConfig {
	if c == nil {
		return logx.FileConfig{}
	}
	return *c
}
