// Package sink provides the default output constructors for logx.Factory:
//   - Console (stdout, stderr or journald)
//   - Sentry (error tracking, sampled and rate limited)
//   - Logstash (JSON lines over TCP/UDP, non-blocking)
//   - File (rotating, via lumberjack)
package sink
