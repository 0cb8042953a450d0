// Package logx builds the structured loggers used across logfactory.
//
// A Factory turns a Config into a Logger by assembling outputs from a
// caller-supplied constructor set:
//   - Console output (always present; json, line or pretty formatting)
//   - Error-tracking output (Sentry; error level only, sampled)
//   - Log-shipping output (JSON lines enriched with application/pid/time)
//   - Rotating file output (optional)
//
// Logger.Error accepts an error, free-text strings and metadata in any order
// and folds them into a single error record. A Service keeps a root Logger
// live across configuration reloads.
package logx
