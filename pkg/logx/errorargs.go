package logx

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
)

// MessageSeparator joins the error message and the extra messages passed to
// Logger.Error. Extra messages are joined with a comma.
const MessageSeparator = " :: "

// ErrorEntry is the classified form of the arguments passed to Logger.Error.
type ErrorEntry struct {
	// Err is the last error argument, nil when none was passed.
	Err      error
	Messages []string
	// Meta is the shallow merge of every map/struct argument; later keys win.
	Meta   map[string]any
	Fields []Field
}

// NormalizeErrorArgs classifies args: errors fill the single error slot
// (last one wins), strings are collected in order, string-keyed maps and
// structs are merged into Meta, Fields are kept in order. Anything else
// (numbers, bools, nil, slices) is dropped.
func NormalizeErrorArgs(args ...any) ErrorEntry {
	ent := ErrorEntry{Meta: map[string]any{}}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case error:
			if !isNilError(v) {
				ent.Err = v
			}
		case string:
			ent.Messages = append(ent.Messages, v)
		case Field:
			if v != nil {
				ent.Fields = append(ent.Fields, v)
			}
		case Fields:
			for k, val := range v {
				ent.Meta[k] = val
			}
		case map[string]any:
			for k, val := range v {
				ent.Meta[k] = val
			}
		default:
			if m, ok := objectFields(v); ok {
				for k, val := range m {
					ent.Meta[k] = val
				}
			}
		}
	}
	return ent
}

// Annotated returns Err with the collected messages appended to its text.
// Without messages Err is returned unchanged. The result wraps Err, so
// errors.Is and errors.As still see the original.
func (e ErrorEntry) Annotated() error {
	if e.Err == nil || len(e.Messages) == 0 {
		return e.Err
	}
	return &annotatedError{
		cause: e.Err,
		msg:   e.Err.Error() + MessageSeparator + strings.Join(e.Messages, ","),
	}
}

type annotatedError struct {
	cause error
	msg   string
}

func (e *annotatedError) Error() string { return e.msg }
func (e *annotatedError) Unwrap() error { return e.cause }

// Error logs at error level.
//
// With an error among args, a single record is emitted whose message is the
// error text followed by " :: " and the comma-joined strings, carrying the
// merged metadata and a "stack" field. The annotated error is returned; the
// caller's error value is never modified.
//
// Without an error, args are forwarded as given: a leading string becomes
// the message and the rest is attached under "args". Nothing is logged for
// an empty call.
func (l Logger) Error(args ...any) error {
	if len(args) == 0 {
		return nil
	}
	ent := NormalizeErrorArgs(args...)
	if ent.Err == nil {
		l.emitRaw(args)
		return nil
	}
	err := ent.Annotated()
	l.emitError(err, ent, errorStack(ent.Err, 4))
	return err
}

func (l Logger) emitError(err error, ent ErrorEntry, stack string) {
	e, c := l.event(zerolog.ErrorLevel)
	if e == nil {
		return
	}
	e.Err(err)
	applyMeta(e, c.metaKey, ent.Meta)
	applyFields(e, ent.Fields)
	if stack != "" {
		e.Str("stack", stack)
	}
	e.Msg(err.Error())
}

func (l Logger) emitRaw(args []any) {
	e, _ := l.event(zerolog.ErrorLevel)
	if e == nil {
		return
	}
	msg := ""
	rest := args
	if s, ok := args[0].(string); ok {
		msg = s
		rest = args[1:]
	}
	// Fields cannot be serialized; apply them instead of listing them.
	plain := make([]any, 0, len(rest))
	for _, a := range rest {
		if f, ok := a.(Field); ok {
			if f != nil {
				f(e)
			}
			continue
		}
		plain = append(plain, a)
	}
	if len(plain) > 0 {
		e.Interface("args", plain)
	}
	e.Msg(msg)
}

func applyMeta(e *zerolog.Event, key string, meta map[string]any) {
	if len(meta) == 0 {
		return
	}
	if key != "" {
		e.Dict(key, zerolog.Dict().Fields(meta))
		return
	}
	// Record keys written by the logger itself win over metadata.
	cp := make(map[string]any, len(meta))
	for k, v := range meta {
		if !reservedKey(k) {
			cp[k] = v
		}
	}
	if len(cp) > 0 {
		e.Fields(cp)
	}
}

func reservedKey(k string) bool {
	switch k {
	case "stack",
		zerolog.LevelFieldName,
		zerolog.MessageFieldName,
		zerolog.ErrorFieldName,
		zerolog.CallerFieldName,
		zerolog.TimestampFieldName:
		return true
	}
	return false
}

// isNilError reports a typed nil, e.g. a (*MyErr)(nil) stored in an error.
func isNilError(err error) bool {
	if err == nil {
		return true
	}
	rv := reflect.ValueOf(err)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

type stacker interface {
	Stack() string
}

// errorStack prefers a stack carried by the error chain and falls back to
// the stack of the logging call site.
func errorStack(err error, skip int) string {
	var s stacker
	if errors.As(err, &s) {
		if st := s.Stack(); strings.TrimSpace(st) != "" {
			return st
		}
	}
	return stackTrace(skip, 32)
}

// objectFields returns the top-level fields of a string-keyed map or a
// struct (through any number of pointers).
func objectFields(v any) (map[string]any, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, true
	case reflect.Struct:
		b, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, false
		}
		var out map[string]any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}
