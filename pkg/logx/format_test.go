package logx

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderLine(t *testing.T) {
	t.Parallel()
	got := RenderLine([]byte(`{"level":"warn","timestamp":"2024-01-02T03:04:05.000Z","message":"disk low","free":12}` + "\n"))
	if got != "2024-01-02T03:04:05.000Z [warn]: disk low" {
		t.Fatalf("RenderLine() = %q", got)
	}
	if got := RenderLine([]byte("  not json \n")); got != "not json" {
		t.Fatalf("RenderLine(raw) = %q", got)
	}
}

func TestNewFormatWriter(t *testing.T) {
	t.Parallel()
	rec := []byte(`{"level":"info","timestamp":"2024-01-02T03:04:05.000Z","message":"ready","port":8080}` + "\n")

	var js bytes.Buffer
	if _, err := NewFormatWriter(&js, FormatJSON, true).Write(rec); err != nil {
		t.Fatalf("json write: %v", err)
	}
	if js.String() != string(rec) {
		t.Fatalf("json output = %q", js.String())
	}

	var line bytes.Buffer
	if _, err := NewFormatWriter(&line, FormatLine, true).Write(rec); err != nil {
		t.Fatalf("line write: %v", err)
	}
	if line.String() != "2024-01-02T03:04:05.000Z [info]: ready\n" {
		t.Fatalf("line output = %q", line.String())
	}

	var pretty bytes.Buffer
	if _, err := NewFormatWriter(&pretty, FormatPretty, true).Write(rec); err != nil {
		t.Fatalf("pretty write: %v", err)
	}
	if out := pretty.String(); !strings.Contains(out, "ready") || !strings.Contains(out, "port=8080") {
		t.Fatalf("pretty output = %q", out)
	}
}

func TestDecodeRecord(t *testing.T) {
	t.Parallel()
	m, err := DecodeRecord([]byte(`{"message":"x","n":42}`))
	if err != nil {
		t.Fatalf("DecodeRecord() error: %v", err)
	}
	if m["message"] != "x" || m["n"].(interface{ String() string }).String() != "42" {
		t.Fatalf("record = %v", m)
	}
	if _, err := DecodeRecord([]byte("nope")); err == nil {
		t.Fatalf("expected error for non-JSON input")
	}
}
