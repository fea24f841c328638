package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, Format: FormatJSON})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithSessionID(ctx, "sess-9")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-123"`)) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"session_id":"sess-9"`)) {
		t.Fatalf("expected session_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true, Format: FormatJSON})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack when warn stack enabled")
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf, Format: FormatJSON})
	quiet.Warn(context.Background(), "warny")
	if bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected no stack when warn stack disabled")
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: buf, Format: FormatJSON})
	log.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug entry should be filtered at info level; entry=%s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestStaticFieldsAndContextIsolation(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{
		ServiceName: "api",
		Output:      buf,
		Format:      FormatJSON,
		Static:      map[string]any{"env": "test"},
	})

	base := context.Background()
	withStep := log.WithField(base, "step", "payment")
	log.Info(withStep, "first")
	log.Info(base, "second")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected two entries, got %d: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !bytes.Contains(line, []byte(`"env":"test"`)) || !bytes.Contains(line, []byte(`"service":"api"`)) {
			t.Fatalf("static fields missing from %s", line)
		}
	}
	if !bytes.Contains(lines[0], []byte(`"step":"payment"`)) {
		t.Fatalf("context field missing from %s", lines[0])
	}
	if bytes.Contains(lines[1], []byte(`"step"`)) {
		t.Fatalf("context field leaked into parent context: %s", lines[1])
	}
}

func TestNopLoggerAcceptsNilContext(t *testing.T) {
	log := Nop()
	ctx := log.WithField(nil, "k", "v")
	if ctx == nil {
		t.Fatal("expected a context back")
	}
	log.Error(ctx, "ignored", errors.New("x"))
}
