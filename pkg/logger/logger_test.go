package logger

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Re-initializing must be safe.
	if err := Init(); err != nil {
		t.Fatalf("failed to re-initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after re-initialization")
	}
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestLoggerFieldsAndRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	ctx := WithRequestID(context.Background(), "req-123")
	l.Info(ctx, "shared video rendered", String("share_id", "abc"), Int("status", 200))
	l.Warn(context.Background(), "upstream slow", Float64("ms", 12.5))
	l.Error(ctx, "upstream failed", Error(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	first := entries[0].ContextMap()
	if first["share_id"] != "abc" {
		t.Errorf("share_id field missing: %v", first)
	}
	if first["request_id"] != "req-123" {
		t.Errorf("request_id field missing: %v", first)
	}

	if _, ok := entries[1].ContextMap()["request_id"]; ok {
		t.Errorf("request_id should only be present when set on the context")
	}

	if entries[2].Level != zapcore.ErrorLevel {
		t.Errorf("expected error level, got %s", entries[2].Level)
	}
	if entries[2].ContextMap()["error"] != "boom" {
		t.Errorf("error field missing: %v", entries[2].ContextMap())
	}
}

func TestLoggerNamedPrefixesEntries(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(zap.New(core)).Named("site")

	l.Info(context.Background(), "page served")
	l.Debug(context.Background(), "dropped below level")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	if got := logs.All()[0].LoggerName; got != "site" {
		t.Errorf("expected logger name site, got %q", got)
	}
}

func TestRequestIDWithoutValue(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("expected empty request id, got %q", got)
	}
}

func TestSetLevelString(t *testing.T) {
	defer SetLevel(zapcore.InfoLevel)

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		" warn ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		if err := SetLevelString(in); err != nil {
			t.Fatalf("SetLevelString(%q) returned error: %v", in, err)
		}
		if Level() != want {
			t.Errorf("SetLevelString(%q): expected %s, got %s", in, want, Level())
		}
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
