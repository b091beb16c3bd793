// Package logger provides a simple, clean logging interface.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Constants for logging operations.
const (
	callerSkipFrames = 1 // Skip the zapLogger method so "caller" points at the real call site
	requestIDKey     = "request_id"
)

// Logger defines the logging interface.
type Logger interface {
	// Context-aware variants
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field = zap.Field

// Field constructors.
func String(key, val string) Field          { return zap.String(key, val) }
func Int(key string, val int) Field         { return zap.Int(key, val) }
func Float64(key string, val float64) Field { return zap.Float64(key, val) }
func Bool(key string, val bool) Field       { return zap.Bool(key, val) }
func Any(key string, val interface{}) Field { return zap.Any(key, val) }
func Error(err error) Field                 { return zap.Error(err) }

// zapLogger implements Logger on top of a zap core.
type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.z.Info(msg, withContext(ctx, fields)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.z.Error(msg, withContext(ctx, fields)...)
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.z.Debug(msg, withContext(ctx, fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.z.Warn(msg, withContext(ctx, fields)...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.z.Fatal(msg, withContext(ctx, fields)...)
}

// withContext appends context-scoped fields (currently the request id).
func withContext(ctx context.Context, fields []Field) []Field {
	if ctx == nil {
		return fields
	}
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String(requestIDKey, id))
	}
	return fields
}

type ctxKey struct{}

// WithRequestID returns a child context carrying the request id that every
// log entry made with it will include.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID extracts the request id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

var (
	mu       sync.RWMutex
	global   Logger
	base     *zap.Logger
	levelVar = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init initializes the global logger. Output is JSON unless stdout is a
// terminal, in which case the console encoder is used.
func Init() error {
	encoding := "json"
	if isatty.IsTerminal(os.Stdout.Fd()) {
		encoding = "console"
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            levelVar,
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	z, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(callerSkipFrames))
	if err != nil {
		return fmt.Errorf("build zap logger: %w", err)
	}
	setGlobal(z)
	return nil
}

// New wraps an existing zap logger. Mostly useful in tests together with
// zaptest/observer.
func New(z *zap.Logger) Logger {
	return &zapLogger{z: z.WithOptions(zap.AddCallerSkip(callerSkipFrames))}
}

func setGlobal(z *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = z
	global = &zapLogger{z: z}
}

// Get returns the global logger.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		// The logger should be explicitly initialized by the application
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named creates a named logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	z := base
	mu.RUnlock()
	if z == nil {
		return nil
	}
	if err := z.Sync(); err != nil && !isIgnorableSyncError(err) {
		return err
	}
	return nil
}

// Syncing stdout fails with EINVAL/ENOTTY on terminals and pipes.
func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}

// SetLevel updates the current logging level for the global logger.
func SetLevel(level zapcore.Level) { levelVar.SetLevel(level) }

// Level returns the current global level.
func Level() zapcore.Level { return levelVar.Level() }

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(zapcore.DebugLevel)
	case "", "info":
		SetLevel(zapcore.InfoLevel)
	case "warn", "warning":
		SetLevel(zapcore.WarnLevel)
	case "error":
		SetLevel(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
