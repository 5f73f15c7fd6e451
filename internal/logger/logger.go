package logger

import (
  "fmt"

  "go.uber.org/zap"
  "go.uber.org/zap/zapcore"
)

// Logger wraps a zap.SugaredLogger so the rest of the codebase never
// imports zap directly.
type Logger struct {
  sugar *zap.SugaredLogger
}

// New builds a Logger for the given mode ("development" or "production").
// Development mode logs at Debug with console encoding, production at Info
// with JSON encoding.
func New(mode string) (*Logger, error) {
  var cfg zap.Config
  switch mode {
  case "production":
    cfg = zap.NewProductionConfig()
  case "development", "":
    cfg = zap.NewDevelopmentConfig()
    cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
  default:
    return nil, fmt.Errorf("unknown log mode %q", mode)
  }
  base, err := cfg.Build(zap.AddCallerSkip(1))
  if err != nil {
    return nil, fmt.Errorf("build zap logger: %w", err)
  }
  return &Logger{sugar: base.Sugar()}, nil
}

// NewNop returns a Logger that discards everything. Used by tests.
func NewNop() *Logger {
  return &Logger{sugar: zap.NewNop().Sugar()}
}

// With returns a child Logger with the given key/value pairs attached to
// every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
  return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
  l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
  l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
  l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
  l.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes buffered entries. Call it on shutdown.
func (l *Logger) Sync() {
  _ = l.sugar.Sync()
}
