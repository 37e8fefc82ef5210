package logger

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled logger shared by the todo service.
// - backed by zap (JSON in production, console when pretty)
// - provides Debug/Info/Warn/Error/Fatal variants and Init(level)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu      sync.RWMutex
	atom    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	pretty  bool
	base    = build(atom, false)
	sugared = base.Sugar()
)

func build(lvl zap.AtomicLevel, dev bool) *zap.Logger {
	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stdout"}
	l, err := cfg.Build(zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	atom.SetLevel(parseLevel(l))
}

// InitPretty switches between the console encoder (true) and JSON.
func InitPretty(on bool) {
	mu.Lock()
	defer mu.Unlock()
	if on == pretty {
		return
	}
	pretty = on
	setLocked(build(atom, on))
}

// SetLogger replaces the backing zap logger. Tests use it with an observer core.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	setLocked(l)
}

func setLocked(l *zap.Logger) {
	base = l
	sugared = l.Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugared
}

func parseLevel(l string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Enabled reports whether messages at l are written.
func Enabled(l Level) bool {
	return atom.Enabled(toZap(l))
}

func toZap(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func Debugf(format string, v ...interface{}) { current().Debugf(format, v...) }
func Infof(format string, v ...interface{})  { current().Infof(format, v...) }
func Warnf(format string, v ...interface{})  { current().Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { current().Errorf(format, v...) }
func Fatalf(format string, v ...interface{}) { current().Fatalf(format, v...) }

// Debug/Info/Warn/Error helpers that accept a message and structured fields
func Debug(msg string, fields ...zap.Field) { current().Desugar().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { current().Desugar().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { current().Desugar().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { current().Desugar().Error(msg, fields...) }

// Entry is a logger carrying a fixed set of fields.
type Entry struct {
	s *zap.SugaredLogger
}

// With returns an Entry that adds fields to every message.
func With(fields ...zap.Field) Entry {
	return Entry{s: current().Desugar().With(fields...).Sugar()}
}

func (e Entry) Debugf(format string, v ...interface{}) { e.s.Debugf(format, v...) }
func (e Entry) Infof(format string, v ...interface{})  { e.s.Infof(format, v...) }
func (e Entry) Warnf(format string, v ...interface{})  { e.s.Warnf(format, v...) }
func (e Entry) Errorf(format string, v ...interface{}) { e.s.Errorf(format, v...) }

// Sync flushes buffered entries; call before exit.
func Sync() error {
	return current().Sync()
}

// LevelString returns the current level as text.
func LevelString() string {
	switch atom.Level() {
	case zapcore.DebugLevel:
		return "debug"
	case zapcore.WarnLevel:
		return "warn"
	case zapcore.ErrorLevel:
		return "error"
	case zapcore.FatalLevel:
		return "fatal"
	}
	return "info"
}

// Field constructors re-exported from zap so callers need not import it.
func String(key, val string) zap.Field                 { return zap.String(key, val) }
func Int(key string, val int) zap.Field                { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field            { return zap.Int64(key, val) }
func Bool(key string, val bool) zap.Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }
func Err(err error) zap.Field                          { return zap.Error(err) }
