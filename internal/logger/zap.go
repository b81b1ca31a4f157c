package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// toZapLevel accepts any zap level name in any case. Unknown names fall back to info.
func toZapLevel(levelStr string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(levelStr))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// newSplitCore writes entries below warn to stdout and the rest to stderr.
func newSplitCore(minLevel zapcore.Level, stdout, stderr zapcore.WriteSyncer) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(cfg)

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= minLevel && l < zapcore.WarnLevel })
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= minLevel && l >= zapcore.WarnLevel })
	return zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(stdout), low),
		zapcore.NewCore(enc, zapcore.Lock(stderr), high),
	)
}

func newZapLogger(levelStr string) *Logger {
	core := newSplitCore(toZapLevel(levelStr), zapcore.AddSync(os.Stdout), zapcore.AddSync(os.Stderr))
	return &Logger{SugaredLogger: zap.New(core, zap.AddCaller()).Sugar()}
}
