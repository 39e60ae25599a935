package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is a no-op until InitLogger is called
var Log = zap.NewNop().Sugar()

// InitLogger init logger, level falls back to info when it can not be parsed
func InitLogger(level string) {
	minLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		minLevel = zapcore.InfoLevel
	}

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel && lvl >= minLevel
	})
	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl < zapcore.ErrorLevel && lvl >= minLevel
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), highPriority),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), lowPriority),
	)

	logger := zap.New(core, zap.AddCaller())
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	Log = zap.S()
}
