package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	timeKey   = "time"
	levelKey  = "level"
	sourceKey = "source"
	msgKey    = "msg"
)

var sugarLogger *zap.SugaredLogger

// getLogPath returns the log file path, honouring LOG_DIR when set.
func getLogPath() string {
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}
	return filepath.Join(logDir, "grader.log")
}

func initializeLogger() {
	logPath := getLogPath()

	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		logPath = "grader.log"
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50,
		MaxBackups: 10,
		MaxAge:     28,
		Compress:   true,
		LocalTime:  true,
	})

	stdWriter := zapcore.AddSync(os.Stdout)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        timeKey,
		LevelKey:       levelKey,
		NameKey:        sourceKey,
		MessageKey:     msgKey,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		w,
		zap.InfoLevel,
	)

	stdCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		stdWriter,
		zap.InfoLevel,
	)

	core := zapcore.NewTee(fileCore, stdCore)

	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	sugarLogger = log.Sugar()
}

// InitializeLogger sets up the shared logger. Safe to call more than once.
func InitializeLogger() {
	if sugarLogger == nil {
		initializeLogger()
	}
}

// NewNamedLogger creates a new named SugaredLogger for a given component.
func NewNamedLogger(name string) *zap.SugaredLogger {
	if sugarLogger == nil {
		initializeLogger()
	}
	return sugarLogger.Named(name)
}
