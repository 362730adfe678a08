package pkg

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a console logger on stdout and, when cfg.FilePath is
// set, tees every entry into a JSON file as well.
func NewZapLogger(cfg config.LoggerConfig) (*ZapLogger, error) {

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		log.Printf("Invalid log level %q: %v. Falling back to default level: Info", cfg.Level, err)
		level = zapcore.InfoLevel
	}

	baseEncoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	consoleCfg := baseEncoderCfg
	consoleCfg.ConsoleSeparator = " | "
	if cfg.Production {
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	consoleEncoder := zapcore.NewConsoleEncoder(consoleCfg)
	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		fileCfg := baseEncoderCfg
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(file), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))

	return &ZapLogger{sugar: logger.Sugar()}, nil
}

// NewNop returns a logger that drops everything. Used by tests.
func NewNop() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

// NewFromCore wraps an arbitrary zap core, e.g. an observer in tests.
func NewFromCore(core zapcore.Core) *ZapLogger {
	return &ZapLogger{sugar: zap.New(core).Sugar()}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) WithPackage(name string) Logger {
	return &ZapLogger{sugar: l.sugar.With("package", name)}
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
