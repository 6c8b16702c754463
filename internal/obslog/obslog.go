package obslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu           sync.RWMutex
	globalLogger = zap.NewNop()
)

// L returns the process logger; a no-op logger until Init runs.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Options mirrors the LOG_* environment variables.
type Options struct {
	Level   string
	Format  string // legacy | json | console
	Console bool
	File    string // empty disables file output
	Caller  bool

	// Stdout replaces os.Stdout for console output.
	Stdout io.Writer
}

func OptionsFromEnv() Options {
	opts := Options{
		Level:   getenvDefault("LOG_LEVEL", "info"),
		Format:  getenvDefault("LOG_FORMAT", "json"),
		Console: strings.EqualFold(getenvDefault("LOG_TO_CONSOLE", "true"), "true"),
		Caller:  strings.EqualFold(getenvDefault("LOG_CALLER", "false"), "true"),
	}
	if strings.EqualFold(getenvDefault("LOG_TO_FILE", "false"), "true") {
		opts.File = strings.TrimSpace(getenvDefault("LOG_FILE", filepath.Join("logs", "chess-tutor.log")))
	}
	return opts
}

func InitFromEnv() error {
	_, err := Init(OptionsFromEnv())
	return err
}

// Init builds a logger from opts, installs it as L() and returns it.
func Init(opts Options) (*zap.Logger, error) {
	level := parseLevel(opts.Level)
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "legacy", "json", "console":
	default:
		format = "json"
	}

	var cores []zapcore.Core
	if opts.Console {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		cores = append(cores, zapcore.NewCore(encoderFor(format), zapcore.AddSync(out), level))
	}
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoderFor(format), zapcore.AddSync(f), level))
	}
	if len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(os.Stdout), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if opts.Caller || format == "legacy" {
		logger = logger.WithOptions(zap.AddCaller())
	}
	logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))

	mu.Lock()
	globalLogger = logger
	mu.Unlock()
	return logger, nil
}

// Sync flushes the global logger. Errors from syncing a terminal are ignored.
func Sync() {
	_ = L().Sync()
}

func encoderFor(format string) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig())
	default:
		return zapcore.NewConsoleEncoder(legacyEncoderConfig())
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		if strings.EqualFold(strings.TrimSpace(s), "warning") {
			return zapcore.WarnLevel
		}
		return zapcore.InfoLevel
	}
	return lvl
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func legacyEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
