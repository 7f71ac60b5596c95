package logging

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/saltyorg/tablekit/internal/config"
)

const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

const timeFormat = "2006-01-02 15:04:05"

// Apply sets the global log level and output writers. Console output always
// goes to stderr so command output on stdout stays machine readable; a
// rotating file is added when cfg.File is set.
func Apply(cfg config.LogConfig, verbosity int) {
	applyLevel(LevelFor(cfg.Level, verbosity))
	applyOutputs(cfg)
}

// LevelFor resolves the effective level: -v and -vv win over the configured level.
func LevelFor(level string, verbosity int) string {
	switch {
	case verbosity >= 2:
		return "trace"
	case verbosity == 1:
		return "debug"
	}
	return level
}

func applyLevel(level string) {
	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func applyOutputs(cfg config.LogConfig) {
	consoleOutput := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: timeFormat}
	log.Logger = zerolog.New(consoleOutput).With().Timestamp().Logger()

	if cfg.File == "" {
		return
	}

	if err := ensureLogDir(cfg.File); err != nil {
		log.Error().Err(err).Str("path", cfg.File).Msg("Failed to prepare log directory; logging to console only")
		return
	}

	maxSize := DefaultMaxSizeMB
	if cfg.MaxSizeMB > 0 {
		maxSize = cfg.MaxSizeMB
	}
	maxBackups := DefaultMaxBackups
	if cfg.MaxBackups >= 0 {
		maxBackups = cfg.MaxBackups
	}
	maxAgeDays := DefaultMaxAgeDays
	if cfg.MaxAgeDays >= 0 {
		maxAgeDays = cfg.MaxAgeDays
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   cfg.Compress,
	}

	fileConsole := zerolog.ConsoleWriter{
		Out:        fileWriter,
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	multi := zerolog.MultiLevelWriter(consoleOutput, fileConsole)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
