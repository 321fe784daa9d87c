package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type Config struct {
	Level  string
	Format string
	Module string
}

// Setup 建立 logger 並設定為全域 log.Logger
func Setup(cfg Config) zerolog.Logger {
	return SetupWithWriter(cfg, os.Stdout)
}

func SetupWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	}

	ctx := zerolog.New(w).With().Timestamp()
	if cfg.Module != "" {
		ctx = ctx.Str("module", cfg.Module)
	}
	l := ctx.Logger()
	log.Logger = l
	return l
}
