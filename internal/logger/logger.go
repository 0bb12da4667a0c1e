package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"astro-analyze-app/internal/config"
)

// Setup グローバルロガーを設定
func Setup(cfg config.LogConfig) {
	SetupWithWriter(cfg, os.Stderr)
}

// SetupWithWriter 出力先を指定してグローバルロガーを設定
func SetupWithWriter(cfg config.LogConfig, out io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
}
