package service

import (
	"log/slog"
	"os"

	"go.uber.org/fx"

	"github.com/webwatch/platform/pkg/variables"
)

var loggerWriter = os.Stdout

func logger() *slog.Logger {
	level := slog.LevelInfo
	if variables.Env(variables.DEBUG_NAME, variables.DEBUG_DEFAULT) == "true" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(loggerWriter, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	}))
}

var LoggerModule = fx.Module("logger", fx.Provide(
	logger,
))
