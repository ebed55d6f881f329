// Package cli implements the caremem command line interface.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/homecare-labs/caremem-go/pkg/utils/logging"
)

// Run executes the caremem CLI with the given arguments.
func Run(ctx context.Context, args []string, version string) error {
	var logLevel string
	var logJSON bool

	app := &cli.Command{
		Name:    "caremem",
		Usage:   "Patient memory service for homecare teams",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "info",
				Sources:     cli.EnvVars("CAREMEM_LOG_LEVEL"),
				Destination: &logLevel,
			},
			&cli.BoolFlag{
				Name:        "log-json",
				Usage:       "Emit logs as JSON",
				Sources:     cli.EnvVars("CAREMEM_LOG_JSON"),
				Destination: &logJSON,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logging.Configure(os.Stderr, parseLevel(logLevel), logJSON)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
