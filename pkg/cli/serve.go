package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/homecare-labs/caremem-go/pkg/api"
	"github.com/homecare-labs/caremem-go/pkg/core"
	"github.com/homecare-labs/caremem-go/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var configPath string

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "HTTP server address",
				Sources:     cli.EnvVars("CAREMEM_ADDR"),
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to a JSON configuration file (defaults to environment variables)",
				Sources:     cli.EnvVars("CAREMEM_CONFIG"),
				Destination: &configPath,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var config *core.Config
			var err error
			if configPath != "" {
				config, err = core.LoadConfigFromJSON(configPath)
			} else {
				config, err = core.LoadConfigFromEnv()
			}
			if err != nil {
				return err
			}

			if addr == "" {
				addr = config.Server.Addr
			}
			if addr == "" {
				addr = ":8080"
			}

			manager, err := core.NewClient(config)
			if err != nil {
				return err
			}
			defer func() {
				if err := manager.Close(); err != nil {
					logging.Default().Error("failed to close manager", "error", err.Error())
				}
			}()

			server := &http.Server{
				Addr:              addr,
				Handler:           api.New(manager),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "record_store", config.RecordStore.Provider)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return err
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
