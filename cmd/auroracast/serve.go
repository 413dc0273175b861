package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"auroracast/internal/server"
	"auroracast/internal/store"
)

var servePort int

// serveCmd runs the REST API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the auroracast HTTP API",
	Long: `Serves the forecast, photo analysis, chat, and report history
operations over REST. The API runs against the same capability as the
CLI, so it works without an API key too (in demo mode).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default: configured server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var archive *store.Archive
	if !cfg.Store.Disabled {
		var err error
		archive, err = store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open report archive: %w", err)
		}
		defer archive.Close()
	} else {
		logger.Info("report archive disabled, history endpoints will answer 503")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting auroracast API",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)),
		zap.Bool("demo", !capability.Live()),
	)

	srv := server.New(cfg, capability, archive, logger)
	return srv.Run(ctx)
}
