package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"envnotify/api"
	"envnotify/config"
	"envnotify/logger"

	"github.com/spf13/cobra"
)

var standaloneServerPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the rule management API server (can be run standalone or as part of 'start')",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := resolvePort(cmd, "port", standaloneServerPort, config.AppConfig.Server.Port, "8778")
		return serveAPI(cmdContext(cmd), port)
	},
}

// resolvePort picks flag > config > fallback.
func resolvePort(cmd *cobra.Command, flagName, flagValue, configValue, fallback string) string {
	port := configValue
	if cmd.Flags().Changed(flagName) {
		port = flagValue
		logger.Debug("Using --%s from flag: %s", flagName, port)
	}
	if port == "" {
		logger.Error("Port for --%s is empty after checking flag and config, defaulting to %s", flagName, fallback)
		port = fallback
	}
	return port
}

// serveAPI serves the API under /api until ctx is cancelled.
func serveAPI(ctx context.Context, port string) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewServerMux(editor),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("API server: shutdown signal received...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("API server: graceful shutdown failed: %v", err)
		}
	}()

	logger.Info("API server listening on :%s", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("API server: ListenAndServe error: %v", err)
		return fmt.Errorf("api server on :%s: %w", port, err)
	}
	logger.Info("API server on :%s stopped", port)
	return nil
}

func init() {
	serverCmd.Flags().StringVarP(&standaloneServerPort, "port", "p", "8778", "Port for the server to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
