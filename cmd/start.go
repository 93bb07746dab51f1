package cmd

import (
	"context"
	"sync"
	"time"

	"envnotify/config"
	"envnotify/core"
	"envnotify/logger"

	"github.com/spf13/cobra"
)

var (
	startServerPort string
	startProxyPort  string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the API server and the proxy together",
	Long: `Starts both the rule management API server and the banner-injecting proxy.
Press Ctrl+C to gracefully shut down all services.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		serverPort := resolvePort(cmd, "server-port", startServerPort, config.AppConfig.Server.Port, "8778")
		proxyPort := resolvePort(cmd, "proxy-port", startProxyPort, config.AppConfig.Proxy.Port, "8777")
		logger.Info("Start Command: Final ports determined - Server: %s, Proxy: %s", serverPort, proxyPort)

		ctx, cancel := context.WithCancel(cmdContext(cmd))
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := serveAPI(ctx, serverPort); err != nil {
				logger.Error("Start Command: API server stopped: %v", err)
				cancel()
			}
		}()
		go func() {
			defer wg.Done()
			err := core.StartNotifyProxy(ctx, proxyPort, config.AppConfig.Proxy.CACertPath, config.AppConfig.Proxy.CAKeyPath, ruleStore)
			if err != nil {
				logger.Error("Start Command: proxy stopped: %v", err)
				cancel()
			}
		}()

		logger.Info("Start Command: All services launched. Press Ctrl+C to exit.")
		<-ctx.Done()
		logger.Info("Start Command: Initiating shutdown...")

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			logger.Info("Start Command: All services shut down.")
		case <-time.After(10 * time.Second):
			logger.Error("Start Command: Shutdown timed out. Forcing exit.")
		}
	},
}

func init() {
	startCmd.Flags().StringVar(&startServerPort, "server-port", "8778", "Port for the API server (overrides config)")
	startCmd.Flags().StringVar(&startProxyPort, "proxy-port", "8777", "Port for the proxy server (overrides config)")
	rootCmd.AddCommand(startCmd)
}
