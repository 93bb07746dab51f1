package cmd

import (
	"fmt"

	"envnotify/config"
	"envnotify/core"
	"envnotify/logger"

	"github.com/spf13/cobra"
)

var standaloneProxyPort string

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Manages the banner-injecting proxy (can be run standalone or as part of 'start')",
}

var proxyStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the banner-injecting proxy",
	Long: `Starts the intercepting proxy. HTML pages whose URL matches a rule are served with the
rule's border and banner. Configure your browser to use this proxy and trust the CA
certificate created by 'envnotify proxy init-ca'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := resolvePort(cmd, "port", standaloneProxyPort, config.AppConfig.Proxy.Port, "8777")
		caCertPath := config.AppConfig.Proxy.CACertPath
		caKeyPath := config.AppConfig.Proxy.CAKeyPath
		if caCertPath == "" || caKeyPath == "" {
			return fmt.Errorf("proxy CA certificate or key path not configured; check config or run 'proxy init-ca' first")
		}
		logger.ProxyInfo("Proxy using CA Cert: %s, CA Key: %s", caCertPath, caKeyPath)
		return core.StartNotifyProxy(cmdContext(cmd), port, caCertPath, caKeyPath, ruleStore)
	},
}

var proxyInitCACmd = &cobra.Command{
	Use:   "init-ca",
	Short: "Generates the root CA certificate and key for the proxy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		certPath := config.AppConfig.Proxy.CACertPath
		keyPath := config.AppConfig.Proxy.CAKeyPath
		if certPath == "" || keyPath == "" {
			return fmt.Errorf("CA certificate or key path is not defined in configuration")
		}
		if err := core.GenerateAndSaveCA(certPath, keyPath); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "CA certificate written to %s\n", certPath)
		fmt.Fprintln(out(cmd), "Import it into your browser/system trust store to let the proxy mark HTTPS pages.")
		return nil
	},
}

func init() {
	proxyStartCmd.Flags().StringVarP(&standaloneProxyPort, "port", "p", "8777", "Port for the proxy server to listen on (overrides config)")

	proxyCmd.AddCommand(proxyStartCmd)
	proxyCmd.AddCommand(proxyInitCACmd)
	rootCmd.AddCommand(proxyCmd)
}
