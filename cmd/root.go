package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"envnotify/config"
	"envnotify/core"
	"envnotify/database"
	"envnotify/logger"
	"envnotify/models"
	"envnotify/store"

	"github.com/spf13/cobra"
)

var (
	cfgFile          string
	dbPath           string
	appLogPathFlag   string
	proxyLogPathFlag string
	logLevelFlag     string
	ephemeral        bool

	ruleStore *store.RuleStore
	editor    *core.Editor
	closeKV   func() error
	// listShown is set once the editor has printed the refreshed list for this run.
	listShown bool
)

var rootCmd = &cobra.Command{
	Use:   "envnotify",
	Short: "Warn about sensitive environments with a colored page border and banner",
	Long: `envnotify keeps an ordered list of URL rules. When a page whose URL matches a rule
is loaded through the envnotify proxy, the page gets a colored border and a short-lived
banner with the rule's message. The first matching rule in the list wins.

Rules are managed with 'envnotify rule', through the HTTP API ('envnotify server'),
and can be tried out with 'envnotify check <url>'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile, config.Overrides{
			DBPath:       dbPath,
			AppLogPath:   appLogPathFlag,
			ProxyLogPath: proxyLogPathFlag,
			LogLevel:     logLevelFlag,
		}); err != nil {
			return fmt.Errorf("failed to initialize config in PersistentPreRunE: %w", err)
		}

		kv, closer, err := openKV(cmdContext(cmd), config.AppConfig, ephemeral)
		if err != nil {
			return err
		}
		closeKV = closer
		ruleStore = store.NewRuleStore(kv)

		listShown = false
		var opts []core.EditorOption
		if cmd.Parent() == ruleCmd {
			w := out(cmd)
			opts = append(opts, core.WithListView(func(rules []models.Rule) {
				listShown = true
				showRules(w, rules)
			}))
		}
		editor = core.NewEditor(ruleStore, opts...)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeKV == nil {
			return nil
		}
		err := closeKV()
		closeKV = nil
		return err
	},
}

// openKV opens the configured storage backend.
func openKV(ctx context.Context, cfg config.Configuration, inMemory bool) (store.KV, func() error, error) {
	if inMemory {
		logger.Info("Using in-memory rule storage; nothing will be persisted")
		return store.NewMemoryKV(), func() error { return nil }, nil
	}
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		r, err := database.OpenRedis(ctx, database.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		logger.Info("PersistentPreRunE: Attempting to InitDB with path: '%s'", cfg.Database.Path)
		if err := database.InitDB(cfg.Database.Path); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database at %s: %w", cfg.Database.Path, err)
		}
		logger.Info("Database initialized at: %s", cfg.Database.Path)
		return database.NewSettingsStore(database.DB), database.Close, nil
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cmdContext is cancelled on SIGINT/SIGTERM when run through Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/envnotify/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "dbpath", "", "path to SQLite database file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&appLogPathFlag, "app-log", "", "path for the application log file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&proxyLogPathFlag, "proxy-log", "", "path for the proxy log file (overrides config/default)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep rules in memory only for this run (useful with 'start' for demos)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: DEBUG, INFO, WARN, ERROR (overrides config/default)")
}
