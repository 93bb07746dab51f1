package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"envnotify/logger"

	"github.com/spf13/viper"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type DefaultPaths struct {
	ConfigDir    string
	LogPathApp   string
	LogPathProxy string
	CACertPath   string
	CAKeyPath    string
	DBPath       string
	LogLevel     string
}

type Configuration struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Storage struct {
		Backend string `mapstructure:"backend"`
	} `mapstructure:"storage"`
	Redis struct {
		Addr      string `mapstructure:"addr"`
		Password  string `mapstructure:"password"`
		DB        int    `mapstructure:"db"`
		KeyPrefix string `mapstructure:"key_prefix"`
	} `mapstructure:"redis"`
	Server struct {
		Port    string `mapstructure:"port"`
		LogPath string `mapstructure:"log_path"`
	} `mapstructure:"server"`
	Proxy struct {
		Port       string `mapstructure:"port"`
		CACertPath string `mapstructure:"ca_cert_path"`
		CAKeyPath  string `mapstructure:"ca_key_path"`
		LogPath    string `mapstructure:"log_path"`
	} `mapstructure:"proxy"`
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

// Overrides carries command line flags that win over the file and environment.
type Overrides struct {
	DBPath       string
	AppLogPath   string
	ProxyLogPath string
	LogLevel     string
}

var AppConfig Configuration

func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

func GetDefaultConfigPaths() DefaultPaths {
	var paths DefaultPaths
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not get user config dir: %v. Using current directory.\n", err)
		userConfigDir = "."
	}

	paths.ConfigDir = filepath.Join(userConfigDir, "envnotify")
	logDir := filepath.Join(paths.ConfigDir, "logs")

	paths.LogPathApp = filepath.Join(logDir, "app.log")
	paths.LogPathProxy = filepath.Join(logDir, "proxy.log")
	paths.CACertPath = filepath.Join(paths.ConfigDir, "envnotify-ca.crt")
	paths.CAKeyPath = filepath.Join(paths.ConfigDir, "envnotify-ca.key")
	paths.DBPath = filepath.Join(paths.ConfigDir, "envnotify.db")
	paths.LogLevel = "INFO"
	return paths
}

// Load resolves the configuration from defaults, cfgFile (or config.yaml in the config
// dir or the working directory), ENVNOTIFY_* environment variables and flags, in
// increasing precedence. It has no side effects beyond reading.
func Load(cfgFile string, flags Overrides) (Configuration, string, error) {
	v := viper.New()

	defaults := GetDefaultConfigPaths()
	v.SetDefault("database.path", defaults.DBPath)
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "envnotify:")
	v.SetDefault("server.port", "8778")
	v.SetDefault("server.log_path", defaults.LogPathApp)
	v.SetDefault("proxy.port", "8777")
	v.SetDefault("proxy.ca_cert_path", defaults.CACertPath)
	v.SetDefault("proxy.ca_key_path", defaults.CAKeyPath)
	v.SetDefault("proxy.log_path", defaults.LogPathProxy)
	v.SetDefault("logging.level", defaults.LogLevel)

	if cfgFile != "" {
		expanded, err := expandTilde(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in config file path '%s': %v. Trying original path.\n", cfgFile, err)
			expanded = cfgFile
		}
		v.SetConfigFile(expanded)
		v.SetConfigType("yaml")
	} else {
		v.AddConfigPath(defaults.ConfigDir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("ENVNOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	used := "Using default/environment configuration."
	if err := v.ReadInConfig(); err == nil {
		used = fmt.Sprintf("Using config file: %s", v.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case cfgFile != "" && errors.Is(err, os.ErrNotExist):
			return Configuration{}, "", fmt.Errorf("config file %s not found: %w", cfgFile, err)
		default:
			return Configuration{}, "", fmt.Errorf("reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return Configuration{}, "", fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if flags.DBPath != "" {
		cfg.Database.Path = flags.DBPath
	}
	if flags.AppLogPath != "" {
		cfg.Server.LogPath = flags.AppLogPath
	}
	if flags.ProxyLogPath != "" {
		cfg.Proxy.LogPath = flags.ProxyLogPath
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))

	for _, p := range []*string{&cfg.Database.Path, &cfg.Server.LogPath, &cfg.Proxy.LogPath, &cfg.Proxy.CACertPath, &cfg.Proxy.CAKeyPath} {
		expanded, err := expandTilde(*p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in '%s': %v.\n", *p, err)
			continue
		}
		*p = expanded
	}

	switch cfg.Storage.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return Configuration{}, "", fmt.Errorf("unknown storage.backend %q (want %s or %s)", cfg.Storage.Backend, BackendSQLite, BackendRedis)
	}
	return cfg, used, nil
}

// Init loads the configuration into AppConfig and (re)initializes the global loggers.
func Init(cfgFile string, flags Overrides) error {
	cfg, used, err := Load(cfgFile, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: %v\n", err)
		return err
	}
	AppConfig = cfg

	if err := os.MkdirAll(GetDefaultConfigPaths().ConfigDir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create main config directory: %v\n", err)
	}
	if err := logger.InitGlobalLoggers(AppConfig.Server.LogPath, AppConfig.Proxy.LogPath, AppConfig.Logging.Level); err != nil {
		return fmt.Errorf("failed to initialize global loggers with final config: %w", err)
	}

	logger.Info(used)
	logger.Info("Storage backend: %s", AppConfig.Storage.Backend)
	logger.Debug("Final AppConfig Initialized: %+v", redacted(AppConfig))
	return nil
}

func redacted(c Configuration) Configuration {
	if c.Redis.Password != "" {
		c.Redis.Password = "****"
	}
	return c
}
