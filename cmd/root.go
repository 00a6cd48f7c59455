package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/nodegraph/internal/config"
	"github.com/zjrosen/nodegraph/internal/log"
	"github.com/zjrosen/nodegraph/internal/tracing"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	logFile   string
	logLevel  string
	cfg       config.Config

	// configErr is reported by the first command that runs.
	configErr error
	// defaultConfigPath is where a default config is written when none exists.
	defaultConfigPath = userConfigPath()

	traceProvider *tracing.Provider
	logCleanup    func()
)

var rootCmd = &cobra.Command{
	Use:   "nodegraph",
	Short: "Inspect, repair and store node graph documents",
	Long: `nodegraph loads node graph documents (YAML or JSON), reports their
nodes, ports, wires and unresolved elements, repairs them, converts between
formats and keeps them in a local sqlite catalog.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: func(*cobra.Command, []string) error { return teardown() },
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .nodegraph/config.yaml, then ~/.config/nodegraph/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also NODEGRAPH_DEBUG)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"debug log file, \"-\" for stderr (default: debug.log, also NODEGRAPH_LOG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "debug",
		"minimum level written to the debug log: debug, info, warn or error")
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nodegraph", "config.yaml")
}

func initConfig() {
	viper.Reset()
	setDefaults(config.Defaults())
	viper.SetEnvPrefix("NODEGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	configErr = nil
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .nodegraph/config.yaml (current directory)
		// 2. ~/.config/nodegraph/config.yaml (user config)
		if _, err := os.Stat(".nodegraph/config.yaml"); err == nil {
			viper.SetConfigFile(".nodegraph/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "nodegraph"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && cfgFile == "":
			// No config file found anywhere - create the default one
			if defaultConfigPath != "" {
				if writeErr := config.WriteDefaultConfig(defaultConfigPath); writeErr == nil {
					viper.SetConfigFile(defaultConfigPath)
					_ = viper.ReadInConfig()
				}
			}
		default:
			configErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		configErr = fmt.Errorf("decoding config: %w", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		configErr = fmt.Errorf("invalid configuration: %w", err)
	}
}

func setDefaults(d config.Config) {
	viper.SetDefault("store.path", d.Store.Path)
	viper.SetDefault("store.cache_ttl", d.Store.CacheTTL)
	viper.SetDefault("graph.incremental_wire_limit", d.Graph.IncrementalWireLimit)
	viper.SetDefault("graph.allow_self_connections", d.Graph.AllowSelfConnections)
	viper.SetDefault("graph.prune_obsolete_wires", d.Graph.PruneObsoleteWires)
	viper.SetDefault("graph.auto_repair", d.Graph.AutoRepair)
	viper.SetDefault("document.format", d.Document.Format)
	viper.SetDefault("watch.debounce", d.Watch.Debounce)
	viper.SetDefault("tracing.enabled", d.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", d.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", d.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// setup runs before every command: it reports config errors and starts
// logging and tracing.
func setup(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return configErr
	}

	// Initialize logging if debug mode enabled (via flag or env var)
	if debugFlag || os.Getenv("NODEGRAPH_DEBUG") != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		path := logFile
		if path == "" {
			path = os.Getenv("NODEGRAPH_LOG")
		}
		switch path {
		case "-":
			log.InitWriter(cmd.ErrOrStderr(), level)
		case "":
			path = "debug.log"
			fallthrough
		default:
			cleanup, err := log.Init(path)
			if err != nil {
				return fmt.Errorf("initializing logging: %w", err)
			}
			logCleanup = cleanup
			log.SetMinLevel(level)
		}
	}
	log.Debug(log.CatCLI, "command starting", "command", cmd.CommandPath(), "config", viper.ConfigFileUsed())

	tracingCfg := cfg.Tracing
	if tracingCfg.Enabled && tracingCfg.Exporter == tracing.ExporterFile && tracingCfg.FilePath == "" {
		tracingCfg.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	traceProvider = provider
	return nil
}

// teardown flushes traces and closes the log file. Safe to call twice.
func teardown() error {
	var err error
	if traceProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = traceProvider.Shutdown(ctx)
		traceProvider = nil
	}
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
	return err
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx as every command's context.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if shutdownErr := teardown(); err == nil {
		err = shutdownErr
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
