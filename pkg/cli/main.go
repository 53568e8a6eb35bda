// Package cli builds the library-api command line: serve, version, healthcheck
// and config.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/michalszc/library-api/pkg/config"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultServiceName names the binary and, unless overridden, the service.
const DefaultServiceName = "library-api"

// RunServerFunc starts the service and blocks until ctx is done.
type RunServerFunc func(ctx context.Context, cfg *config.Config, log logger.Logger) error

// ServiceCommandOptions defines the knobs of the root command.
type ServiceCommandOptions struct {
	Name        string
	Description string
	ConfigPath  string
	EnvPrefix   string

	// RunServer defaults to Serve.
	RunServer RunServerFunc

	// Out receives command output. Defaults to stdout.
	Out io.Writer
}

// NewServiceCommand creates the root command. Running it without a subcommand
// is the same as running serve.
func NewServiceCommand(opts ServiceCommandOptions) *cobra.Command {
	if opts.Name == "" {
		opts.Name = DefaultServiceName
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = config.DefaultEnvPrefix
	}
	if opts.RunServer == nil {
		opts.RunServer = Serve
	}
	if opts.Description == "" {
		opts.Description = "Library catalog REST API"
	}

	rootCmd := &cobra.Command{
		Use:           opts.Name,
		Short:         opts.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if opts.Out != nil {
		rootCmd.SetOut(opts.Out)
	}

	var cfgPath string
	var serviceNameOverride string
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config-file", "c", opts.ConfigPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&serviceNameOverride, "service-name", "", "service name override")
	rootCmd.PersistentFlags().Int("http-port", 0, "public API port (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("store", "", "catalog store: mongodb or memory (overrides config)")

	loadConfig := func(flags *pflag.FlagSet) (*config.Config, error) {
		return LoadConfig(cfgPath, opts.EnvPrefix, flags, opts.Name, serviceNameOverride)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			name := resolveServiceNameValue("", opts.Name, serviceNameOverride)
			fmt.Fprint(cmd.OutOrStdout(), formatVersion(version.Current(name)))
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the public API and management servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := LoadConfigAndLogger(cfgPath, opts.EnvPrefix, cmd.Flags(), opts.Name, serviceNameOverride)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return opts.RunServer(commandContext(cmd), cfg, log)
		},
	}
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = serveCmd.RunE

	rootCmd.AddCommand(newHealthcheckCommand(loadConfig))

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			formatted, err := formatConfig(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatted)
			return nil
		},
	})

	return rootCmd
}

// LoadConfig loads and validates configuration, then applies the service name
// override. flags may be nil.
func LoadConfig(cfgPath, envPrefix string, flags *pflag.FlagSet, defaultServiceName, serviceNameOverride string) (*config.Config, error) {
	cfg, err := config.NewViperLoader(cfgPath, envPrefix).
		WithServiceNameDefault(defaultServiceName).
		WithFlags(flags).
		Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Name = resolveServiceNameValue(cfg.Service.Name, defaultServiceName, serviceNameOverride)
	return cfg, nil
}

// LoadConfigAndLogger loads configuration and builds the zap logger it describes.
func LoadConfigAndLogger(cfgPath, envPrefix string, flags *pflag.FlagSet, defaultServiceName, serviceNameOverride string) (*config.Config, *logger.ZapLogger, error) {
	cfg, err := LoadConfig(cfgPath, envPrefix, flags, defaultServiceName, serviceNameOverride)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewZapLogger(logger.Config{
		Level:  logger.LogLevel(cfg.Observability.LogLevel),
		Format: logger.LogFormat(cfg.Observability.LogFormat),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	logConfigIfDebug(log, cfg)
	return cfg, log, nil
}

// Execute runs the command and exits with appropriate code.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func formatVersion(info version.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Service:    %s\n", info.Service)
	fmt.Fprintf(&b, "Version:    %s\n", info.Version)
	fmt.Fprintf(&b, "Commit:     %s\n", info.Commit)
	fmt.Fprintf(&b, "Build Time: %s\n", info.BuildTime)
	fmt.Fprintf(&b, "Go:         %s\n", info.GoVersion)
	return b.String()
}

func formatConfig(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "{}\n", nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

func logConfigIfDebug(log logger.Logger, cfg *config.Config) {
	if log == nil || cfg == nil {
		return
	}

	if !strings.EqualFold(cfg.Observability.LogLevel, string(logger.DebugLevel)) {
		return
	}

	log.Debug("effective configuration", "config", fmt.Sprintf("%+v", cfg))
}

func resolveServiceNameValue(currentConfigName, defaultServiceName, serviceNameOverride string) string {
	if override := strings.TrimSpace(serviceNameOverride); override != "" {
		return override
	}
	if configured := strings.TrimSpace(currentConfigName); configured != "" {
		return configured
	}
	if fallback := strings.TrimSpace(defaultServiceName); fallback != "" {
		return fallback
	}
	return DefaultServiceName
}
