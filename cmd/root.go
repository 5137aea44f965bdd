package cmd

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/backstage/services/ingest/config"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ingest-service",
	Short: "Data record ingestion service",
	Long: `Ingest service accepts JSON data records over HTTP, keeps them in memory,
marks them processed on request and publishes their lifecycle events.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}

		return setupLogging(cfg.Logging)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console)")
}

// setupLogging configures the global zerolog logger
func setupLogging(cfg config.LoggingConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	return nil
}
