package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/backbone81/durable-log/internal/config"
	"github.com/backbone81/durable-log/pkg/commitlog"
)

var (
	directory  string
	configPath string
	logLevel   string

	// Set up before any command runs.
	settings config.Config
	logger   *zap.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dlog-cli",
	Short: "A tool for interacting with commit logs.",
	Long:  `A tool for interacting with commit logs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings = config.Default()
		if configPath != "" {
			var err error
			settings, err = config.Load(configPath)
			if err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("log-level") {
			settings.LogLevel = logLevel
		}

		level, err := settings.Level()
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("building the logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// openLog opens the commit log with the configured settings. The caller needs to close it.
func openLog() (*commitlog.Log, error) {
	options, err := settings.Options(logger)
	if err != nil {
		return nil, err
	}
	return commitlog.Open(directory, options...)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&directory,
		"directory",
		"d",
		".",
		"The directory the commit log is located in.",
	)

	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"The YAML file with the commit log settings.",
	)

	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		"info",
		"The log level. Valid values are debug, info, warn, error.",
	)
}
