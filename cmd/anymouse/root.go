package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"anymouse-hq/anymouse/pkg/cli"
	"anymouse-hq/anymouse/pkg/config"
	"anymouse-hq/anymouse/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "anymouse",
	Short: "Anymouse - reversible anonymization of names in text and JSON",
	Long: `Anymouse detects named entities in free text and replaces them with
placeholders such as [name1], or redacts configured fields of JSON records.
Every call returns a token map that restores the original values.

It runs as an HTTP service (anymouse serve) or offline against files and
standard input.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults plus ANYMOUSE_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig reads the configuration selected by --config and installs the
// process logger.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile == "" {
		cfg, err = config.DefaultWithEnvOverrides()
	} else {
		cfg, err = config.LoadConfigWithEnvOverrides(cfgFile)
	}
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if _, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging)); err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.Debug("configuration loaded", "path", cfgFile)
	return cfg, nil
}

// out returns the writer for command results.
func out(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd == nil || cmd.Context() == nil {
		return context.Background()
	}
	return cmd.Context()
}

// in returns the reader for command input.
func in(cmd *cobra.Command) io.Reader {
	if cmd == nil {
		return os.Stdin
	}
	return cmd.InOrStdin()
}
