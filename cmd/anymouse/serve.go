package main

import (
	"context"
	"fmt"

	"anymouse-hq/anymouse/pkg/cli"
	"anymouse-hq/anymouse/pkg/server"

	"github.com/spf13/cobra"
)

var serveFlags struct {
	listenAddress string
	recognizer    string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the anonymization HTTP service",
	Long: `Start the anonymization HTTP service with the specified configuration.

Routes:
  POST /v1/anonymize      anonymize text or a JSON payload
  POST /v1/deanonymize    restore placeholders from a token map
  POST /v1/config/test    validate a field configuration
  POST /v1/invoke         single entry point dispatching on "action"
  GET  /health, /ready    liveness and readiness
  GET  /metrics           Prometheus metrics

Examples:
  # Start with defaults (127.0.0.1:8080, pattern fallback)
  anymouse serve

  # Start with a config file and a different address
  anymouse serve --config /etc/anymouse/config.yaml --listen 0.0.0.0:8080

  # Build every component and exit
  anymouse serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.recognizer, "recognizer", "", "override recognizer mode (auto, model, pattern)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "build every component, then exit")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.recognizer != "" {
		cfg.Recognizer.Mode = serveFlags.recognizer
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	srv, err := server.New(ctx, cfg, Version)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	w := out(cmd)
	if serveFlags.dryRun {
		_ = srv.Shutdown(context.Background())
		fmt.Fprintf(w, "✓ Configuration valid (recognizer: %s)\n", srv.Engine().Mode)
		return nil
	}

	scheme := "http"
	if cfg.Security.TLS.Enabled {
		scheme = "https"
	}
	fmt.Fprintf(w, "Anymouse v%s\n", Version)
	fmt.Fprintf(w, "✓ Recognizer: %s (%s)\n", srv.Engine().Recognizer.Name(), srv.Engine().Mode)
	fmt.Fprintf(w, "✓ Listening on %s://%s\n", scheme, cfg.Server.ListenAddress)
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(w, "✓ Server stopped")
	return nil
}
