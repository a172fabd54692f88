package main

import (
	"fmt"
	"os"
	"strings"

	"anymouse-hq/anymouse/pkg/anonymize"
	"anymouse-hq/anymouse/pkg/cli"
	"anymouse-hq/anymouse/pkg/server"

	"github.com/spf13/cobra"
)

var deanonymizeFlags struct {
	message string
	file    string
	tokens  string
	mode    string
}

var deanonymizeCmd = &cobra.Command{
	Use:   "deanonymize",
	Short: "Restore placeholders using a token map",
	Long: `Restore the original values in a message using the token map returned
by anonymize.

Mode "text" replaces every [prefixN] placeholder found in the token map.
Mode "structured" replaces placeholders anywhere in a JSON message. The
default "auto" picks structured when the message is a compact JSON object
as produced by structured anonymization.

Examples:
  anymouse deanonymize --tokens tokens.json --message "[name1] called [name2]"
  anymouse deanonymize --tokens tokens.json --file reply.json --mode structured`,
	RunE: runDeanonymize,
}

func init() {
	rootCmd.AddCommand(deanonymizeCmd)

	f := deanonymizeCmd.Flags()
	f.StringVar(&deanonymizeFlags.message, "message", "", "message to restore")
	f.StringVarP(&deanonymizeFlags.file, "file", "f", "", "read the message from a file (default: stdin)")
	f.StringVarP(&deanonymizeFlags.tokens, "tokens", "t", "", "token map JSON file (required)")
	f.StringVar(&deanonymizeFlags.mode, "mode", "auto", "auto, text or structured")
	_ = deanonymizeCmd.MarkFlagRequired("tokens")
}

func runDeanonymize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Restoring never runs the recognizer.
	cfg.Recognizer.Mode = "pattern"

	data, err := os.ReadFile(deanonymizeFlags.tokens)
	if err != nil {
		return fmt.Errorf("read token map: %w", err)
	}
	tokens, err := parseTokens(data)
	if err != nil {
		return err
	}

	msg, err := readInput(cmd, deanonymizeFlags.message, deanonymizeFlags.file)
	if err != nil {
		return err
	}

	engine, err := server.NewEngine(cfg, nil)
	if err != nil {
		return cli.NewCommandError("deanonymize", err)
	}
	defer engine.Close()

	restored, err := restore(engine.Engine, string(msg), tokens, deanonymizeFlags.mode)
	if err != nil {
		return err
	}
	return writeMessage(out(cmd), restored)
}

func restore(engine *anonymize.Engine, msg string, tokens anonymize.TokenMap, mode string) (string, error) {
	switch mode {
	case "text":
		return engine.DeanonymizeText(msg, tokens), nil
	case "structured":
		return engine.DeanonymizeStructured(msg, tokens), nil
	case "", "auto":
		body := strings.TrimRight(msg, "\r\n")
		if anonymize.IsCanonicalObject(body) {
			return engine.DeanonymizeStructured(body, tokens) + msg[len(body):], nil
		}
		return engine.DeanonymizeText(msg, tokens), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want auto, text or structured)", mode)
	}
}
