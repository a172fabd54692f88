package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var keysFlags struct {
	clientID string
	bytes    int
	output   string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
	Long: `Generate API keys for the service's key authentication.

Keys are random URL-safe strings. Store them in a secret provider and
reference them from the configuration rather than inlining them.`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new API key",
	Long: `Generate a new random API key and print a configuration snippet.

Examples:
  # Print a key for client "billing"
  anymouse keys generate --client billing

  # Write the key to a file readable only by the owner
  anymouse keys generate --client billing --output /run/secrets/billing_api_key`,
	RunE: generateAPIKey,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().StringVar(&keysFlags.clientID, "client", "default", "client ID recorded in logs and audit records")
	keysGenerateCmd.Flags().IntVar(&keysFlags.bytes, "bytes", 32, "random bytes in the key (min 16)")
	keysGenerateCmd.Flags().StringVarP(&keysFlags.output, "output", "o", "", "write the key to this file instead of stdout")
}

func newAPIKey(n int) (string, error) {
	if n < 16 {
		return "", fmt.Errorf("key length %d is below the 16 byte minimum", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return "am_" + base64.RawURLEncoding.EncodeToString(buf), nil
}

func generateAPIKey(cmd *cobra.Command, args []string) error {
	key, err := newAPIKey(keysFlags.bytes)
	if err != nil {
		return err
	}
	w := out(cmd)
	secretName := keysFlags.clientID + "_api_key"

	if keysFlags.output != "" {
		// #nosec G304 - user-specified output path is expected for a CLI tool.
		if err := os.WriteFile(keysFlags.output, []byte(key+"\n"), 0600); err != nil {
			return fmt.Errorf("failed to write key: %w", err)
		}
		fmt.Fprintf(w, "✓ Key written to %s\n", keysFlags.output)
	} else {
		fmt.Fprintf(w, "API Key: %s\n", key)
		fmt.Fprintln(w, "\n⚠️  Store this key in a secret provider; it is not shown again")
	}

	fmt.Fprintln(w, "\nConfiguration snippet:")
	fmt.Fprintln(w, "security:")
	fmt.Fprintln(w, "  authentication:")
	fmt.Fprintln(w, "    enabled: true")
	fmt.Fprintln(w, "    keys:")
	fmt.Fprintf(w, "      - key: \"${secret:%s}\"\n", secretName)
	fmt.Fprintf(w, "        client_id: %q\n", keysFlags.clientID)
	return nil
}
