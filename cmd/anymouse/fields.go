package main

import (
	"fmt"
	"io"
	"os"

	"anymouse-hq/anymouse/pkg/cli"
	"anymouse-hq/anymouse/pkg/fieldconfig"

	"github.com/spf13/cobra"
)

var fieldsFlags struct {
	format string
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Inspect structured field configuration",
	Long: `Inspect the field documents used by structured anonymization.

Subcommands:
  validate - Check a JSON or YAML field document
  show     - Print the fields served by the configured source`,
}

var fieldsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a field document",
	Long: `Validate a JSON or YAML field document of the form

  fields:
    - patient_name
    - appointment.doctor

The document is checked with the same rules as POST /v1/config/test.`,
	Args: cobra.ExactArgs(1),
	RunE: validateFields,
}

var fieldsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the fields from the configured source",
	RunE:  showFields,
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	fieldsCmd.AddCommand(fieldsValidateCmd, fieldsShowCmd)

	fieldsShowCmd.Flags().StringVar(&fieldsFlags.format, "format", "text", "output format: text, json")
	fieldsValidateCmd.Flags().StringVar(&fieldsFlags.format, "format", "text", "output format: text, json")
}

func validateFields(cmd *cobra.Command, args []string) error {
	// #nosec G304 - validating a user-named file is the command's purpose.
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read field document: %w", err)
	}
	doc, err := fieldconfig.Parse(data)
	if err != nil {
		return cli.NewConfigError(args[0], err.Error())
	}
	return printFields(out(cmd), "✓ Field document valid", doc)
}

func showFields(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	src, err := fieldconfig.NewSource(ctx, cfg.Fields)
	if err != nil {
		return cli.NewConfigError("fields", err.Error())
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	doc, err := src.Load(ctx)
	if err != nil {
		return cli.NewCommandError("fields", err)
	}
	return printFields(out(cmd), fmt.Sprintf("Source: %s", src.Name()), doc)
}

func printFields(w io.Writer, header string, doc fieldconfig.Config) error {
	format, err := cli.ParseOutputFormat(fieldsFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(w, map[string]any{
			"status": "success",
			"config": doc,
		})
	}
	fmt.Fprintln(w, header)
	fmt.Fprintf(w, "Fields (%d):\n", len(doc.Fields))
	for _, f := range doc.Fields {
		fmt.Fprintf(w, "  - %s\n", f)
	}
	return nil
}
