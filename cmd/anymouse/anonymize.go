package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"anymouse-hq/anymouse/pkg/anonymize"
	"anymouse-hq/anymouse/pkg/cli"
	"anymouse-hq/anymouse/pkg/config"
	"anymouse-hq/anymouse/pkg/fieldconfig"
	"anymouse-hq/anymouse/pkg/server"

	"github.com/spf13/cobra"
)

var anonymizeFlags struct {
	text       string
	file       string
	fields     []string
	fieldsFile string
	structured bool
	recognizer string
	format     string
	tokensOut  string
	progress   bool
}

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize",
	Short: "Anonymize text or JSON records offline",
	Long: `Anonymize text or JSON records without running the service.

Text mode (default) reads --text, --file or standard input as one document
and replaces every recognized entity.

Structured mode is selected by --fields, --fields-file or --structured. The
input is one JSON object or JSON Lines, one object per line; each configured
field path is redacted. Without --fields or --fields-file the configured
field source is used.

Examples:
  # Text from a flag
  anymouse anonymize --text "Meeting with Alice Smith"

  # Only the redacted message, token map to a file
  anymouse anonymize --file note.txt --format text --tokens-out tokens.json

  # JSON Lines with two fields and a progress bar on stderr
  anymouse anonymize --file records.jsonl --fields name,patient.name --progress`,
	RunE: runAnonymize,
}

func init() {
	rootCmd.AddCommand(anonymizeCmd)

	f := anonymizeCmd.Flags()
	f.StringVar(&anonymizeFlags.text, "text", "", "text to anonymize")
	f.StringVarP(&anonymizeFlags.file, "file", "f", "", "input file (default: stdin)")
	f.StringSliceVar(&anonymizeFlags.fields, "fields", nil, "field paths to redact (structured mode)")
	f.StringVar(&anonymizeFlags.fieldsFile, "fields-file", "", "JSON or YAML field document (structured mode)")
	f.BoolVar(&anonymizeFlags.structured, "structured", false, "structured mode with the configured field source")
	f.StringVar(&anonymizeFlags.recognizer, "recognizer", "", "override recognizer mode (auto, model, pattern)")
	f.StringVar(&anonymizeFlags.format, "format", "json", "output format: json, text")
	f.StringVar(&anonymizeFlags.tokensOut, "tokens-out", "", "write the token map to this file")
	f.BoolVar(&anonymizeFlags.progress, "progress", false, "report progress on stderr (structured mode)")
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if anonymizeFlags.recognizer != "" {
		cfg.Recognizer.Mode = anonymizeFlags.recognizer
	}
	format, err := cli.ParseOutputFormat(anonymizeFlags.format)
	if err != nil || format == cli.FormatCSV {
		return fmt.Errorf("unsupported format %q (want json or text)", anonymizeFlags.format)
	}

	engine, err := server.NewEngine(cfg, nil)
	if err != nil {
		return cli.NewCommandError("anonymize", err)
	}
	defer engine.Close()

	input, err := readInput(cmd, anonymizeFlags.text, anonymizeFlags.file)
	if err != nil {
		return err
	}

	structured := anonymizeFlags.structured || len(anonymizeFlags.fields) > 0 || anonymizeFlags.fieldsFile != ""
	if !structured {
		res, err := engine.AnonymizeText(string(input))
		if err != nil {
			return cli.NewCommandError("anonymize", err)
		}
		return writeResult(out(cmd), format, res)
	}

	fields, err := resolveFields(commandContext(cmd), cfg)
	if err != nil {
		return err
	}
	return anonymizeRecords(out(cmd), engine.Engine, input, fields, format)
}

// resolveFields picks the field list for structured mode.
func resolveFields(ctx context.Context, cfg *config.Config) ([]string, error) {
	switch {
	case len(anonymizeFlags.fields) > 0:
		return anonymizeFlags.fields, nil
	case anonymizeFlags.fieldsFile != "":
		data, err := os.ReadFile(anonymizeFlags.fieldsFile)
		if err != nil {
			return nil, fmt.Errorf("read field document: %w", err)
		}
		doc, err := fieldconfig.Parse(data)
		if err != nil {
			return nil, cli.NewConfigError(anonymizeFlags.fieldsFile, err.Error())
		}
		return doc.Fields, nil
	default:
		src, err := fieldconfig.NewSource(ctx, cfg.Fields)
		if err != nil {
			return nil, cli.NewConfigError("fields", err.Error())
		}
		if c, ok := src.(io.Closer); ok {
			defer c.Close()
		}
		doc, err := src.Load(ctx)
		if err != nil {
			return nil, cli.NewCommandError("anonymize", err)
		}
		return doc.Fields, nil
	}
}

// anonymizeRecords handles a single JSON object or JSON Lines input. Each
// record gets its own token map.
func anonymizeRecords(w io.Writer, engine *anonymize.Engine, input []byte, fields []string, format cli.OutputFormat) error {
	lines := splitRecords(input)
	if anonymizeFlags.tokensOut != "" && len(lines) > 1 {
		return fmt.Errorf("--tokens-out needs a single record; token maps for JSON Lines are in the json output")
	}

	var progress cli.ProgressReporter = cli.NopProgress{}
	if anonymizeFlags.progress {
		progress = cli.NewProgressReporter(os.Stderr, "records")
	}
	progress.Start(int64(len(lines)))

	for i, line := range lines {
		res, err := engine.AnonymizeJSON(line, fields)
		if err != nil {
			err = fmt.Errorf("record %d: %w", i+1, err)
			progress.Error(err)
			return cli.NewCommandError("anonymize", err)
		}
		if err := writeResultLine(w, format, res); err != nil {
			return err
		}
		if anonymizeFlags.tokensOut != "" {
			if err := writeTokens(anonymizeFlags.tokensOut, res.Tokens); err != nil {
				return err
			}
		}
		progress.Update(int64(i + 1))
	}
	progress.Finish()
	return nil
}

// splitRecords returns the whole input when it is one JSON value, otherwise
// its non-blank lines.
func splitRecords(input []byte) [][]byte {
	trimmed := bytes.TrimSpace(input)
	if json.Valid(trimmed) {
		return [][]byte{trimmed}
	}
	var out [][]byte
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) > 0 {
			out = append(out, append([]byte(nil), line...))
		}
	}
	return out
}

func writeResult(w io.Writer, format cli.OutputFormat, res *anonymize.Result) error {
	if format == cli.FormatText {
		if err := writeMessage(w, res.Message); err != nil {
			return err
		}
		if anonymizeFlags.tokensOut != "" {
			return writeTokens(anonymizeFlags.tokensOut, res.Tokens)
		}
		return nil
	}
	if anonymizeFlags.tokensOut != "" {
		if err := writeTokens(anonymizeFlags.tokensOut, res.Tokens); err != nil {
			return err
		}
	}
	return cli.NewFormatter(cli.FormatJSON).FormatTo(w, res)
}

func writeResultLine(w io.Writer, format cli.OutputFormat, res *anonymize.Result) error {
	if format == cli.FormatText {
		_, err := fmt.Fprintln(w, res.Message)
		return err
	}
	return json.NewEncoder(w).Encode(res)
}

func writeTokens(path string, tokens anonymize.TokenMap) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	// #nosec G306 - token maps hold the original values and stay owner-only.
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write token map: %w", err)
	}
	return nil
}

// readInput returns text when set, else the contents of file, else stdin.
// File and stdin input is returned as read, trailing newline included.
func readInput(cmd *cobra.Command, text, file string) ([]byte, error) {
	if text != "" {
		return []byte(text), nil
	}
	var r io.Reader
	if file != "" && file != "-" {
		// #nosec G304 - reading a user-named input file is the command's purpose.
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	} else {
		r = in(cmd)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// writeMessage writes msg and ends the line unless msg already does.
func writeMessage(w io.Writer, msg string) error {
	if strings.HasSuffix(msg, "\n") {
		_, err := io.WriteString(w, msg)
		return err
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}

func parseTokens(data []byte) (anonymize.TokenMap, error) {
	var tokens anonymize.TokenMap
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("token map must be a JSON object of strings: %w", err)
	}
	return tokens, nil
}
