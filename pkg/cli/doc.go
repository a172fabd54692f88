/*
Package cli provides the helpers shared by the anymouse commands: output
formatting, progress reporting for batch runs, typed command errors with
exit codes, and signal handling.

Output Formatting:

Results are written as text, JSON or CSV. Tabular results implement Table
so all three formats render them:

	formatter := cli.NewFormatter(cli.FormatCSV)
	if err := formatter.FormatTo(os.Stdout, records); err != nil {
		return err
	}

Progress Reporting:

Batch anonymization of JSON Lines input reports progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "records")
	progress.Start(total)
	progress.Update(done)
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
