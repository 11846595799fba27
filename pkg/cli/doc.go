/*
Package cli provides command-line helpers for the autopublish command.

Output Formatting:

Commands print either a table or JSON:

	formatter := cli.NewFormatter(cli.FormatTable)
	if err := formatter.FormatTo(os.Stdout, cli.Table{Headers: h, Rows: rows}); err != nil {
		return err
	}

Status lines use colored markers that are disabled automatically when the
output is not a terminal:

	cli.ConfigureColor(os.Stdout)
	fmt.Println(cli.Success("scan complete"))

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr, "Importing")
	progress.Start(int64(len(items)))
	for i := range items {
		// Import item
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
