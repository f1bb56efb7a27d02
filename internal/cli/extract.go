package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tbe/internal/report"
	"github.com/JonMunkholm/tbe/internal/tbe"
)

func newExtractCommand() *cobra.Command {
	var (
		outFile string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "extract PATH...",
		Short: "Extract records from TBE files",
		Long: `Extract records from one or more TBE files. Directories expand to the
files in them with the configured extension, in lexical order.

Records from all files are concatenated in input order. Files that cannot
be read are reported and skipped.`,
		Example: `  tbectl extract sites.csv
  tbectl extract exports/ --ext .tbe --format json
  tbectl extract a.csv b.csv --out records.json.zst --summary`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			paths, err := expandPaths(args, e.cfg.Report.Extension)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("%w: nothing matching %q", tbe.ErrNoInput, e.cfg.Report.Extension)
			}

			batch := e.parser().ExtractFiles(paths, e.logger)
			e.logger.Info("extraction finished",
				"files", len(paths),
				"failed", len(batch.Failed()),
				"records", len(batch.Records),
			)

			if outFile != "" {
				if err := report.ExportJSON(outFile, batch.Records); err != nil {
					return err
				}
				e.logger.Info("records exported", "file", outFile)
			}

			out := cmd.OutOrStdout()
			if e.cfg.Report.Format == FormatJSON {
				if summary {
					return report.WriteJSON(out, report.Summarize(batch.Records))
				}
				return report.WriteJSON(out, batch.Records)
			}

			if summary {
				report.PrintSummary(out, report.Summarize(batch.Records))
			} else {
				report.PrintRecordsTable(out, batch.Records)
			}
			for _, f := range batch.Failed() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", f.Path, f.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write records as JSON to this file (.zst compresses)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print per-column counts instead of records")
	cmd.Flags().String("ext", report.DefaultExtension, "File extension selected inside directories")

	return cmd
}

// expandPaths replaces each directory in args with its files ending in ext.
// Other arguments are kept as given so unreadable files still get reported.
func expandPaths(args []string, ext string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		matched, _, err := report.ListFiles(arg, ext)
		if err != nil {
			return nil, err
		}
		paths = append(paths, matched...)
	}
	return paths, nil
}
