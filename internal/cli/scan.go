package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tbe/internal/report"
)

func newScanCommand() *cobra.Command {
	var (
		outFile  string
		noExport bool
	)

	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Report size, timestamps and columns of the files in a directory",
		Long: `Scan a directory for files with the configured extension and report,
for each one, its size, creation and modification times, row count, the
column names from its first line and a few sample lines.

The report is printed and also written as JSON to --out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)

			files, err := report.ScanDirectory(args[0], report.ScanOptions{
				Extension:  e.cfg.Report.Extension,
				SampleRows: e.cfg.Report.SampleRows,
			}, e.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if e.cfg.Report.Format == FormatJSON {
				if err := report.WriteJSON(out, files); err != nil {
					return err
				}
			} else {
				report.PrintMetadataTable(out, files)
			}

			if noExport {
				return nil
			}
			target := outFile
			if target == "" {
				target = e.cfg.Report.OutputFile
			}
			if err := report.ExportJSON(target, files); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "metadata exported to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "JSON export file (default from config: "+report.DefaultOutputFile+")")
	cmd.Flags().BoolVar(&noExport, "no-export", false, "Only print, do not write the JSON export")
	cmd.Flags().String("ext", report.DefaultExtension, "File extension to include")
	cmd.Flags().Int("sample-rows", report.DefaultSampleRows, "Sample lines per file")

	return cmd
}
