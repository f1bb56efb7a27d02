package cli

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tbe/internal/report"
)

func newGlobalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "global FILE",
		Short: "Print the global metadata block of a TBE file",
		Long: `Print the name/value pairs found between the "TBL Global" and
"EOT Global" lines of a TBE file, in file order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)

			doc, err := e.parser().ExtractFile(args[0])
			if err != nil {
				return err
			}

			if e.cfg.Report.Format == FormatJSON {
				return report.WriteJSON(cmd.OutOrStdout(), doc.Global)
			}
			report.PrintGlobalTable(cmd.OutOrStdout(), doc.Global)
			return nil
		},
	}
}
