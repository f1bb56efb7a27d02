// Package cli provides the tbectl command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tbe/internal/config"
	"github.com/JonMunkholm/tbe/internal/logging"
	"github.com/JonMunkholm/tbe/internal/tbe"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// Output formats accepted by --format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

type envKey struct{}

// env is what every subcommand needs after the root has loaded config.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	cleanup func()
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "tbectl",
		Short: "Extract tables from TBE files",
		Long: `tbectl reads TBE exports: comma-separated files holding one or more
tables introduced by a "TBL Sites" header row and three decoration rows.

It flattens every table into records keyed by column name, prints the
global metadata block, and reports on directories of input files.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.LoadWithOptions(config.Options{
				File:  cfgFile,
				Flags: cmd.Flags(),
			})
			if err != nil {
				return err
			}

			format := strings.ToLower(cfg.Report.Format)
			if format != FormatTable && format != FormatJSON {
				return fmt.Errorf("unknown output format %q (want table or json)", cfg.Report.Format)
			}
			cfg.Report.Format = format

			// Logs go to stderr so stdout stays parseable.
			logger, cleanup := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				SeqURL: cfg.Logging.SeqURL,
				Output: cmd.ErrOrStderr(),
			})

			ctx := context.WithValue(cmd.Context(), envKey{}, &env{cfg: cfg, logger: logger, cleanup: cleanup})
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if e, ok := cmd.Context().Value(envKey{}).(*env); ok {
				e.cleanup()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text|json)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output format (table|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{FormatTable, FormatJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newScanCommand())
	rootCmd.AddCommand(newGlobalCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// envFrom returns the environment set up by the root command.
// parser returns a Parser with the configured line cap.
func (e *env) parser() tbe.Parser {
	return tbe.Parser{MaxLineSize: e.cfg.Extract.MaxLineSize}
}

func envFrom(cmd *cobra.Command) *env {
	if e, ok := cmd.Context().Value(envKey{}).(*env); ok {
		return e
	}
	return &env{
		cfg:     &config.Config{Report: config.ReportConfig{Format: FormatTable}},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		cleanup: func() {},
	}
}
