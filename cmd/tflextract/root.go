package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tflextract/internal/classify"
	"github.com/dgallion1/tflextract/internal/config"
	"github.com/dgallion1/tflextract/internal/report"
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tflextract",
		Short: "Extract titles and footnotes from paginated TFL reports",
		Long: `tflextract finds the title line and the footer footnotes of every page of a
Tables, Figures and Listings report and writes them to a spreadsheet.

Input: PDF, DOCX, HTML, Markdown or plain text with form-feed page breaks.
Output: XLSX (default), CSV, JSON or Markdown.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("rules", "", "Rules file (default: $RULES_FILE, ./tflextract.yaml, then the user config dir)")

	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewRulesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := config.Load().LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadRules resolves the --rules flag, RULES_FILE and the default locations.
func loadRules(cmd *cobra.Command) (classify.Rules, string, error) {
	explicit, _ := cmd.Flags().GetString("rules")
	rules, path, err := config.ResolveRules(explicit, os.Getenv("RULES_FILE"))
	if err != nil {
		return classify.Rules{}, path, fmt.Errorf("load rules: %w", err)
	}
	return rules, path, nil
}

func newAssembler(cmd *cobra.Command, log *slog.Logger) (*report.Assembler, error) {
	rules, path, err := loadRules(cmd)
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Debug("using rules file", "path", path)
	}
	c, err := classify.New(rules)
	if err != nil {
		return nil, err
	}
	return report.NewAssembler(c, log), nil
}
