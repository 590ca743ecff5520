package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/medreport-ai/internal/infra/render"
	"github.com/bryanwahyu/medreport-ai/internal/middleware"
)

const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full analysis on a report",
		Long: `Analyze classifies the report type and risk level, extracts medical entities,
summarizes the report and writes a patient-friendly explanation.

Examples:
  reportctl analyze --file report.txt
  reportctl analyze --file report.txt --format markdown
  cat report.txt | reportctl analyze --file -`,
		Args: cobra.NoArgs,
		RunE: runAnalyzeCmd,
	}
	cmd.Flags().StringP("file", "f", "", "Report text file (- for stdin)")
	cmd.Flags().StringP("format", "o", formatJSON, "Output format: json or markdown")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != formatJSON && format != formatMarkdown {
		return fmt.Errorf("unknown format %q (use json or markdown)", format)
	}

	text, err := readReport(cmd)
	if err != nil {
		return err
	}
	if err := middleware.ValidateReportText(text, 0); err != nil {
		return err
	}
	d, err := newDeps(cmd)
	if err != nil {
		return err
	}

	res := d.analyzer.AnalyzeFullReport(cmd.Context(), text)
	if format == formatMarkdown {
		return render.Markdown(cmd.OutOrStdout(), res, nil)
	}
	return render.JSON(cmd.OutOrStdout(), res)
}
