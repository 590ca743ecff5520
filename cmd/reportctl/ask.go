package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appsession "github.com/bryanwahyu/medreport-ai/internal/application/session"
	"github.com/bryanwahyu/medreport-ai/internal/middleware"
)

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer a question using only the report text",
		Long: `Ask sends one question together with the report to the completion service.
The answer is grounded in the report; when no answer is available a fixed
apology is printed instead.

Example:
  reportctl ask --file report.txt --question "What is the tumor size?"`,
		Args: cobra.NoArgs,
		RunE: runAskCmd,
	}
	cmd.Flags().StringP("file", "f", "", "Report text file (- for stdin)")
	cmd.Flags().StringP("question", "q", "", "Question about the report")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func runAskCmd(cmd *cobra.Command, _ []string) error {
	question, _ := cmd.Flags().GetString("question")
	if err := middleware.ValidateQuestion(question); err != nil {
		return err
	}
	text, err := readReport(cmd)
	if err != nil {
		return err
	}
	d, err := newDeps(cmd)
	if err != nil {
		return err
	}

	ans := d.analyzer.AnswerQuestion(cmd.Context(), text, question)
	if ans.Answer == nil {
		if ans.Error != nil {
			d.logger.Warn("question not answered", "error", *ans.Error)
		}
		fmt.Fprintln(cmd.OutOrStdout(), appsession.NoAnswer)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), *ans.Answer)
	return nil
}
