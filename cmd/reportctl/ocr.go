package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/medreport-ai/internal/middleware"
)

// NewOCRCmd creates the ocr command.
func NewOCRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr",
		Short: "Extract report text from an image",
		Long: `OCR transcribes a photographed or scanned report with the vision model and
cleans the extracted text. Requires a completion service API key.

Example:
  reportctl ocr --image scan.jpg > report.txt`,
		Args: cobra.NoArgs,
		RunE: runOCRCmd,
	}
	cmd.Flags().StringP("image", "i", "", "Image file (jpeg, png, webp, gif)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func runOCRCmd(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("image")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if len(data) > middleware.MaxImageBytes {
		return fmt.Errorf("image exceeds %d bytes", middleware.MaxImageBytes)
	}
	mime := http.DetectContentType(data)
	if err := middleware.ValidateImageMIME(mime); err != nil {
		return err
	}

	d, err := newDeps(cmd)
	if err != nil {
		return err
	}
	text, err := d.ocr.Process(cmd.Context(), data, mime)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
