package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	appocr "github.com/bryanwahyu/medreport-ai/internal/application/ocr"
	appreport "github.com/bryanwahyu/medreport-ai/internal/application/report"
	"github.com/bryanwahyu/medreport-ai/internal/config"
	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
	aiopenai "github.com/bryanwahyu/medreport-ai/internal/infra/ai/openai"
)

// NewRootCmd creates the root command for reportctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reportctl",
		Short: "Analyze medical reports from the command line",
		Long: `reportctl classifies a medical report, extracts entities, summarizes it and
explains it in plain language. Remote stages use an OpenAI-compatible
completion service (GROQ_API_KEY or OPENAI_API_KEY); without a key, or with
--offline, every stage falls back to local heuristics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("config", "", "Path to a config.yaml (optional)")
	cmd.PersistentFlags().Bool("offline", false, "Skip the completion service")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewOCRCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// deps are the services a subcommand runs against.
type deps struct {
	analyzer *appreport.Analyzer
	ocr      *appocr.Service
	logger   *slog.Logger
}

// completerFactory builds the completion client; tests replace it.
var completerFactory = func(cfg aiopenai.Config) (domai.Completer, domai.Transcriber) {
	c := aiopenai.NewClient(cfg)
	return c, c
}

func newDeps(cmd *cobra.Command) (*deps, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	offline, _ := cmd.Flags().GetBool("offline")
	path, _ := cmd.Flags().GetString("config")

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var completer domai.Completer
	var vision domai.Transcriber
	if !offline && cfg.AI.APIKey != "" {
		completer, vision = completerFactory(aiopenai.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			VisionModel: cfg.AI.VisionModel,
			Temperature: cfg.AI.Temperature,
			TopP:        cfg.AI.TopP,
			Timeout:     cfg.AI.Timeout,
		})
	} else {
		logger.Debug("completion service disabled")
	}

	return &deps{
		analyzer: appreport.NewAnalyzer(completer,
			appreport.WithLogger(logger),
			appreport.WithMaxChars(cfg.Limits.MaxReportChars),
		),
		ocr:    appocr.NewService(vision, completer, logger),
		logger: logger,
	}, nil
}

// readReport reads the report from --file, or stdin when it is "-".
func readReport(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("file")
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(data), nil
}
