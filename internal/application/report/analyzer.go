package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
	"github.com/bryanwahyu/medreport-ai/internal/domain/report"
	"github.com/bryanwahyu/medreport-ai/internal/infra/ai/prompt"
)

// DefaultMaxChars bounds the report text fed to the regex scanners and the
// completion service.
const DefaultMaxChars = 100_000

// AnswerScore is reported for every successful answer. It is a constant,
// not a confidence measure.
const AnswerScore = 1.0

// ErrNoCompleter is returned by remote stages when no completion service is
// configured; the pipeline then runs on local fallbacks only.
var ErrNoCompleter = errors.New("completion service not configured")

// Answer is the outcome of one grounded question. Answer is nil and Score
// is 0 when the remote call failed.
type Answer struct {
	Answer *string `json:"answer"`
	Score  float64 `json:"score"`
	Error  *string `json:"error"`
}

// Analyzer runs the report-analysis pipeline. It holds no per-report state
// and is safe for concurrent use.
type Analyzer struct {
	ai       domai.Completer
	logger   *slog.Logger
	maxChars int
}

type Option func(*Analyzer)

func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMaxChars overrides DefaultMaxChars; n <= 0 disables the bound.
func WithMaxChars(n int) Option {
	return func(a *Analyzer) { a.maxChars = n }
}

func NewAnalyzer(client domai.Completer, opts ...Option) *Analyzer {
	a := &Analyzer{
		ai:       client,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxChars: DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summarize requests a short summary. On failure the Result carries the
// error and the caller applies report.FallbackSummary. An empty completion
// is not a failure: the Result is Ok("") and only the text falls back.
func (a *Analyzer) Summarize(ctx context.Context, text string) Result[string] {
	content, err := a.complete(ctx, prompt.Summary(a.bound(text)), prompt.SummaryTokens)
	if errors.Is(err, domai.ErrEmptyCompletion) {
		a.logger.Warn("report: summarization returned no content, using local fallback")
		return Ok("")
	}
	if err != nil {
		a.logger.Warn("report: summarization failed", "error", err)
		return Fail[string](err)
	}
	return Ok(content)
}

// Classify is the classification-confirmation branch. It re-runs the local
// classifier and only contributes to errors.classification.
func (a *Analyzer) Classify(_ context.Context, text string) Result[report.Classification] {
	return guard("classification", func() Result[report.Classification] {
		return Ok(report.Classify(a.bound(text)))
	})
}

// ExtractEntities merges completion-derived entities with local regex
// entities. Transport and parse failures both degrade to the regex list, so
// the returned Result never carries an error.
func (a *Analyzer) ExtractEntities(ctx context.Context, text string) Result[[]report.Entity] {
	text = a.bound(text)

	var remote []report.Entity
	content, err := a.complete(ctx, prompt.Entities(text), prompt.EntityTokens)
	if err != nil {
		a.logger.Warn("report: entity extraction failed, using regex entities", "error", err)
	} else if remote, err = report.ParseRemoteEntities(content); err != nil {
		a.logger.Warn("report: entity response not parseable, using regex entities", "error", err)
		remote = nil
	}

	return Ok(report.MergeEntities(remote, report.ExtractLocalEntities(text)))
}

// AnswerQuestion answers one question from the report text only. An empty
// completion yields neither an answer nor an error.
func (a *Analyzer) AnswerQuestion(ctx context.Context, text, question string) (ans Answer) {
	defer func() {
		if p := recover(); p != nil {
			msg := fmt.Sprintf("question answering panicked: %v", p)
			a.logger.Error("report: " + msg)
			ans = Answer{Error: &msg}
		}
	}()

	content, err := a.complete(ctx, prompt.Answer(a.bound(text), question), prompt.AnswerTokens)
	if errors.Is(err, domai.ErrEmptyCompletion) {
		return Answer{}
	}
	if err != nil {
		a.logger.Warn("report: question answering failed", "error", err)
		msg := err.Error()
		return Answer{Score: 0, Error: &msg}
	}
	return Answer{Answer: &content, Score: AnswerScore}
}

// AnalyzeFullReport never fails: remote failures degrade individual fields
// and any unexpected panic yields the generic degraded result.
func (a *Analyzer) AnalyzeFullReport(ctx context.Context, text string) (res report.AnalysisResult) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("analysis panicked: %v", p)
			a.logger.Error("report: full analysis failed", "error", err)
			res = degraded(text, err)
		}
	}()

	text = a.bound(text)
	reportType := report.DetectReportType(text)
	riskLevel := report.DetectRiskLevel(text)

	var (
		summary  Result[string]
		confirm  Result[report.Classification]
		entities Result[[]report.Entity]
		g        errgroup.Group
	)
	// Each branch records its own failure; none cancels the others.
	g.Go(func() error {
		summary = guard("summarization", func() Result[string] { return a.Summarize(ctx, text) })
		return nil
	})
	g.Go(func() error {
		confirm = a.Classify(ctx, text)
		return nil
	})
	g.Go(func() error {
		entities = guard("entity extraction", func() Result[[]report.Entity] { return a.ExtractEntities(ctx, text) })
		return nil
	})
	_ = g.Wait()

	summaryText := summary.Value
	if !summary.OK() || summaryText == "" {
		summaryText = report.FallbackSummary(text)
	}

	ents := entities.Value
	if !entities.OK() {
		a.logger.Warn("report: entity stage failed, using regex entities", "error", entities.Err)
		ents = report.ExtractLocalEntities(text)
	}
	if ents == nil {
		ents = []report.Entity{}
	}

	res = report.AnalysisResult{
		ReportType:         reportType,
		RiskLevel:          riskLevel,
		Summary:            summaryText,
		KeyFindings:        report.ExtractKeyFindings(text, ents),
		Entities:           ents,
		PatientExplanation: report.GeneratePatientExplanation(text, reportType, riskLevel, ents),
		Recommendations:    report.GenerateRecommendations(riskLevel),
		Errors: report.AnalysisErrors{
			Summarization:  summary.ErrString(),
			Classification: confirm.ErrString(),
		},
	}

	a.logger.Info("report: analysis completed",
		"report_type", reportType,
		"risk_level", riskLevel,
		"entities", len(ents),
		"degraded", res.Errors.Any(),
		"elapsed", time.Since(start),
	)
	return res
}

func (a *Analyzer) complete(ctx context.Context, messages []domai.Message, maxTokens int) (string, error) {
	if a.ai == nil {
		return "", ErrNoCompleter
	}
	return a.ai.Complete(ctx, messages, maxTokens)
}

func (a *Analyzer) bound(text string) string {
	return report.Clip(text, a.maxChars)
}

// degraded builds the result returned when orchestration itself failed.
// Labels are re-derived, defaulting if the classifier fails too.
func degraded(text string, cause error) report.AnalysisResult {
	c := report.Classification{ReportType: report.TypeGeneric, RiskLevel: report.RiskUnknown}
	if r := guard("classification", func() Result[report.Classification] { return Ok(report.Classify(text)) }); r.OK() {
		c = r.Value
	}
	return report.AnalysisResult{
		ReportType:         c.ReportType,
		RiskLevel:          c.RiskLevel,
		Summary:            report.UnavailableSummary,
		KeyFindings:        report.UnavailableFindings,
		Entities:           []report.Entity{},
		PatientExplanation: report.Unavailable,
		Recommendations:    report.UnavailableRecommendations,
		Error:              cause.Error(),
	}
}

// guard converts a panic inside a stage into a failed Result.
func guard[T any](stage string, fn func() Result[T]) (r Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			r = Fail[T](fmt.Errorf("%s panicked: %v", stage, p))
		}
	}()
	return fn()
}
