package report_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appreport "github.com/bryanwahyu/medreport-ai/internal/application/report"
	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
	"github.com/bryanwahyu/medreport-ai/internal/domain/report"
)

const sampleReport = `SURGICAL PATHOLOGY REPORT
Specimen: left breast core biopsy.
Tumor size: 1.8 cm, Stage IA, HER2: Negative, ER positive.

DIAGNOSIS: Invasive ductal carcinoma, grade 2.

Signed out by the attending pathologist.`

// stubCompleter answers by request kind, chosen from the system prompt.
type stubCompleter struct {
	mu       sync.Mutex
	calls    map[string]int
	summary  string
	entities string
	answer   string
	err      error
	panicOn  string
}

func (s *stubCompleter) Complete(_ context.Context, messages []domai.Message, _ int) (string, error) {
	kind := "answer"
	switch {
	case strings.Contains(messages[0].Content, "summarization"):
		kind = "summary"
	case strings.Contains(messages[0].Content, "entity extraction"):
		kind = "entities"
	}

	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[kind]++
	s.mu.Unlock()

	if kind == s.panicOn {
		panic("boom")
	}
	if s.err != nil {
		return "", s.err
	}
	switch kind {
	case "summary":
		return s.summary, nil
	case "entities":
		return s.entities, nil
	}
	return s.answer, nil
}

func (s *stubCompleter) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAnalyzer(c domai.Completer) *appreport.Analyzer {
	return appreport.NewAnalyzer(c, appreport.WithLogger(discardLogger()))
}

func TestAnalyzeFullReport_HappyPath(t *testing.T) {
	stub := &stubCompleter{
		summary:  "Remote summary.",
		entities: `[{"text":"invasive ductal carcinoma","type":"DIAGNOSIS","category":"Diagnosis"}]`,
	}
	res := newAnalyzer(stub).AnalyzeFullReport(context.Background(), sampleReport)

	assert.Equal(t, report.TypePathology, res.ReportType)
	assert.Equal(t, report.RiskMedium, res.RiskLevel)
	assert.Equal(t, "Remote summary.", res.Summary)
	assert.False(t, res.Errors.Any())
	assert.Empty(t, res.Error)

	require.NotEmpty(t, res.Entities)
	assert.Equal(t, "invasive ductal carcinoma", res.Entities[0].Text)
	assert.Equal(t, report.EntityDiagnosis, res.Entities[0].Type)
	assert.Equal(t, report.EntityMeasurement, res.Entities[1].Type)

	assert.True(t, strings.HasPrefix(res.KeyFindings, "Invasive ductal carcinoma, grade 2."))
	assert.Contains(t, res.KeyFindings, "Key markers identified: 1.8 cm")
	assert.Contains(t, res.PatientExplanation, "What is this report?")
	assert.True(t, strings.HasSuffix(res.Recommendations, "Keep a copy of this report for your medical records."))

	assert.Equal(t, 1, stub.count("summary"))
	assert.Equal(t, 1, stub.count("entities"))
	assert.Equal(t, 0, stub.count("answer"))
}

func TestAnalyzeFullReport_ServiceDown(t *testing.T) {
	stub := &stubCompleter{err: errors.New("dial tcp: connection refused")}
	res := newAnalyzer(stub).AnalyzeFullReport(context.Background(), sampleReport)

	assert.Equal(t, report.FallbackSummary(sampleReport), res.Summary)
	require.NotNil(t, res.Errors.Summarization)
	assert.Contains(t, *res.Errors.Summarization, "connection refused")
	assert.Nil(t, res.Errors.NER)
	assert.Nil(t, res.Errors.Classification)

	assert.NotEmpty(t, res.PatientExplanation)
	assert.Equal(t, report.ExtractLocalEntities(sampleReport), res.Entities)

	// no retries
	assert.Equal(t, 1, stub.count("summary"))
	assert.Equal(t, 1, stub.count("entities"))
}

func TestAnalyzeFullReport_NoCompleter(t *testing.T) {
	res := newAnalyzer(nil).AnalyzeFullReport(context.Background(), "Tumor size: 1.8 cm, Stage IA, HER2: Negative")
	require.NotNil(t, res.Errors.Summarization)
	assert.Equal(t, appreport.ErrNoCompleter.Error(), *res.Errors.Summarization)
	assert.NotEmpty(t, res.Summary)

	var types []report.EntityType
	for _, e := range res.Entities {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, report.EntityMeasurement)
	assert.Contains(t, types, report.EntityStaging)
	assert.Contains(t, types, report.EntityBiomarker)
}

func TestAnalyzeFullReport_EmptyAndUnrecognised(t *testing.T) {
	a := newAnalyzer(&stubCompleter{summary: "ok", entities: "[]"})
	for _, text := range []string{"", "hello there"} {
		res := a.AnalyzeFullReport(context.Background(), text)
		assert.Equal(t, report.TypeGeneric, res.ReportType)
		assert.Equal(t, report.RiskUnknown, res.RiskLevel)
		assert.NotNil(t, res.Entities)
		assert.NotEmpty(t, res.PatientExplanation)
		assert.NotEmpty(t, res.Recommendations)
	}
}

func TestAnalyzeFullReport_MalformedEntities(t *testing.T) {
	stub := &stubCompleter{summary: "s", entities: "Sorry, I cannot produce JSON."}
	res := newAnalyzer(stub).AnalyzeFullReport(context.Background(), sampleReport)

	assert.Nil(t, res.Errors.NER)
	assert.Equal(t, report.ExtractLocalEntities(sampleReport), res.Entities)
}

func TestAnalyzeFullReport_StagePanicIsContained(t *testing.T) {
	stub := &stubCompleter{entities: "[]", panicOn: "summary"}
	res := newAnalyzer(stub).AnalyzeFullReport(context.Background(), sampleReport)

	require.NotNil(t, res.Errors.Summarization)
	assert.Contains(t, *res.Errors.Summarization, "panicked")
	assert.Equal(t, report.FallbackSummary(sampleReport), res.Summary)
	assert.Equal(t, report.TypePathology, res.ReportType)
}

func TestAnalyzeFullReport_EntityPanicFallsBackToRegex(t *testing.T) {
	stub := &stubCompleter{summary: "s", panicOn: "entities"}
	res := newAnalyzer(stub).AnalyzeFullReport(context.Background(), sampleReport)

	assert.Nil(t, res.Errors.NER)
	assert.Equal(t, report.ExtractLocalEntities(sampleReport), res.Entities)
}

func TestAnalyzeFullReport_BoundsInput(t *testing.T) {
	a := appreport.NewAnalyzer(nil, appreport.WithLogger(discardLogger()), appreport.WithMaxChars(10))
	res := a.AnalyzeFullReport(context.Background(), "benign lesion "+strings.Repeat("malignant ", 100))
	assert.Equal(t, report.RiskLow, res.RiskLevel)
}

func TestAnswerQuestion(t *testing.T) {
	stub := &stubCompleter{answer: "The tumor is 1.8 cm."}
	ans := newAnalyzer(stub).AnswerQuestion(context.Background(), sampleReport, "How big is the tumor?")

	require.NotNil(t, ans.Answer)
	assert.Equal(t, "The tumor is 1.8 cm.", *ans.Answer)
	assert.Equal(t, 1.0, ans.Score)
	assert.Nil(t, ans.Error)
}

func TestAnswerQuestion_Failure(t *testing.T) {
	stub := &stubCompleter{err: domai.ErrQuotaExceeded}
	ans := newAnalyzer(stub).AnswerQuestion(context.Background(), sampleReport, "How big?")

	assert.Nil(t, ans.Answer)
	assert.Equal(t, 0.0, ans.Score)
	require.NotNil(t, ans.Error)
	assert.Contains(t, *ans.Error, "quota")
}

func TestAnswerQuestion_Concurrent(t *testing.T) {
	stub := &stubCompleter{answer: "yes"}
	a := newAnalyzer(stub)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ans := a.AnswerQuestion(context.Background(), sampleReport, "q")
			assert.NotNil(t, ans.Answer)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, stub.count("answer"))
}

func TestSummarize_ResultTagging(t *testing.T) {
	ok := newAnalyzer(&stubCompleter{summary: "fine"}).Summarize(context.Background(), sampleReport)
	assert.True(t, ok.OK())
	assert.Nil(t, ok.ErrString())

	bad := newAnalyzer(&stubCompleter{err: errors.New("502")}).Summarize(context.Background(), sampleReport)
	assert.False(t, bad.OK())
	require.NotNil(t, bad.ErrString())
	assert.Equal(t, "502", *bad.ErrString())
}

func TestAnalyzeFullReport_EmptyCompletionIsNotAFailure(t *testing.T) {
	stub := &stubCompleter{err: domai.ErrEmptyCompletion}
	a := newAnalyzer(stub)

	res := a.AnalyzeFullReport(context.Background(), sampleReport)
	assert.Equal(t, report.FallbackSummary(sampleReport), res.Summary)
	assert.Nil(t, res.Errors.Summarization)
	assert.False(t, res.Errors.Any())

	ans := a.AnswerQuestion(context.Background(), sampleReport, "How big?")
	assert.Nil(t, ans.Answer)
	assert.Nil(t, ans.Error)
	assert.Zero(t, ans.Score)
}
