package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medreport-ai/internal/domain/report"
)

func TestMarkdown(t *testing.T) {
	score := 0.9
	res := report.AnalysisResult{
		ReportType:         report.TypeMammography,
		RiskLevel:          report.RiskHigh,
		Summary:            "Mass in left breast.",
		KeyFindings:        "BI-RADS 5",
		Entities:           []report.Entity{{Text: "2.1 cm", Type: report.EntityMeasurement, Category: "Size/Dimension"}, {Text: "a|b", Type: report.EntityGeneric, Score: &score}},
		PatientExplanation: "📋 What is this report?",
		Recommendations:    report.GenerateRecommendations(report.RiskHigh),
	}
	qa := []report.QAExchange{{Question: "How big?", Answer: "2.1 cm"}}

	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, res, qa))
	out := buf.String()

	assert.Contains(t, out, "# Medical Report Analysis")
	assert.Contains(t, out, "Mammography Report")
	assert.Contains(t, out, "## Recommendations")
	assert.Contains(t, out, "- ⚠️ URGENT")
	assert.Contains(t, out, `a\|b`)
	assert.Contains(t, out, "0.90")
	assert.Contains(t, out, "How big?")
	assert.Contains(t, out, "[!WARNING]")
}

func TestMarkdown_NoEntities(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, report.AnalysisResult{RiskLevel: report.RiskLow}, nil))
	assert.Contains(t, buf.String(), "No entities detected.")
	assert.NotContains(t, buf.String(), "## Questions")
}

func TestDegradedStages(t *testing.T) {
	msg := "x"
	assert.Equal(t, []string{"summarization", "entity extraction"}, degradedStages(report.AnalysisErrors{Summarization: &msg, NER: &msg}))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]int{"a": 1}))
	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1, got["a"])
}
