package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/bryanwahyu/medreport-ai/internal/domain/report"
)

// Markdown writes an analysis result, followed by any question/answer
// exchanges, as GitHub-flavored Markdown.
func Markdown(w io.Writer, res report.AnalysisResult, qa []report.QAExchange) error {
	md := markdown.NewMarkdown(w)

	md.H1("Medical Report Analysis")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Report Type", "Risk Level", "Entities"},
		Rows:   [][]string{{string(res.ReportType), string(res.RiskLevel), fmt.Sprint(len(res.Entities))}},
	})
	md.PlainText("")
	writeAlert(md, res)

	section(md, "Summary", res.Summary)
	section(md, "Key Findings", res.KeyFindings)
	writeEntities(md, res.Entities)
	section(md, "What This Means For You", res.PatientExplanation)

	md.H2("Recommendations")
	md.PlainText("")
	md.BulletList(nonEmptyLines(res.Recommendations)...)
	md.PlainText("")

	if len(qa) > 0 {
		md.H2("Questions")
		md.PlainText("")
		for _, ex := range qa {
			md.Details(ex.Question, ex.Answer)
		}
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*This analysis is informational and does not replace advice from your healthcare provider.*")
	return md.Build()
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeAlert(md *markdown.Markdown, res report.AnalysisResult) {
	switch {
	case res.Error != "":
		md.Cautionf("The analysis could not be completed: %s", res.Error)
	case res.RiskLevel == report.RiskHigh:
		md.Warningf("%s: please contact your care team promptly.", res.RiskLevel)
	case res.Errors.Any():
		md.Importantf("Some analysis steps fell back to offline heuristics (%s).", strings.Join(degradedStages(res.Errors), ", "))
	case res.RiskLevel == report.RiskLow:
		md.Tip("No high-risk keywords were found in this report.")
	default:
		md.Note("Review these results with your healthcare provider.")
	}
	md.PlainText("")
}

func writeEntities(md *markdown.Markdown, entities []report.Entity) {
	md.H2("Medical Entities")
	md.PlainText("")
	if len(entities) == 0 {
		md.PlainText("No entities detected.")
		md.PlainText("")
		return
	}
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		score := ""
		if e.Score != nil {
			score = fmt.Sprintf("%.2f", *e.Score)
		}
		rows = append(rows, []string{cell(e.Text), string(e.Type), e.Category, score})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Text", "Type", "Category", "Score"},
		Rows:   rows,
	})
	md.PlainText("")
}

func section(md *markdown.Markdown, title, body string) {
	md.H2(title)
	md.PlainText("")
	md.PlainText(body)
	md.PlainText("")
}

func degradedStages(e report.AnalysisErrors) []string {
	var out []string
	if e.Summarization != nil {
		out = append(out, "summarization")
	}
	if e.Classification != nil {
		out = append(out, "classification")
	}
	if e.NER != nil {
		out = append(out, "entity extraction")
	}
	return out
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// cell keeps table rows on one line.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
