package report

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Wording of a result whose orchestration failed.
const (
	UnavailableFindings        = "Analysis could not be completed. Please try again."
	UnavailableSummary         = "Error occurred during analysis."
	UnavailableRecommendations = "Please consult with your healthcare provider."
)

// PlaceholderSummary is used when no sentence of the report qualifies for the
// extractive summary.
const PlaceholderSummary = "Report content processed. Please review the key findings above."

const (
	findingRunes = 200
	previewRunes = 300
	markerLimit  = 5
)

var (
	sectionPattern  = regexp.MustCompile(`(?i)(?:impression|conclusion|findings|diagnosis)[:\s]*([\s\S]*?)(?:\n\n|$)`)
	sentenceSplit   = regexp.MustCompile(`[.!?]+`)
	keyMarkerTypes  = map[EntityType]bool{EntityStaging: true, EntityBiomarker: true, EntityMeasurement: true}
	closingAdvice   = []string{"Discuss these results with your healthcare provider.", "Keep a copy of this report for your medical records."}
	recommendations = map[RiskLevel][]string{
		RiskHigh: {
			"⚠️ URGENT: Schedule an appointment with your oncologist immediately.",
			"Consider seeking a second opinion from a specialized cancer center.",
			"Discuss treatment options and timeline with your care team.",
		},
		RiskMedium: {
			"Schedule a follow-up appointment with your doctor within 1-2 weeks.",
			"Additional diagnostic tests may be recommended.",
			"Monitor for any new symptoms and report them promptly.",
		},
		RiskLow: {
			"Continue with routine screening as recommended by your doctor.",
			"Maintain a healthy lifestyle with regular exercise and balanced diet.",
			"Schedule your next routine check-up as advised.",
		},
		RiskUnknown: {
			"Schedule a follow-up appointment to discuss these results.",
			"Your healthcare provider can explain the findings in detail.",
		},
	}
)

// ExtractKeyFindings combines the text after an impression/conclusion/
// findings/diagnosis label with up to five staging, biomarker or measurement
// entities. A 300 character preview is used only when both are absent.
func ExtractKeyFindings(text string, entities []Entity) string {
	var findings []string

	if m := sectionPattern.FindStringSubmatch(text); m != nil {
		if section := Clip(strings.TrimSpace(m[1]), findingRunes); section != "" {
			findings = append(findings, section)
		}
	}

	var markers []string
	for _, e := range entities {
		if len(markers) == markerLimit {
			break
		}
		if keyMarkerTypes[e.Type] {
			markers = append(markers, e.Text)
		}
	}
	if len(markers) > 0 {
		findings = append(findings, "Key markers identified: "+strings.Join(markers, ", "))
	}

	if len(findings) == 0 {
		preview := strings.TrimSpace(Clip(text, previewRunes))
		if utf8.RuneCountInString(text) > previewRunes {
			preview += "..."
		}
		findings = append(findings, preview)
	}
	return strings.Join(findings, "\n\n")
}

// GenerateRecommendations returns newline separated advice for a risk level,
// always closed by the two standard lines.
func GenerateRecommendations(risk RiskLevel) string {
	lines, ok := recommendations[risk]
	if !ok {
		lines = recommendations[RiskUnknown]
	}
	out := make([]string, 0, len(lines)+len(closingAdvice))
	out = append(out, lines...)
	out = append(out, closingAdvice...)
	return strings.Join(out, "\n")
}

// FallbackSummary joins the first three sentence-like segments longer than
// ten characters.
func FallbackSummary(text string) string {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > 10 {
			sentences = append(sentences, s)
		}
		if len(sentences) == 3 {
			break
		}
	}
	if len(sentences) == 0 {
		return PlaceholderSummary
	}
	return strings.Join(sentences, ". ") + "."
}

// Clip returns at most n runes of s.
func Clip(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
