package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeyFindings_SectionAndMarkers(t *testing.T) {
	text := "History: lump.\nIMPRESSION: Irregular mass, highly suspicious.\n\nSigned."
	entities := []Entity{
		{Text: "2.1 cm", Type: EntityMeasurement},
		{Text: "left breast", Type: EntityAnatomy},
		{Text: "Stage II", Type: EntityStaging},
	}
	got := ExtractKeyFindings(text, entities)
	assert.Equal(t, "Irregular mass, highly suspicious.\n\nKey markers identified: 2.1 cm, Stage II", got)
}

func TestExtractKeyFindings_MarkerLimit(t *testing.T) {
	var entities []Entity
	for i := 0; i < 8; i++ {
		entities = append(entities, Entity{Text: "m", Type: EntityBiomarker})
	}
	got := ExtractKeyFindings("no labels", entities)
	assert.Equal(t, "Key markers identified: m, m, m, m, m", got)
}

func TestExtractKeyFindings_SectionClipped(t *testing.T) {
	got := ExtractKeyFindings("Conclusion: "+strings.Repeat("a", 500), nil)
	assert.Len(t, got, 200)
}

func TestExtractKeyFindings_Preview(t *testing.T) {
	short := "Patient seen for routine visit"
	assert.Equal(t, short, ExtractKeyFindings(short, nil))

	long := strings.Repeat("x", 350)
	got := ExtractKeyFindings(long, nil)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, 303)
}

func TestGenerateRecommendations(t *testing.T) {
	high := GenerateRecommendations(RiskHigh)
	assert.True(t, strings.HasPrefix(high, "⚠️ URGENT"))
	assert.True(t, strings.HasSuffix(high, "Discuss these results with your healthcare provider.\nKeep a copy of this report for your medical records."))

	unknown := strings.Split(GenerateRecommendations(RiskUnknown), "\n")
	assert.Len(t, unknown, 4)
	assert.Equal(t, unknown, strings.Split(GenerateRecommendations("bogus"), "\n"))
}

func TestFallbackSummary(t *testing.T) {
	got := FallbackSummary("The patient has a mass. Ok. It measures two centimeters in size! Third sentence is here? Fourth sentence is ignored.")
	assert.Equal(t, "The patient has a mass. It measures two centimeters in size. Third sentence is here.", got)

	assert.Equal(t, PlaceholderSummary, FallbackSummary("Short. Tiny!"))
	assert.Equal(t, PlaceholderSummary, FallbackSummary(""))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "héll", Clip("héllo", 4))
	assert.Equal(t, "abc", Clip("abc", 10))
	assert.Equal(t, "abc", Clip("abc", 0))
}
