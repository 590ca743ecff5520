package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	categoryMeasurement = "Size/Dimension"
	categoryStaging     = "Cancer Stage/Grade"
	categoryBiomarker   = "Biomarker"
)

var (
	measurementPattern = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(mm|cm|centimeter|millimeter)`)
	stagingPattern     = regexp.MustCompile(`(?i)(stage|grade)\s*(i{1,3}v?|[1-4]|[a-c])`)
	jsonArrayPattern   = regexp.MustCompile(`\[[\s\S]*\]`)
)

// Biomarkers is the fixed vocabulary scanned by ExtractLocalEntities.
var Biomarkers = []string{"HER2", "ER", "PR", "Ki-67", "PD-L1", "BRCA1", "BRCA2", "EGFR", "ALK"}

var biomarkerPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(Biomarkers))
	for _, m := range Biomarkers {
		out = append(out, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(m)+`[\s:]*([\w+-]+)?`))
	}
	return out
}()

// ErrNoEntityArray is returned when a completion holds no bracketed JSON array.
var ErrNoEntityArray = errors.New("no JSON array in completion")

// ExtractLocalEntities scans text for measurements, staging and biomarkers,
// in that group order. Matches are unanchored and may overlap across groups
// (e.g. "ER" inside "HER2").
func ExtractLocalEntities(text string) []Entity {
	var out []Entity
	for _, m := range measurementPattern.FindAllString(text, -1) {
		out = append(out, Entity{Text: m, Type: EntityMeasurement, Category: categoryMeasurement})
	}
	for _, m := range stagingPattern.FindAllString(text, -1) {
		out = append(out, Entity{Text: m, Type: EntityStaging, Category: categoryStaging})
	}
	for _, re := range biomarkerPatterns {
		for _, m := range re.FindAllString(text, -1) {
			out = append(out, Entity{Text: m, Type: EntityBiomarker, Category: categoryBiomarker})
		}
	}
	return out
}

// ParseRemoteEntities decodes the first-to-last bracketed span of a
// completion as a JSON array. Elements may be plain strings or objects using
// "word"/"text" for the span and "entity"/"label"/"type" for the type.
// Types outside the closed EntityType set become EntityGeneric.
func ParseRemoteEntities(content string) ([]Entity, error) {
	span := jsonArrayPattern.FindString(content)
	if span == "" {
		return nil, ErrNoEntityArray
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, fmt.Errorf("decode entity array: %w", err)
	}

	out := make([]Entity, 0, len(raw))
	for _, item := range raw {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, Entity{Text: s, Type: EntityGeneric, Score: floatPtr(1.0)})
			}
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		text := firstString(obj, "word", "text")
		if text == "" {
			continue
		}
		typ := ParseEntityType(firstString(obj, "entity", "label", "type"))
		score := 1.0
		if v, ok := obj["score"].(float64); ok && v != 0 {
			score = v
		}
		out = append(out, Entity{
			Text:     text,
			Type:     typ,
			Category: firstString(obj, "category"),
			Score:    floatPtr(score),
		})
	}
	return out, nil
}

// ParseEntityType maps a label onto the closed EntityType set, ignoring
// case and surrounding space. Unknown labels yield EntityGeneric.
func ParseEntityType(label string) EntityType {
	t := EntityType(strings.ToUpper(strings.TrimSpace(label)))
	switch t {
	case EntityMeasurement, EntityStaging, EntityBiomarker, EntityDiagnosis,
		EntityProcedure, EntityMedication, EntityAnatomy:
		return t
	}
	return EntityGeneric
}

// MergeEntities concatenates remote then local entities. Overlapping spans
// are kept twice.
func MergeEntities(remote, local []Entity) []Entity {
	out := make([]Entity, 0, len(remote)+len(local))
	out = append(out, remote...)
	return append(out, local...)
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func floatPtr(f float64) *float64 { return &f }
