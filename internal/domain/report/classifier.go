package report

import "strings"

type typeRule struct {
	label    ReportType
	keywords []string
}

// Imaging types come first, pathology last: many reports mention a specimen
// or carcinoma in passing.
var reportTypeRules = []typeRule{
	{TypeMRI, []string{"mri", "magnetic resonance", "t1-weighted", "t2-weighted", "t1 weighted", "t2 weighted"}},
	{TypeCT, []string{"ct scan", "computed tomography", "ct findings", "ct report", "cat scan"}},
	{TypePET, []string{"pet scan", "pet-ct", "pet ct", "fdg uptake", "fdg-pet", "positron emission"}},
	{TypeMammography, []string{"mammogram", "mammography", "breast imaging", "bi-rads", "birads"}},
	{TypeXRay, []string{"x-ray", "xray", "radiograph", "chest x-ray", "chest xray", "radiographic"}},
	{TypeUltrasound, []string{"ultrasound", "sonography", "sonogram", "doppler", "echography", "usg"}},
	{TypeGenetic, []string{"genetic test", "brca1", "brca2", "mutation analysis", "genomic", "gene panel", "dna analysis", "sequencing"}},
	{TypeTumorMarker, []string{"tumor marker", "ca-125", "ca 125", "cea level", "psa level", "afp level", "ca19-9", "ca 19-9"}},
	{TypeBloodTest, []string{"blood test", "blood work", "cbc", "complete blood count", "hemoglobin", "hematology", "serum", "blood panel", "wbc count", "rbc count", "platelet count", "blood chemistry"}},
	{TypePathology, []string{"biopsy report", "pathology report", "histopathology", "histology report", "surgical pathology", "cytology", "tissue examination", "microscopic examination", "adenocarcinoma", "carcinoma", "malignant", "benign lesion"}},
}

type riskRule struct {
	level RiskLevel
	terms []string
}

var riskRules = []riskRule{
	{RiskHigh, []string{
		"malignant", "metastasis", "stage iv", "stage 4", "advanced",
		"aggressive", "invasive carcinoma", "poorly differentiated",
		"high grade", "grade 3", "grade iii",
	}},
	{RiskMedium, []string{
		"suspicious", "atypical", "stage ii", "stage 2", "stage iii", "stage 3",
		"moderate", "intermediate", "grade 2", "grade ii",
	}},
	{RiskLow, []string{
		"benign", "negative", "normal", "no evidence", "stage i", "stage 1",
		"low grade", "grade 1", "grade i", "well differentiated",
	}},
}

// DetectReportType returns the label of the first rule with a keyword
// contained in text, or TypeGeneric.
func DetectReportType(text string) ReportType {
	lower := strings.ToLower(text)
	for _, r := range reportTypeRules {
		if containsAny(lower, r.keywords) {
			return r.label
		}
	}
	return TypeGeneric
}

// DetectRiskLevel checks high, medium and low terms in that order.
func DetectRiskLevel(text string) RiskLevel {
	lower := strings.ToLower(text)
	for _, r := range riskRules {
		if containsAny(lower, r.terms) {
			return r.level
		}
	}
	return RiskUnknown
}

// Classification pairs both labels of a report.
type Classification struct {
	ReportType ReportType `json:"report_type"`
	RiskLevel  RiskLevel  `json:"risk_level"`
}

// Classify runs both detectors.
func Classify(text string) Classification {
	return Classification{
		ReportType: DetectReportType(text),
		RiskLevel:  DetectRiskLevel(text),
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
