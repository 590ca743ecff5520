package report

// ReportType is the coarse category assigned to a report.
type ReportType string

const (
	TypeMRI         ReportType = "MRI Report"
	TypeCT          ReportType = "CT Scan Report"
	TypePET         ReportType = "PET Scan Report"
	TypeMammography ReportType = "Mammography Report"
	TypeXRay        ReportType = "X-Ray Report"
	TypeUltrasound  ReportType = "Ultrasound Report"
	TypeGenetic     ReportType = "Genetic Testing Report"
	TypeTumorMarker ReportType = "Tumor Marker Report"
	TypeBloodTest   ReportType = "Blood Test Report"
	TypePathology   ReportType = "Pathology/Biopsy Report"
	TypeGeneric     ReportType = "Medical Report"
)

// RiskLevel is a keyword-severity triage label, not a clinical score.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "High Risk"
	RiskMedium  RiskLevel = "Medium Risk"
	RiskLow     RiskLevel = "Low Risk"
	RiskUnknown RiskLevel = "Requires Review"
)

// EntityType enum
type EntityType string

const (
	EntityMeasurement EntityType = "MEASUREMENT"
	EntityStaging     EntityType = "STAGING"
	EntityBiomarker   EntityType = "BIOMARKER"
	EntityDiagnosis   EntityType = "DIAGNOSIS"
	EntityProcedure   EntityType = "PROCEDURE"
	EntityMedication  EntityType = "MEDICATION"
	EntityAnatomy     EntityType = "ANATOMY"
	EntityGeneric     EntityType = "ENTITY"
)

// Entity is a span of report text tagged with a medical category.
// Remote entities carry Score and, when supplied, Category; regex entities
// always carry Category.
type Entity struct {
	Text     string     `json:"text"`
	Type     EntityType `json:"type"`
	Category string     `json:"category,omitempty"`
	Score    *float64   `json:"score,omitempty"`
}

// AnalysisErrors holds the error message of each remote stage. A nil field
// means the stage succeeded.
type AnalysisErrors struct {
	Summarization  *string `json:"summarization"`
	Classification *string `json:"classification"`
	NER            *string `json:"ner"`
}

// Any reports whether at least one stage degraded.
func (e AnalysisErrors) Any() bool {
	return e.Summarization != nil || e.Classification != nil || e.NER != nil
}

// AnalysisResult is the aggregate produced by one analysis run.
type AnalysisResult struct {
	ReportType         ReportType     `json:"report_type"`
	RiskLevel          RiskLevel      `json:"risk_level"`
	Summary            string         `json:"summary"`
	KeyFindings        string         `json:"key_findings"`
	Entities           []Entity       `json:"entities"`
	PatientExplanation string         `json:"patient_explanation"`
	Recommendations    string         `json:"recommendations"`
	Errors             AnalysisErrors `json:"errors"`

	// Error is set only when the orchestration itself failed and the result
	// carries the generic degraded wording.
	Error string `json:"error,omitempty"`
}

// QAExchange is one question/answer pair of a report session.
type QAExchange struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Score    *float64 `json:"score,omitempty"`
}
