package stageerrors

import "time"

// Pipeline stages that can degrade.
const (
	StageSummarization  = "summarization"
	StageClassification = "classification"
	StageNER            = "ner"
	StageAnalysis       = "analysis"
	StageOCR            = "ocr"
)

// StageError is a persisted record of a pipeline stage that fell back.
type StageError struct {
	ID          int64     `json:"id"`
	TenantID    string    `json:"tenant_id"`
	AnalysisID  string    `json:"analysis_id"`
	Stage       string    `json:"stage"`
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
