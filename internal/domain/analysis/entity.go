package analysis

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an analysis does not exist for the tenant.
var ErrNotFound = errors.New("analysis not found")

// ID identifier type
type ID string

// Record is a completed report analysis stored for history and retrieval.
// Question/answer exchanges are not part of it.
type Record struct {
	ID         ID        `json:"id"`
	TenantID   string    `json:"tenant_id"`
	ReportText string    `json:"report_text"`
	ReportType string    `json:"report_type"`
	RiskLevel  string    `json:"risk_level"`
	Result     string    `json:"result"` // AnalysisResult as JSON
	ImageURL   string    `json:"image_url,omitempty"`
	Degraded   bool      `json:"degraded"`
	CreatedAt  time.Time `json:"created_at"`
}
