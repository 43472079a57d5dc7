// internal/workers/analysis/record-analysis-result/models.go
package recordanalysisresult

import (
	"context"
	"encoding/json"

	"site-analytics/internal/models"
)

type Input struct {
	AnalysisID string          `json:"analysis_id"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type Output struct {
	AnalysisID string                `json:"analysis_id"`
	Status     models.AnalysisStatus `json:"status"`
}

// Recorder persists the outcome of one analysis row.
type Recorder interface {
	Complete(ctx context.Context, id string, result interface{}) error
	Fail(ctx context.Context, id, message string) error
}
