// internal/workers/communication/publish-analysis-event/models.go
package publishanalysisevent

import (
	"context"
	"time"

	"site-analytics/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/sns"
)

const EventAnalysisCompleted = "analysis.completed"

type AnalysisRef struct {
	ID     string                `json:"id"`
	Type   models.AnalysisType   `json:"analysis_type"`
	Status models.AnalysisStatus `json:"status"`
	Error  string                `json:"error,omitempty"`
}

type Input struct {
	ProjectID string        `json:"project_id"`
	Analyses  []AnalysisRef `json:"analyses"`
}

type Output struct {
	MessageID string `json:"message_id"`
	Published bool   `json:"published"`
}

// Event is the JSON body published to the topic.
type Event struct {
	Event      string        `json:"event"`
	ProjectID  string        `json:"project_id"`
	Analyses   []AnalysisRef `json:"analyses"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Publisher delivers a message to a topic.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}
