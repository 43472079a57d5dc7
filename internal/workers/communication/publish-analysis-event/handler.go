// internal/workers/communication/publish-analysis-event/handler.go
package publishanalysisevent

import (
	"context"
	"encoding/json"
	"time"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/common/metrics"
	"site-analytics/internal/models"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "publish-analysis-event"
)

type Handler struct {
	config    *Config
	publisher Publisher
	logger    logger.Logger
	now       func() time.Time
}

// NewHandler accepts a nil publisher; events are then dropped with a debug log.
func NewHandler(config *Config, publisher Publisher, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		publisher: publisher,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:       time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		camunda.FailJob(client, job, errors.NewValidationErrorf("parse input: %v", err), h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		camunda.FailJob(client, job, err, h.logger)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ProjectID == "" {
		return nil, errors.NewValidationError("project_id is required")
	}
	if h.publisher == nil || h.config.TopicARN == "" {
		h.logger.Debug("event publication disabled", map[string]interface{}{"projectId": input.ProjectID})
		return &Output{}, nil
	}

	event := Event{
		Event:      EventAnalysisCompleted,
		ProjectID:  input.ProjectID,
		Analyses:   input.Analyses,
		OccurredAt: h.now().UTC(),
	}
	for _, a := range input.Analyses {
		switch a.Status {
		case models.AnalysisStatusCompleted:
			event.Completed++
		case models.AnalysisStatusFailed:
			event.Failed++
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	out, err := h.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(h.config.TopicARN),
		Message:  awssdk.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: awssdk.String("String"), StringValue: awssdk.String(EventAnalysisCompleted)},
			"project_id": {DataType: awssdk.String("String"), StringValue: awssdk.String(input.ProjectID)},
		},
	})
	if err != nil {
		metrics.ExternalAPICalls.WithLabelValues("sns", "error").Inc()
		return nil, errors.NewNotificationSendFailedError("sns", err)
	}
	metrics.ExternalAPICalls.WithLabelValues("sns", "ok").Inc()

	messageID := awssdk.ToString(out.MessageId)
	h.logger.Info("analysis event published", map[string]interface{}{
		"projectId": input.ProjectID,
		"completed": event.Completed,
		"failed":    event.Failed,
		"messageId": messageID,
	})

	return &Output{MessageID: messageID, Published: true}, nil
}
