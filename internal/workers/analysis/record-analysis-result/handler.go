// internal/workers/analysis/record-analysis-result/handler.go
package recordanalysisresult

import (
	"context"
	"encoding/json"
	"strings"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-analysis-result"
)

type Handler struct {
	config   *Config
	recorder Recorder
	logger   logger.Logger
}

func NewHandler(config *Config, recorder Recorder, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		recorder: recorder,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if strings.TrimSpace(input.AnalysisID) == "" {
		return nil, errors.NewValidationError("analysis_id is required")
	}

	if input.Error != "" {
		if err := h.recorder.Fail(ctx, input.AnalysisID, input.Error); err != nil {
			return nil, err
		}
		h.logger.Warn("analysis recorded as failed", map[string]interface{}{
			"analysisId": input.AnalysisID,
			"reason":     input.Error,
		})
		return &Output{AnalysisID: input.AnalysisID, Status: models.AnalysisStatusFailed}, nil
	}

	if len(input.Result) == 0 || string(input.Result) == "null" {
		return nil, errors.NewValidationError("result or error is required")
	}
	if !json.Valid(input.Result) {
		return nil, errors.NewValidationError("result is not valid JSON")
	}

	if err := h.recorder.Complete(ctx, input.AnalysisID, input.Result); err != nil {
		return nil, err
	}
	return &Output{AnalysisID: input.AnalysisID, Status: models.AnalysisStatusCompleted}, nil
}
