// internal/workers/report/build-report/handler.go
package buildreport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "build-report"
)

type Handler struct {
	config *Config
	source Source
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, source Source, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		source: source,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
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
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = FormatPDF
	}
	contentType, ok := ContentType(format)
	if !ok {
		return nil, errors.NewValidationErrorf("unsupported report format %q", input.Format)
	}

	report, err := h.Assemble(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	var content []byte
	switch format {
	case FormatJSON:
		content, err = renderJSON(report)
	case FormatPDF:
		content, err = h.renderPDF(report, buildSections(report, h.config.MaxCompetitors))
	case FormatXLSX:
		content, err = renderXLSX(buildSections(report, h.config.MaxCompetitors))
	}
	if err != nil {
		return nil, errors.NewReportRenderFailedError(format, err)
	}

	h.logger.Info("report rendered", map[string]interface{}{
		"projectId": input.ProjectID,
		"format":    format,
		"bytes":     len(content),
	})

	return &Output{
		ProjectID:   input.ProjectID,
		Format:      format,
		Filename:    fmt.Sprintf("site-report-%s-%s.%s", shortID(report.Project.ID), report.GeneratedAt.Format("20060102"), format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

// Assemble gathers the project, its latest simulation and the latest
// completed analyses. Missing sections are left nil.
func (h *Handler) Assemble(ctx context.Context, projectID string) (*Report, error) {
	project, err := h.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Title:       h.config.Title,
		GeneratedAt: h.now().UTC(),
		Project:     *project,
	}

	sim, err := h.source.LatestSimulation(ctx, projectID)
	switch {
	case err == nil:
		report.Simulation = sim
	case !errors.HasCode(err, errors.ErrCodeNotFound):
		return nil, err
	}

	targets := map[models.AnalysisType]interface{}{
		models.AnalysisDemographics: &report.Demographics,
		models.AnalysisCompetitors:  &report.Competitors,
		models.AnalysisDemand:       &report.Demand,
	}
	for _, kind := range models.AllAnalysisTypes {
		result, err := h.source.LatestCompletedAnalysis(ctx, projectID, kind)
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := result.Decode(targets[kind]); err != nil {
			h.logger.Warn("skipping undecodable analysis", map[string]interface{}{
				"analysisId": result.ID,
				"type":       string(kind),
				"error":      err,
			})
		}
	}

	return report, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
