// internal/workers/analysis/estimate-demand/handler.go
package estimatedemand

import (
	"context"
	"encoding/json"
	"math"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"
	"site-analytics/pkg/benchmarks"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "estimate-demand"
)

type Handler struct {
	config    *Config
	catalogue *benchmarks.Catalogue
	logger    logger.Logger
}

func NewHandler(config *Config, catalogue *benchmarks.Catalogue, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		catalogue: catalogue,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	industry, ok := h.catalogue.Lookup(input.IndustryType)
	if !ok {
		return nil, errors.NewValidationErrorf("unknown industry_type %q", input.IndustryType)
	}
	if input.TargetPopulation < 0 {
		return nil, errors.NewValidationError("target_population must not be negative")
	}
	if input.CompetitorCustomers != nil && *input.CompetitorCustomers < 0 {
		return nil, errors.NewValidationError("competitor_customers must not be negative")
	}

	spend := input.AverageSpend
	if spend <= 0 {
		spend = industry.AverageSpend
	}

	visits := float64(input.TargetPopulation) * industry.AnnualUsageRate * industry.VisitsPerYear / 12
	demand := models.DemandEstimate{
		TargetPopulation:       input.TargetPopulation,
		AnnualUsageRate:        industry.AnnualUsageRate,
		VisitsPerYear:          industry.VisitsPerYear,
		MonthlyPotentialVisits: math.Round(visits*100) / 100,
		AverageSpend:           spend,
		MarketSize:             math.Round(visits * spend),
	}

	if input.CompetitorCustomers != nil {
		customers := *input.CompetitorCustomers
		saturation := 0.0
		if visits > 0 {
			saturation = math.Round(float64(customers)/visits*10000) / 10000
		}
		demand.CompetitorCustomers = &customers
		demand.Saturation = &saturation
		demand.Opportunity = h.opportunity(saturation)
	}

	h.logger.Info("demand estimated", map[string]interface{}{
		"projectId":   input.ProjectID,
		"visits":      demand.MonthlyPotentialVisits,
		"marketSize":  demand.MarketSize,
		"opportunity": demand.Opportunity,
	})

	return &Output{Demand: demand}, nil
}

func (h *Handler) opportunity(saturation float64) string {
	switch {
	case saturation < h.config.HighOpportunity:
		return OpportunityHigh
	case saturation < h.config.LowOpportunity:
		return OpportunityMedium
	default:
		return OpportunityLow
	}
}
