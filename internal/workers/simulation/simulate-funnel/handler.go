// internal/workers/simulation/simulate-funnel/handler.go
package simulatefunnel

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"
	"site-analytics/pkg/benchmarks"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "simulate-funnel"
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

// Execute runs the funnel arithmetic for one month of media spend and
// projects it over the requested horizon.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := input.Params
	industry, err := h.validate(&p)
	if err != nil {
		return nil, err
	}

	repeatRate := industry.RepeatRate
	if p.RepeatRate != nil {
		repeatRate = *p.RepeatRate
	}

	channels := make([]models.ChannelResult, 0, len(benchmarks.Channels))
	var totals models.SimulationTotals
	for _, name := range benchmarks.Channels {
		budget := p.MediaBudgets[name]
		if budget <= 0 {
			continue
		}
		bench := industry.Channels[name]

		clicks := budget / bench.CPC
		newCustomers := clicks * bench.CVR
		revenue := newCustomers * p.AverageSpend

		channels = append(channels, models.ChannelResult{
			Channel:      name,
			Budget:       roundYen(budget),
			CPC:          bench.CPC,
			CVR:          bench.CVR,
			Clicks:       round2(clicks),
			NewCustomers: round2(newCustomers),
			Revenue:      roundYen(revenue),
		})

		totals.AdSpend += budget
		totals.NewCustomers += newCustomers
		totals.Revenue += revenue
	}

	totals.RepeatRevenue = totals.Revenue * repeatRate
	totals.TotalRevenue = totals.Revenue + totals.RepeatRevenue
	totals.FixedCosts = p.FixedCosts.Total()
	totals.VariableCosts = totals.TotalRevenue * p.VariableCostRate
	totals.GrossProfit = totals.TotalRevenue - totals.VariableCosts
	totals.MonthlyProfit = totals.GrossProfit - totals.FixedCosts - totals.AdSpend

	result := models.SimulationResult{
		Channels:   channels,
		RepeatRate: repeatRate,
	}
	if totals.AdSpend > 0 {
		result.ROI = round4(totals.TotalRevenue / totals.AdSpend)
	}
	if p.TargetMonthlySales > 0 {
		result.AchievementRate = round4(totals.TotalRevenue / p.TargetMonthlySales)
	}
	if totals.TotalRevenue > 0 {
		result.RequiredBudget = roundYen(totals.AdSpend * p.TargetMonthlySales / totals.TotalRevenue)
	}

	result.Totals = models.SimulationTotals{
		NewCustomers:  round2(totals.NewCustomers),
		Revenue:       roundYen(totals.Revenue),
		RepeatRevenue: roundYen(totals.RepeatRevenue),
		TotalRevenue:  roundYen(totals.TotalRevenue),
		AdSpend:       roundYen(totals.AdSpend),
		FixedCosts:    roundYen(totals.FixedCosts),
		VariableCosts: roundYen(totals.VariableCosts),
		GrossProfit:   roundYen(totals.GrossProfit),
		MonthlyProfit: roundYen(totals.MonthlyProfit),
	}

	profit := result.Totals.MonthlyProfit
	result.BreakevenMonths = breakevenMonths(p.InitialInvestment, profit)

	result.Projection = make([]models.ProjectionMonth, 0, p.Months)
	for m := 1; m <= p.Months; m++ {
		result.Projection = append(result.Projection, models.ProjectionMonth{
			Month:            m,
			Revenue:          result.Totals.TotalRevenue,
			Profit:           profit,
			CumulativeProfit: roundYen(-p.InitialInvestment + float64(m)*profit),
		})
	}

	h.logger.Debug("simulation calculated", map[string]interface{}{
		"projectId":    input.ProjectID,
		"industryType": p.IndustryType,
		"adSpend":      result.Totals.AdSpend,
		"totalRevenue": result.Totals.TotalRevenue,
		"roi":          result.ROI,
	})

	return &Output{ProjectID: input.ProjectID, Result: result}, nil
}

// validate normalises defaults in p and returns the industry benchmark.
func (h *Handler) validate(p *models.SimulationParams) (benchmarks.Industry, error) {
	industry, ok := h.catalogue.Lookup(p.IndustryType)
	if !ok {
		return benchmarks.Industry{}, errors.NewValidationErrorf("unknown industry_type %q", p.IndustryType)
	}

	if p.Months == 0 {
		p.Months = h.config.DefaultMonths
	}
	if p.Months < 1 || p.Months > h.config.MaxMonths {
		return industry, errors.NewValidationErrorf("months must be between 1 and %d", h.config.MaxMonths)
	}
	if p.AverageSpend <= 0 {
		return industry, errors.NewValidationError("average_spend must be greater than 0")
	}
	if p.TargetMonthlySales < 0 {
		return industry, errors.NewValidationError("target_monthly_sales must not be negative")
	}
	if p.InitialInvestment < 0 {
		return industry, errors.NewValidationError("initial_investment must not be negative")
	}
	if p.FixedCosts.Rent < 0 || p.FixedCosts.Labor < 0 || p.FixedCosts.Other < 0 {
		return industry, errors.NewValidationError("fixed_costs must not be negative")
	}
	if p.VariableCostRate < 0 || p.VariableCostRate >= 1 {
		return industry, errors.NewValidationError("variable_cost_rate must be within [0,1)")
	}
	if p.RepeatRate != nil && (*p.RepeatRate < 0 || *p.RepeatRate > 1) {
		return industry, errors.NewValidationError("repeat_rate must be within [0,1]")
	}

	names := make([]string, 0, len(p.MediaBudgets))
	for name := range p.MediaBudgets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !benchmarks.IsChannel(name) {
			return industry, errors.NewValidationErrorf("unknown channel %q", name)
		}
		if p.MediaBudgets[name] < 0 {
			return industry, errors.NewValidationErrorf("budget for %s must not be negative", name)
		}
		if _, ok := industry.Channels[name]; !ok && p.MediaBudgets[name] > 0 {
			return industry, errors.NewValidationError(fmt.Sprintf("channel %s has no benchmark for %s", name, p.IndustryType))
		}
	}

	return industry, nil
}

// breakevenMonths is nil when the investment is never recovered.
func breakevenMonths(initial, monthlyProfit float64) *int {
	if initial == 0 {
		zero := 0
		return &zero
	}
	if monthlyProfit <= 0 {
		return nil
	}
	months := int(math.Ceil(initial / monthlyProfit))
	return &months
}

func roundYen(v float64) float64 { return math.Round(v) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
