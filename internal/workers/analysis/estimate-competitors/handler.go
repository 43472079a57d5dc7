// internal/workers/analysis/estimate-competitors/handler.go
package estimatecompetitors

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
	TaskType = "estimate-competitors"
)

type Handler struct {
	config    *Config
	catalogue *benchmarks.Catalogue
	places    PlaceSearcher
	logger    logger.Logger
}

func NewHandler(config *Config, catalogue *benchmarks.Catalogue, places PlaceSearcher, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		catalogue: catalogue,
		places:    places,
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
	industry, ok := h.catalogue.Lookup(input.IndustryType)
	if !ok {
		return nil, errors.NewValidationErrorf("unknown industry_type %q", input.IndustryType)
	}
	if input.Center == nil {
		return nil, errors.NewValidationError("center is required")
	}
	center := *input.Center
	if center.Lat < -90 || center.Lat > 90 || center.Lng < -180 || center.Lng > 180 {
		return nil, errors.NewValidationError("center is not a valid coordinate")
	}

	radius := input.RadiusM
	if radius <= 0 {
		radius = h.config.DefaultRadiusM
	}
	spend := input.AverageSpend
	if spend <= 0 {
		spend = industry.AverageSpend
	}

	places := input.Places
	if places == nil {
		if h.places == nil {
			return nil, errors.NewValidationError("places are required when no place search is configured")
		}
		fetched, err := h.places.SearchNearby(ctx, center, radius, input.IndustryType)
		if err != nil {
			return nil, err
		}
		places = fetched
	}

	analysis := h.estimate(center, radius, industry, spend, places)

	h.logger.Info("competitors estimated", map[string]interface{}{
		"projectId":        input.ProjectID,
		"count":            analysis.Summary.Count,
		"competitionLevel": analysis.Summary.CompetitionLevel,
		"totalCustomers":   analysis.Summary.TotalEstimatedCustomers,
	})

	return &Output{Competitors: analysis}, nil
}

func (h *Handler) estimate(center models.GeoPoint, radius int, industry benchmarks.Industry, spend float64, places []models.PlaceResult) models.CompetitorAnalysis {
	competitors := make([]models.CompetitorData, 0, len(places))
	var (
		totalCustomers int
		totalRevenue   float64
		ratingSum      float64
		rated          int
	)

	for _, p := range places {
		rm := ratingMultiplier(p.Rating)
		pm := priceMultiplier(p.PriceLevel)
		vm := reviewMultiplier(p.UserRatingsTotal)

		customers := int(math.Round(industry.BaseMonthlyCustomers * rm * pm * vm))
		revenue := math.Round(float64(customers) * spend * spendFactor(p.PriceLevel))

		competitors = append(competitors, models.CompetitorData{
			PlaceResult:               p,
			DistanceM:                 math.Round(haversineM(center, models.GeoPoint{Lat: p.Lat, Lng: p.Lng})),
			EstimatedMonthlyCustomers: customers,
			EstimatedMonthlyRevenue:   revenue,
			RatingMultiplier:          rm,
			PriceMultiplier:           pm,
			ReviewMultiplier:          vm,
			CalculationBasis: fmt.Sprintf("base %.0f x rating %.2f x price %.2f x reviews %.2f",
				industry.BaseMonthlyCustomers, rm, pm, vm),
		})

		totalCustomers += customers
		totalRevenue += revenue
		if p.Rating > models.RatingUnknown {
			ratingSum += p.Rating
			rated++
		}
	}

	// shares stay 0 when nothing was estimated
	if totalCustomers > 0 {
		for i := range competitors {
			share := float64(competitors[i].EstimatedMonthlyCustomers) / float64(totalCustomers)
			competitors[i].MarketShare = math.Round(share*10000) / 10000
		}
	}

	sort.SliceStable(competitors, func(i, j int) bool {
		a, b := competitors[i], competitors[j]
		if a.EstimatedMonthlyCustomers != b.EstimatedMonthlyCustomers {
			return a.EstimatedMonthlyCustomers > b.EstimatedMonthlyCustomers
		}
		return a.DistanceM < b.DistanceM
	})

	heatmap := make([]models.HeatmapPoint, 0, len(competitors))
	for _, c := range competitors {
		heatmap = append(heatmap, models.HeatmapPoint{Lat: c.Lat, Lng: c.Lng, Weight: float64(c.EstimatedMonthlyCustomers)})
	}

	summary := models.CompetitorSummary{
		Count:                   len(competitors),
		TotalEstimatedCustomers: totalCustomers,
		TotalEstimatedRevenue:   totalRevenue,
		CompetitionLevel:        h.competitionLevel(len(competitors)),
		Heatmap:                 heatmap,
	}
	if rated > 0 {
		summary.AverageRating = math.Round(ratingSum/float64(rated)*100) / 100
	}

	return models.CompetitorAnalysis{
		Center:      center,
		RadiusM:     radius,
		Competitors: competitors,
		Summary:     summary,
	}
}

func (h *Handler) competitionLevel(count int) string {
	switch {
	case count < h.config.LowThreshold:
		return LevelLow
	case count < h.config.HighThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}
