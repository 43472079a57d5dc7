// internal/workers/analysis/analyze-demographics/handler.go
package analyzedemographics

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"
	"site-analytics/pkg/benchmarks"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/text/unicode/norm"
)

const (
	TaskType = "analyze-demographics"
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

// Execute generates the area profile. The same normalised area always yields
// the same numbers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	area := NormalizeArea(input.TargetArea)
	if area == "" {
		return nil, errors.NewValidationError("target_area is required")
	}
	industry, ok := h.catalogue.Lookup(input.IndustryType)
	if !ok {
		return nil, errors.NewValidationErrorf("unknown industry_type %q", input.IndustryType)
	}

	rng := rand.New(rand.NewSource(int64(AreaSeed(area))))

	span := h.config.MaxPopulation - h.config.MinPopulation
	population := h.config.MinPopulation + rng.Intn(span+1)
	householdSize := round(2.0+rng.Float64()*0.6, 2)
	femaleRatio := round(0.48+rng.Float64()*0.06, 3)
	income := math.Round((3_500_000+rng.Float64()*3_500_000)/10_000) * 10_000

	ages := ageDistribution(rng, population)

	segment := segmentRatio(ages, femaleRatio, industry.Target)

	demo := models.Demographics{
		Area:             strings.TrimSpace(input.TargetArea),
		Population:       population,
		Households:       int(math.Round(float64(population) / householdSize)),
		HouseholdSize:    householdSize,
		FemaleRatio:      femaleRatio,
		AverageIncome:    income,
		AgeDistribution:  ages,
		SegmentRatio:     round(segment, 4),
		TargetPopulation: int(math.Round(float64(population) * segment)),
	}

	h.logger.Debug("demographics generated", map[string]interface{}{
		"projectId":        input.ProjectID,
		"area":             area,
		"population":       demo.Population,
		"targetPopulation": demo.TargetPopulation,
	})

	return &Output{Demographics: demo}, nil
}

// NormalizeArea folds width variants, case and whitespace so that
// "渋谷区 " and "渋谷区" share a seed.
func NormalizeArea(area string) string {
	folded := strings.ToLower(norm.NFKC.String(area))
	return strings.Join(strings.Fields(folded), " ")
}

// AreaSeed is the FNV-1a hash of the normalised area.
func AreaSeed(normalized string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalized))
	return h.Sum32()
}

// ageDistribution perturbs every base share by up to ±20% and renormalises.
func ageDistribution(rng *rand.Rand, population int) []models.AgeShare {
	raw := make([]float64, len(benchmarks.AgeBands))
	var total float64
	for i, band := range benchmarks.AgeBands {
		raw[i] = baseAgeDistribution[band] * (0.8 + 0.4*rng.Float64())
		total += raw[i]
	}

	out := make([]models.AgeShare, len(benchmarks.AgeBands))
	for i, band := range benchmarks.AgeBands {
		share := raw[i] / total
		out[i] = models.AgeShare{
			Band:       band,
			Share:      round(share, 4),
			Population: int(math.Round(float64(population) * share)),
		}
	}
	return out
}

func segmentRatio(ages []models.AgeShare, femaleRatio float64, target benchmarks.Segment) float64 {
	wanted := make(map[string]bool, len(target.AgeBands))
	for _, b := range target.AgeBands {
		wanted[b] = true
	}

	var ageShare float64
	for _, a := range ages {
		if wanted[a.Band] {
			ageShare += a.Share
		}
	}

	genderShare := 1.0
	switch target.Gender {
	case benchmarks.GenderFemale:
		genderShare = femaleRatio
	case benchmarks.GenderMale:
		genderShare = 1 - femaleRatio
	}
	return ageShare * genderShare
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
