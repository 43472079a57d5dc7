// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/common/metrics"
	"site-analytics/internal/common/observability"
	"site-analytics/internal/models"
	analyzedemographics "site-analytics/internal/workers/analysis/analyze-demographics"
	estimatecompetitors "site-analytics/internal/workers/analysis/estimate-competitors"
	estimatedemand "site-analytics/internal/workers/analysis/estimate-demand"
	publishanalysisevent "site-analytics/internal/workers/communication/publish-analysis-event"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultProcessID = "site-analysis"
	cancelledMessage = "analysis cancelled before completion"
)

// ErrShuttingDown is returned by Start once Shutdown has begun.
var ErrShuttingDown = stderrors.New("analysis pipeline is shutting down")

type Config struct {
	StepTimeout  time.Duration
	WriteTimeout time.Duration
	ProcessID    string
}

func DefaultConfig() *Config {
	return &Config{
		StepTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Second,
		ProcessID:    DefaultProcessID,
	}
}

// Store persists analysis rows.
type Store interface {
	CreatePending(ctx context.Context, projectID string, types []models.AnalysisType) ([]models.AnalysisResult, error)
	Complete(ctx context.Context, id string, result interface{}) error
	Fail(ctx context.Context, id, message string) error
	FailProcessing(ctx context.Context, ids []string, message string) (int64, error)
}

type Demographer interface {
	Execute(ctx context.Context, input *analyzedemographics.Input) (*analyzedemographics.Output, error)
}

type CompetitorEstimator interface {
	Execute(ctx context.Context, input *estimatecompetitors.Input) (*estimatecompetitors.Output, error)
}

type DemandEstimator interface {
	Execute(ctx context.Context, input *estimatedemand.Input) (*estimatedemand.Output, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, query string) (*models.GeocodeResult, error)
}

type EventPublisher interface {
	Execute(ctx context.Context, input *publishanalysisevent.Input) (*publishanalysisevent.Output, error)
}

// ProcessStarter hands a run to the workflow engine instead of running it here.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// Dependencies wires the pipeline. Geocoder, Events, Process and
// Observability are optional.
type Dependencies struct {
	Store         Store
	Demographics  Demographer
	Competitors   CompetitorEstimator
	Demand        DemandEstimator
	Geocoder      Geocoder
	Events        EventPublisher
	Process       ProcessStarter
	Observability *observability.Observability
	Logger        logger.Logger
}

// Runner starts analysis runs and owns their goroutines.
type Runner struct {
	config *Config
	deps   Dependencies
	obs    *observability.Observability
	logger logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(config *Config, deps Dependencies) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Runner{
		config: config,
		deps:   deps,
		obs:    obs,
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "pipeline"}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// NormalizeTypes validates the requested types and returns them in run
// order without duplicates. An empty request means every type.
func NormalizeTypes(requested []string) ([]models.AnalysisType, error) {
	if len(requested) == 0 {
		return append([]models.AnalysisType(nil), models.AllAnalysisTypes...), nil
	}
	want := make(map[models.AnalysisType]bool, len(requested))
	for _, r := range requested {
		t := models.AnalysisType(r)
		if !t.Valid() {
			return nil, errors.NewValidationErrorf("unknown analysis type %q", r)
		}
		want[t] = true
	}
	out := make([]models.AnalysisType, 0, len(want))
	for _, t := range models.AllAnalysisTypes {
		if want[t] {
			out = append(out, t)
		}
	}
	return out, nil
}

// Start records one processing row per type and schedules the run. The
// returned rows are still in processing state.
func (r *Runner) Start(ctx context.Context, project *models.Project, types []models.AnalysisType) ([]models.AnalysisResult, error) {
	if r.ctx.Err() != nil {
		return nil, ErrShuttingDown
	}

	rows, err := r.deps.Store.CreatePending(ctx, project.ID, types)
	if err != nil {
		return nil, err
	}

	if r.deps.Process != nil {
		if err := r.startProcess(ctx, project, rows); err != nil {
			r.failRemaining(rows, fmt.Sprintf("workflow start failed: %s", describe(err)))
			return nil, err
		}
		return rows, nil
	}

	r.wg.Add(1)
	go r.run(*project, rows)

	r.logger.Info("analysis scheduled", map[string]interface{}{
		"projectId": project.ID,
		"types":     types,
	})
	return rows, nil
}

// Wait blocks until every in-flight run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown cancels in-flight runs and waits for them to record their state.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) startProcess(ctx context.Context, project *models.Project, rows []models.AnalysisResult) error {
	ids := make(map[string]string, len(rows))
	needsCenter := false
	for _, row := range rows {
		ids[string(row.AnalysisType)] = row.ID
		if row.AnalysisType == models.AnalysisCompetitors || row.AnalysisType == models.AnalysisDemand {
			needsCenter = true
		}
	}
	vars := map[string]interface{}{
		"project_id":    project.ID,
		"industry_type": project.IndustryType,
		"target_area":   project.TargetArea,
		"radius_m":      project.RadiusM,
		"analysis_ids":  ids,
	}
	// workers cannot geocode, so the center is resolved before handing off
	if needsCenter {
		center, err := r.center(ctx, project)
		if err != nil {
			return err
		}
		vars["center"] = center
	}

	key, err := r.deps.Process.StartProcess(ctx, r.config.ProcessID, vars)
	if err != nil {
		return err
	}
	r.logger.Info("analysis process started", map[string]interface{}{
		"projectId":   project.ID,
		"processId":   r.config.ProcessID,
		"instanceKey": key,
	})
	return nil
}

// run executes demographics, competitors and demand in that order. Steps
// that a requested type depends on run even when not requested, but only
// requested types are persisted.
func (r *Runner) run(project models.Project, rows []models.AnalysisResult) {
	defer r.wg.Done()
	metrics.PipelineRunsActive.Inc()
	defer metrics.PipelineRunsActive.Dec()

	ctx, span := r.obs.StartSpan(r.ctx, "analysis.run",
		attribute.String("project.id", project.ID),
		attribute.Int("analysis.count", len(rows)),
	)
	defer span.End()

	pending := make(map[models.AnalysisType]string, len(rows))
	for _, row := range rows {
		pending[row.AnalysisType] = row.ID
	}
	_, wantDemand := pending[models.AnalysisDemand]
	_, wantCompetitors := pending[models.AnalysisCompetitors]
	_, wantDemographics := pending[models.AnalysisDemographics]

	refs := make([]publishanalysisevent.AnalysisRef, 0, len(rows))
	finish := func(kind models.AnalysisType, result interface{}, err error) {
		id, ok := pending[kind]
		if !ok || ctx.Err() != nil {
			return
		}
		ref := r.record(id, kind, result, err)
		refs = append(refs, ref)
		delete(pending, kind)
	}

	var (
		demo    *models.Demographics
		demoErr error
		comp    *models.CompetitorAnalysis
	)

	if wantDemographics || wantDemand {
		var result interface{}
		result, demoErr = r.step(ctx, models.AnalysisDemographics, func(ctx context.Context) (interface{}, error) {
			out, err := r.deps.Demographics.Execute(ctx, &analyzedemographics.Input{
				ProjectID:    project.ID,
				TargetArea:   project.TargetArea,
				IndustryType: project.IndustryType,
			})
			if err != nil {
				return nil, err
			}
			return &out.Demographics, nil
		})
		if demoErr == nil {
			demo = result.(*models.Demographics)
		}
		finish(models.AnalysisDemographics, result, demoErr)
	}

	if (wantCompetitors || wantDemand) && ctx.Err() == nil {
		result, err := r.step(ctx, models.AnalysisCompetitors, func(ctx context.Context) (interface{}, error) {
			center, err := r.center(ctx, &project)
			if err != nil {
				return nil, err
			}
			out, err := r.deps.Competitors.Execute(ctx, &estimatecompetitors.Input{
				ProjectID:    project.ID,
				IndustryType: project.IndustryType,
				Center:       &center,
				RadiusM:      project.RadiusM,
			})
			if err != nil {
				return nil, err
			}
			return &out.Competitors, nil
		})
		if err == nil {
			comp = result.(*models.CompetitorAnalysis)
		} else if !wantCompetitors {
			r.logger.Warn("competitors unavailable for demand", map[string]interface{}{
				"projectId": project.ID,
				"error":     describe(err),
			})
		}
		finish(models.AnalysisCompetitors, result, err)
	}

	if wantDemand && ctx.Err() == nil {
		result, err := r.step(ctx, models.AnalysisDemand, func(ctx context.Context) (interface{}, error) {
			if demo == nil {
				return nil, errors.NewValidationErrorf("demographics unavailable: %s", describe(demoErr))
			}
			input := &estimatedemand.Input{
				ProjectID:        project.ID,
				IndustryType:     project.IndustryType,
				TargetPopulation: demo.TargetPopulation,
			}
			if comp != nil {
				total := comp.Summary.TotalEstimatedCustomers
				input.CompetitorCustomers = &total
			}
			out, err := r.deps.Demand.Execute(ctx, input)
			if err != nil {
				return nil, err
			}
			return &out.Demand, nil
		})
		finish(models.AnalysisDemand, result, err)
	}

	if len(pending) > 0 {
		leftover := make([]models.AnalysisResult, 0, len(pending))
		for kind, id := range pending {
			leftover = append(leftover, models.AnalysisResult{ID: id, AnalysisType: kind})
		}
		r.failRemaining(leftover, cancelledMessage)
		span.SetStatus(codes.Error, cancelledMessage)
		return
	}

	r.publish(project.ID, refs)
}

// step runs fn under the step timeout with a span and step metrics.
func (r *Runner) step(ctx context.Context, kind models.AnalysisType, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	stepCtx, cancel := context.WithTimeout(ctx, r.config.StepTimeout)
	defer cancel()
	stepCtx, span := r.obs.StartSpan(stepCtx, "analysis."+string(kind))
	defer span.End()

	start := time.Now()
	result, err := fn(stepCtx)

	status := string(models.AnalysisStatusCompleted)
	if err != nil {
		status = string(models.AnalysisStatusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, describe(err))
	}
	r.obs.RecordStep(ctx, string(kind), status, time.Since(start))
	metrics.PipelineStepsTotal.WithLabelValues(string(kind), status).Inc()
	return result, err
}

func (r *Runner) center(ctx context.Context, project *models.Project) (models.GeoPoint, error) {
	if loc, ok := project.Location(); ok {
		return loc, nil
	}
	if r.deps.Geocoder == nil {
		return models.GeoPoint{}, errors.NewValidationError("project has no location and geocoding is not configured")
	}
	geo, err := r.deps.Geocoder.Geocode(ctx, project.TargetArea)
	if err != nil {
		return models.GeoPoint{}, err
	}
	return geo.Location, nil
}

func (r *Runner) record(id string, kind models.AnalysisType, result interface{}, stepErr error) publishanalysisevent.AnalysisRef {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), r.config.WriteTimeout)
	defer cancel()

	ref := publishanalysisevent.AnalysisRef{ID: id, Type: kind, Status: models.AnalysisStatusCompleted}
	var err error
	if stepErr != nil {
		ref.Status = models.AnalysisStatusFailed
		ref.Error = describe(stepErr)
		err = r.deps.Store.Fail(ctx, id, ref.Error)
	} else {
		err = r.deps.Store.Complete(ctx, id, result)
	}
	if err != nil {
		r.logger.Error("failed to record analysis", map[string]interface{}{
			"analysisId": id,
			"type":       string(kind),
			"error":      err,
		})
	}
	return ref
}

func (r *Runner) failRemaining(rows []models.AnalysisResult, message string) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), r.config.WriteTimeout)
	defer cancel()

	n, err := r.deps.Store.FailProcessing(ctx, ids, message)
	if err != nil {
		r.logger.Error("failed to mark analyses failed", map[string]interface{}{"ids": ids, "error": err})
		return
	}
	r.logger.Warn("analyses marked failed", map[string]interface{}{"count": n, "reason": message})
}

func (r *Runner) publish(projectID string, refs []publishanalysisevent.AnalysisRef) {
	if r.deps.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.ctx, r.config.WriteTimeout)
	defer cancel()

	if _, err := r.deps.Events.Execute(ctx, &publishanalysisevent.Input{ProjectID: projectID, Analyses: refs}); err != nil {
		r.logger.Warn("analysis event not published", map[string]interface{}{
			"projectId": projectID,
			"error":     err,
		})
	}
}

// describe flattens an error into the text stored on a failed row.
func describe(err error) string {
	if err == nil {
		return "unknown error"
	}
	std := errors.AsStandard(err)
	if std.Details != "" {
		return std.Message + ": " + std.Details
	}
	return std.Message
}
