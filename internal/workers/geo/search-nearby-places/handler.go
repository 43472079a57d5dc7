// internal/workers/geo/search-nearby-places/handler.go
package searchnearbyplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/database"
	"site-analytics/internal/common/errors"
	httpclient "site-analytics/internal/common/http"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/common/metrics"
	"site-analytics/internal/models"
	"site-analytics/pkg/benchmarks"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

const (
	TaskType = "search-nearby-places"

	serviceName = "google_maps"
)

type Handler struct {
	config    *Config
	catalogue *benchmarks.Catalogue
	maps      *maps.Client
	limiter   *rate.Limiter
	redis     redis.Cmdable
	logger    logger.Logger
}

// NewHandler builds the handler. Without an API key it serves mock places;
// rdb and limiter may be nil.
func NewHandler(config *Config, catalogue *benchmarks.Catalogue, rdb redis.Cmdable, limiter *rate.Limiter, log logger.Logger) (*Handler, error) {
	h := &Handler{
		config:    config,
		catalogue: catalogue,
		limiter:   limiter,
		redis:     rdb,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}

	if config.APIKey == "" {
		h.logger.Warn("google maps api key not configured, serving mock places", nil)
		return h, nil
	}

	opts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	}
	if config.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(config.BaseURL))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	h.maps = client
	return h, nil
}

// MockMode reports whether results are generated locally.
func (h *Handler) MockMode() bool {
	return h.maps == nil
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
	var center models.GeoPoint
	switch {
	case input.Location != nil:
		center = *input.Location
	case strings.TrimSpace(input.Query) != "":
		geo, err := h.Geocode(ctx, input.Query)
		if err != nil {
			return nil, err
		}
		center = geo.Location
	default:
		return nil, errors.NewValidationError("either location or query is required")
	}

	radius := h.radius(input.RadiusM)
	places, err := h.SearchNearby(ctx, center, radius, input.IndustryType)
	if err != nil {
		return nil, err
	}

	source := models.PlaceSourceGoogle
	if h.MockMode() {
		source = models.PlaceSourceMock
	}

	return &Output{
		Center:  center,
		RadiusM: radius,
		Places:  places,
		Source:  source,
	}, nil
}

// Geocode resolves a free-text address to coordinates.
func (h *Handler) Geocode(ctx context.Context, query string) (*models.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewValidationError("query is required")
	}
	if h.MockMode() {
		return mockGeocode(query), nil
	}

	if err := h.wait(ctx); err != nil {
		return nil, err
	}
	results, err := h.maps.Geocode(ctx, &maps.GeocodingRequest{
		Address:  query,
		Language: h.config.Language,
		Region:   h.config.Region,
	})
	if err != nil {
		return nil, h.upstreamError(err)
	}
	metrics.ExternalAPICalls.WithLabelValues(serviceName, "ok").Inc()

	if len(results) == 0 {
		return nil, errors.NewNotFoundError("address", query)
	}

	r := results[0]
	return &models.GeocodeResult{
		Query:            query,
		FormattedAddress: r.FormattedAddress,
		Location:         models.GeoPoint{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		Source:           models.PlaceSourceGoogle,
	}, nil
}

// SearchNearby lists places of the industry's type around center.
func (h *Handler) SearchNearby(ctx context.Context, center models.GeoPoint, radiusM int, industryType string) ([]models.PlaceResult, error) {
	industry, ok := h.catalogue.Lookup(industryType)
	if !ok {
		return nil, errors.NewValidationErrorf("unknown industry_type %q", industryType)
	}
	if center.Lat < -90 || center.Lat > 90 || center.Lng < -180 || center.Lng > 180 {
		return nil, errors.NewValidationError("location is not a valid coordinate")
	}
	radiusM = h.radius(radiusM)

	if h.MockMode() {
		return h.mockPlaces(center, radiusM, industry), nil
	}

	key := fmt.Sprintf("%s%s:%.5f:%.5f:%d", h.config.KeyPrefix, industry.Key, center.Lat, center.Lng, radiusM)
	if h.redis != nil {
		var cached []models.PlaceResult
		found, err := database.GetJSON(ctx, h.redis, key, &cached)
		if err != nil {
			h.logger.Warn("places cache read failed", map[string]interface{}{"error": errors.NewCacheReadFailedError(key, err)})
		}
		metrics.ObserveCache("places", found)
		if found {
			return cached, nil
		}
	}

	places, err := h.nearby(ctx, center, radiusM, industry)
	if err != nil {
		return nil, err
	}

	if h.redis != nil {
		if err := database.SetJSON(ctx, h.redis, key, places, h.config.CacheTTL); err != nil {
			h.logger.Warn("places cache write failed", map[string]interface{}{"error": errors.NewCacheWriteFailedError(key, err)})
		}
	}
	return places, nil
}

func (h *Handler) nearby(ctx context.Context, center models.GeoPoint, radiusM int, industry benchmarks.Industry) ([]models.PlaceResult, error) {
	if err := h.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := h.maps.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: center.Lat, Lng: center.Lng},
		Radius:   uint(radiusM),
		Keyword:  industry.PlaceKeyword,
		Type:     maps.PlaceType(industry.PlaceType),
		Language: h.config.Language,
	})
	if err != nil {
		return nil, h.upstreamError(err)
	}
	metrics.ExternalAPICalls.WithLabelValues(serviceName, "ok").Inc()

	places := make([]models.PlaceResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if h.config.MaxResults > 0 && len(places) >= h.config.MaxResults {
			break
		}
		address := r.Vicinity
		if address == "" {
			address = r.FormattedAddress
		}
		// the client cannot tell a missing price_level from 0
		priceLevel := r.PriceLevel
		if priceLevel == 0 {
			priceLevel = models.PriceLevelUnknown
		}
		places = append(places, models.PlaceResult{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			Address:          address,
			Lat:              r.Geometry.Location.Lat,
			Lng:              r.Geometry.Location.Lng,
			Rating:           math.Round(float64(r.Rating)*10) / 10,
			UserRatingsTotal: r.UserRatingsTotal,
			PriceLevel:       priceLevel,
			Types:            r.Types,
			Source:           models.PlaceSourceGoogle,
		})
	}

	h.logger.Debug("nearby search completed", map[string]interface{}{
		"industry": industry.Key,
		"radiusM":  radiusM,
		"count":    len(places),
	})
	return places, nil
}

func (h *Handler) radius(r int) int {
	if r <= 0 {
		r = h.config.DefaultRadiusM
	}
	if h.config.MaxRadiusM > 0 && r > h.config.MaxRadiusM {
		r = h.config.MaxRadiusM
	}
	return r
}

func (h *Handler) wait(ctx context.Context) error {
	if h.limiter == nil {
		return nil
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return errors.NewExternalAPITimeoutError(serviceName)
	}
	return nil
}

func (h *Handler) upstreamError(err error) error {
	metrics.ExternalAPICalls.WithLabelValues(serviceName, "error").Inc()
	if httpclient.IsTimeout(err) {
		return errors.NewExternalAPITimeoutError(serviceName)
	}
	return errors.NewExternalAPIFailedError(serviceName, err)
}
