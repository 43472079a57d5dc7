// internal/workers/analysis/estimate-competitors/handler_test.go
package estimatecompetitors

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"
	"site-analytics/pkg/benchmarks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shibuya = models.GeoPoint{Lat: 35.6595, Lng: 139.7005}

type fakeSearcher struct {
	places []models.PlaceResult
	err    error
	calls  int
	radius int
}

func (f *fakeSearcher) SearchNearby(_ context.Context, _ models.GeoPoint, radiusM int, _ string) ([]models.PlaceResult, error) {
	f.calls++
	f.radius = radiusM
	return f.places, f.err
}

func samplePlaces() []models.PlaceResult {
	return []models.PlaceResult{
		{PlaceID: "b", Name: "Budget Cuts", Lat: shibuya.Lat, Lng: shibuya.Lng, Rating: 3.2, PriceLevel: 4, UserRatingsTotal: 5},
		{PlaceID: "a", Name: "Salon Aoyama", Lat: shibuya.Lat + 0.009, Lng: shibuya.Lng, Rating: 4.6, PriceLevel: 2, UserRatingsTotal: 600},
		{PlaceID: "c", Name: "New Place", Lat: shibuya.Lat, Lng: shibuya.Lng, Rating: models.RatingUnknown, PriceLevel: models.PriceLevelUnknown, UserRatingsTotal: 40},
	}
}

// ==========================
// Estimation
// ==========================

func TestHandler_Execute_Estimates(t *testing.T) {
	h := NewHandler(LoadConfig(), benchmarks.Default(), nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		ProjectID:    "p-1",
		IndustryType: "beauty_salon",
		Center:       &shibuya,
		RadiusM:      1500,
		Places:       samplePlaces(),
	})
	require.NoError(t, err)

	got := out.Competitors
	assert.Equal(t, 1500, got.RadiusM)
	require.Len(t, got.Competitors, 3)

	// sorted by estimated customers descending
	assert.Equal(t, "a", got.Competitors[0].PlaceID)
	assert.Equal(t, "c", got.Competitors[1].PlaceID)
	assert.Equal(t, "b", got.Competitors[2].PlaceID)

	a := got.Competitors[0]
	assert.Equal(t, 582, a.EstimatedMonthlyCustomers)
	assert.Equal(t, 3_783_000.0, a.EstimatedMonthlyRevenue)
	assert.Equal(t, 1.30, a.RatingMultiplier)
	assert.Equal(t, 1.00, a.PriceMultiplier)
	assert.Equal(t, 1.40, a.ReviewMultiplier)
	assert.InDelta(t, 1000, a.DistanceM, 5)
	assert.Equal(t, 0.5728, a.MarketShare)
	assert.NotEmpty(t, a.CalculationBasis)

	c := got.Competitors[1]
	assert.Equal(t, 320, c.EstimatedMonthlyCustomers)
	assert.Equal(t, 2_080_000.0, c.EstimatedMonthlyRevenue)
	assert.Equal(t, 0.0, c.DistanceM)
	assert.Equal(t, 0.315, c.MarketShare)

	b := got.Competitors[2]
	assert.Equal(t, 114, b.EstimatedMonthlyCustomers)
	assert.Equal(t, 1_630_200.0, b.EstimatedMonthlyRevenue)
	assert.Equal(t, 0.1122, b.MarketShare)

	s := got.Summary
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1016, s.TotalEstimatedCustomers)
	assert.Equal(t, 7_493_200.0, s.TotalEstimatedRevenue)
	assert.Equal(t, 3.9, s.AverageRating)
	assert.Equal(t, LevelLow, s.CompetitionLevel)
	require.Len(t, s.Heatmap, 3)
	assert.Equal(t, 582.0, s.Heatmap[0].Weight)
}

func TestHandler_Execute_NoPlaces(t *testing.T) {
	h := NewHandler(LoadConfig(), benchmarks.Default(), nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		IndustryType: "cafe",
		Center:       &shibuya,
		Places:       []models.PlaceResult{},
	})
	require.NoError(t, err)

	assert.Equal(t, 1000, out.Competitors.RadiusM)
	assert.Empty(t, out.Competitors.Competitors)
	assert.Equal(t, 0, out.Competitors.Summary.Count)
	assert.Equal(t, 0.0, out.Competitors.Summary.AverageRating)
	assert.Equal(t, LevelLow, out.Competitors.Summary.CompetitionLevel)
}

func TestHandler_Execute_FetchesWhenPlacesMissing(t *testing.T) {
	searcher := &fakeSearcher{places: samplePlaces()}
	h := NewHandler(LoadConfig(), benchmarks.Default(), searcher, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{IndustryType: "beauty_salon", Center: &shibuya})
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, 1000, searcher.radius)
	assert.Len(t, out.Competitors.Competitors, 3)
}

func TestHandler_Execute_SearchError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.NewExternalAPIFailedError("places", fmt.Errorf("boom"))}
	h := NewHandler(LoadConfig(), benchmarks.Default(), searcher, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{IndustryType: "beauty_salon", Center: &shibuya})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExternalAPIFailed))
}

func TestHandler_Execute_Validation(t *testing.T) {
	h := NewHandler(LoadConfig(), benchmarks.Default(), nil, logger.NewTestLogger(t))

	tests := []struct {
		name  string
		input Input
	}{
		{"unknown industry", Input{IndustryType: "casino", Center: &shibuya, Places: []models.PlaceResult{}}},
		{"bad latitude", Input{IndustryType: "cafe", Center: &models.GeoPoint{Lat: 91, Lng: 0}, Places: []models.PlaceResult{}}},
		{"no searcher", Input{IndustryType: "cafe", Center: &shibuya}},
		{"missing center", Input{IndustryType: "cafe", Places: []models.PlaceResult{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), &tt.input)
			assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
		})
	}
}

// ==========================
// Bands
// ==========================

func TestCompetitionLevel(t *testing.T) {
	h := NewHandler(LoadConfig(), benchmarks.Default(), nil, logger.NewTestLogger(t))

	assert.Equal(t, LevelLow, h.competitionLevel(4))
	assert.Equal(t, LevelMedium, h.competitionLevel(5))
	assert.Equal(t, LevelMedium, h.competitionLevel(14))
	assert.Equal(t, LevelHigh, h.competitionLevel(15))
}

func TestMultipliers(t *testing.T) {
	assert.Equal(t, 1.00, ratingMultiplier(0))
	assert.Equal(t, 1.15, ratingMultiplier(4.0))
	assert.Equal(t, 0.70, ratingMultiplier(2.1))

	assert.Equal(t, 1.20, priceMultiplier(0))
	assert.Equal(t, 0.80, priceMultiplier(3))
	assert.Equal(t, 1.00, priceMultiplier(models.PriceLevelUnknown))

	assert.Equal(t, 1.20, reviewMultiplier(100))
	assert.Equal(t, 0.85, reviewMultiplier(10))
	assert.Equal(t, 0.70, reviewMultiplier(9))
}

func TestHandler_Execute_MissingCenterSkipsSearch(t *testing.T) {
	searcher := &fakeSearcher{places: samplePlaces()}
	h := NewHandler(LoadConfig(), benchmarks.Default(), searcher, logger.NewTestLogger(t))

	// job variables from a process started without a center
	var input Input
	require.NoError(t, json.Unmarshal([]byte(`{"project_id":"p","industry_type":"cafe","radius_m":1000,"analysis_ids":{}}`), &input))

	_, err := h.Execute(context.Background(), &input)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	assert.Equal(t, "center is required", errors.AsStandard(err).Details)
	assert.Equal(t, 0, searcher.calls)
}
