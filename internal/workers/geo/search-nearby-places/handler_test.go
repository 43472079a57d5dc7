// internal/workers/geo/search-nearby-places/handler_test.go
package searchnearbyplaces

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"
	"site-analytics/pkg/benchmarks"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shibuya = models.GeoPoint{Lat: 35.6595, Lng: 139.7005}

func distanceM(a, b models.GeoPoint) float64 {
	const r = 6371000.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * r * math.Asin(math.Sqrt(h))
}

const geocodeBody = `{
	"results": [{
		"formatted_address": "日本、〒150-0043 東京都渋谷区道玄坂２丁目",
		"geometry": {"location": {"lat": 35.6595, "lng": 139.7005}},
		"place_id": "geo-1",
		"types": ["sublocality"]
	}],
	"status": "OK"
}`

const nearbyBody = `{
	"html_attributions": [],
	"results": [
		{
			"name": "Salon Dogenzaka",
			"place_id": "p-1",
			"vicinity": "道玄坂1-2-3",
			"geometry": {"location": {"lat": 35.6580, "lng": 139.6990}},
			"rating": 4.6,
			"user_ratings_total": 320,
			"price_level": 3,
			"types": ["beauty_salon", "point_of_interest"]
		},
		{
			"name": "Cut Studio",
			"place_id": "p-2",
			"vicinity": "宇田川町4-5",
			"geometry": {"location": {"lat": 35.6610, "lng": 139.6980}},
			"types": ["beauty_salon"]
		}
	],
	"status": "OK"
}`

type mapsStub struct {
	srv    *httptest.Server
	nearby int32
	geo    int32
}

func newMapsStub(t *testing.T, geocode, nearby string) *mapsStub {
	t.Helper()
	s := &mapsStub{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/geocode/json"):
			atomic.AddInt32(&s.geo, 1)
			_, _ = w.Write([]byte(geocode))
		case strings.HasSuffix(r.URL.Path, "/nearbysearch/json"):
			atomic.AddInt32(&s.nearby, 1)
			_, _ = w.Write([]byte(nearby))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func newGoogleHandler(t *testing.T, baseURL string, rdb redis.Cmdable) *Handler {
	cfg := LoadConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	h, err := NewHandler(cfg, benchmarks.Default(), rdb, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.False(t, h.MockMode())
	return h
}

// ==========================
// Google mode
// ==========================

func TestHandler_Execute_GeocodeThenNearby(t *testing.T) {
	stub := newMapsStub(t, geocodeBody, nearbyBody)
	h := newGoogleHandler(t, stub.srv.URL, nil)

	out, err := h.Execute(context.Background(), &Input{Query: "渋谷区道玄坂", IndustryType: "beauty_salon", RadiusM: 800})
	require.NoError(t, err)

	assert.Equal(t, shibuya, out.Center)
	assert.Equal(t, 800, out.RadiusM)
	assert.Equal(t, models.PlaceSourceGoogle, out.Source)
	require.Len(t, out.Places, 2)

	first := out.Places[0]
	assert.Equal(t, "p-1", first.PlaceID)
	assert.Equal(t, "道玄坂1-2-3", first.Address)
	assert.Equal(t, 4.6, first.Rating)
	assert.Equal(t, 320, first.UserRatingsTotal)
	assert.Equal(t, 3, first.PriceLevel)
	assert.Equal(t, models.PlaceSourceGoogle, first.Source)

	second := out.Places[1]
	assert.Equal(t, 0.0, second.Rating)
	assert.Equal(t, models.PriceLevelUnknown, second.PriceLevel)

	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.geo))
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.nearby))
}

func TestHandler_SearchNearby_Cached(t *testing.T) {
	stub := newMapsStub(t, geocodeBody, nearbyBody)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	h := newGoogleHandler(t, stub.srv.URL, rdb)

	first, err := h.SearchNearby(context.Background(), shibuya, 1000, "beauty_salon")
	require.NoError(t, err)
	second, err := h.SearchNearby(context.Background(), shibuya, 1000, "beauty_salon")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.nearby))
	assert.True(t, mr.Exists("places:beauty_salon:35.65950:139.70050:1000"))

	// a different radius is a different cache entry
	_, err = h.SearchNearby(context.Background(), shibuya, 500, "beauty_salon")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&stub.nearby))
}

func TestHandler_Geocode_ZeroResults(t *testing.T) {
	stub := newMapsStub(t, `{"results": [], "status": "ZERO_RESULTS"}`, nearbyBody)
	h := newGoogleHandler(t, stub.srv.URL, nil)

	_, err := h.Geocode(context.Background(), "nowhere at all")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestHandler_SearchNearby_UpstreamDenied(t *testing.T) {
	stub := newMapsStub(t, geocodeBody, `{"results": [], "status": "REQUEST_DENIED", "error_message": "bad key"}`)
	h := newGoogleHandler(t, stub.srv.URL, nil)

	_, err := h.SearchNearby(context.Background(), shibuya, 1000, "cafe")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExternalAPIFailed))
}

// ==========================
// Mock mode
// ==========================

func TestHandler_MockMode(t *testing.T) {
	h, err := NewHandler(LoadConfig(), benchmarks.Default(), nil, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.True(t, h.MockMode())

	first, err := h.SearchNearby(context.Background(), shibuya, 1000, "restaurant")
	require.NoError(t, err)
	second, err := h.SearchNearby(context.Background(), shibuya, 1000, "restaurant")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.GreaterOrEqual(t, len(first), 6)
	assert.LessOrEqual(t, len(first), 14)
	for _, p := range first {
		assert.Equal(t, models.PlaceSourceMock, p.Source)
		assert.LessOrEqual(t, distanceM(shibuya, models.GeoPoint{Lat: p.Lat, Lng: p.Lng}), 1001.0)
		assert.GreaterOrEqual(t, p.PriceLevel, 1)
		assert.LessOrEqual(t, p.PriceLevel, 4)
		if p.Rating != 0 {
			assert.GreaterOrEqual(t, p.Rating, 3.0)
			assert.LessOrEqual(t, p.Rating, 4.9)
		}
	}

	other, err := h.SearchNearby(context.Background(), shibuya, 1000, "cafe")
	require.NoError(t, err)
	assert.NotEqual(t, first[0].PlaceID, other[0].PlaceID)
}

func TestHandler_MockMode_Execute(t *testing.T) {
	h, err := NewHandler(LoadConfig(), benchmarks.Default(), nil, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{Query: "渋谷区", IndustryType: "cafe"})
	require.NoError(t, err)
	assert.Equal(t, models.PlaceSourceMock, out.Source)
	assert.Equal(t, 1000, out.RadiusM)
	assert.NotEmpty(t, out.Places)

	geo, err := h.Geocode(context.Background(), "渋谷区")
	require.NoError(t, err)
	assert.Equal(t, out.Center, geo.Location)
	assert.Less(t, distanceM(tokyoStation, geo.Location), 10001.0)
}

func TestHandler_Execute_Validation(t *testing.T) {
	h, err := NewHandler(LoadConfig(), benchmarks.Default(), nil, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), &Input{IndustryType: "cafe"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))

	_, err = h.Execute(context.Background(), &Input{Location: &shibuya, IndustryType: "casino"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))

	_, err = h.Execute(context.Background(), &Input{Location: &models.GeoPoint{Lat: 120}, IndustryType: "cafe"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestHandler_RadiusClamp(t *testing.T) {
	h, err := NewHandler(LoadConfig(), benchmarks.Default(), nil, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 1000, h.radius(0))
	assert.Equal(t, 50000, h.radius(90000))
	assert.Equal(t, 300, h.radius(300))
}

func TestMockGeocode_StablePerQuery(t *testing.T) {
	first := mockGeocode("渋谷区")
	again := mockGeocode("渋谷区")
	other := mockGeocode("新宿区")

	assert.Equal(t, first.Location, again.Location)
	assert.NotEqual(t, first.Location, other.Location)
	for _, g := range []*models.GeocodeResult{first, other} {
		assert.Less(t, distanceM(tokyoStation, g.Location), 10001.0)
		assert.Equal(t, models.PlaceSourceMock, g.Source)
	}
}
