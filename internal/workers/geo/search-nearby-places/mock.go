// internal/workers/geo/search-nearby-places/mock.go
package searchnearbyplaces

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"site-analytics/internal/models"
	"site-analytics/pkg/benchmarks"
)

const metresPerDegree = 111320.0

// tokyoStation anchors mock geocoding results.
var tokyoStation = models.GeoPoint{Lat: 35.6812, Lng: 139.7671}

func seedFor(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return int64(h.Sum64())
}

// offset moves p by distance metres along bearing radians.
func offset(p models.GeoPoint, distance, bearing float64) models.GeoPoint {
	dLat := distance * math.Cos(bearing) / metresPerDegree
	dLng := distance * math.Sin(bearing) / (metresPerDegree * math.Cos(p.Lat*math.Pi/180))
	return models.GeoPoint{
		Lat: math.Round((p.Lat+dLat)*1e6) / 1e6,
		Lng: math.Round((p.Lng+dLng)*1e6) / 1e6,
	}
}

// mockPlaces scatters a stable set of competitors inside the radius.
func (h *Handler) mockPlaces(center models.GeoPoint, radiusM int, industry benchmarks.Industry) []models.PlaceResult {
	rng := rand.New(rand.NewSource(seedFor(
		fmt.Sprintf("%.5f", center.Lat),
		fmt.Sprintf("%.5f", center.Lng),
		fmt.Sprint(radiusM),
		industry.Key,
	)))

	n := h.config.MockMinPlaces
	if span := h.config.MockMaxPlaces - h.config.MockMinPlaces; span > 0 {
		n += rng.Intn(span + 1)
	}

	places := make([]models.PlaceResult, 0, n)
	for i := 0; i < n; i++ {
		// sqrt keeps points uniform over the disc
		distance := float64(radiusM) * math.Sqrt(rng.Float64())
		loc := offset(center, distance, rng.Float64()*2*math.Pi)

		var (
			rating  float64
			reviews int
		)
		if rng.Float64() > 0.1 {
			rating = math.Round((3.0+rng.Float64()*1.9)*10) / 10
			reviews = rng.Intn(800)
		}

		places = append(places, models.PlaceResult{
			PlaceID:          fmt.Sprintf("mock-%s-%02d", industry.Key, i+1),
			Name:             fmt.Sprintf("%s %d", industry.Label, i+1),
			Address:          fmt.Sprintf("%.4f, %.4f", loc.Lat, loc.Lng),
			Lat:              loc.Lat,
			Lng:              loc.Lng,
			Rating:           rating,
			UserRatingsTotal: reviews,
			PriceLevel:       1 + rng.Intn(4),
			Types:            []string{industry.PlaceType},
			Source:           models.PlaceSourceMock,
		})
	}
	return places
}

func mockGeocode(query string) *models.GeocodeResult {
	rng := rand.New(rand.NewSource(seedFor(query)))
	loc := offset(tokyoStation, 10000*math.Sqrt(rng.Float64()), rng.Float64()*2*math.Pi)
	return &models.GeocodeResult{
		Query:            query,
		FormattedAddress: query,
		Location:         loc,
		Source:           models.PlaceSourceMock,
	}
}
