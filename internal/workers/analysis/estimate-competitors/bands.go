// internal/workers/analysis/estimate-competitors/bands.go
package estimatecompetitors

import (
	"math"

	"site-analytics/internal/models"
)

const earthRadiusM = 6371000.0

func ratingMultiplier(rating float64) float64 {
	switch {
	case rating <= models.RatingUnknown:
		return 1.00
	case rating >= 4.5:
		return 1.30
	case rating >= 4.0:
		return 1.15
	case rating >= 3.5:
		return 1.00
	case rating >= 3.0:
		return 0.85
	default:
		return 0.70
	}
}

func priceMultiplier(level int) float64 {
	switch level {
	case 0, 1:
		return 1.20
	case 2:
		return 1.00
	case 3:
		return 0.80
	case 4:
		return 0.60
	default:
		return 1.00
	}
}

func reviewMultiplier(reviews int) float64 {
	switch {
	case reviews >= 500:
		return 1.40
	case reviews >= 100:
		return 1.20
	case reviews >= 30:
		return 1.00
	case reviews >= 10:
		return 0.85
	default:
		return 0.70
	}
}

// spendFactor scales the industry average spend by price tier.
func spendFactor(level int) float64 {
	switch level {
	case 0, 1:
		return 0.7
	case 2:
		return 1.0
	case 3:
		return 1.5
	case 4:
		return 2.2
	default:
		return 1.0
	}
}

// haversineM returns the great-circle distance in metres.
func haversineM(a, b models.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}
