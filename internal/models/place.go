// internal/models/place.go
package models

type PlaceSource string

const (
	PlaceSourceGoogle PlaceSource = "google"
	PlaceSourceMock   PlaceSource = "mock"
)

// Sentinels for missing place attributes.
const (
	RatingUnknown     = 0
	PriceLevelUnknown = -1
)

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PlaceResult struct {
	PlaceID          string      `json:"place_id"`
	Name             string      `json:"name"`
	Address          string      `json:"address"`
	Lat              float64     `json:"lat"`
	Lng              float64     `json:"lng"`
	Rating           float64     `json:"rating"`
	UserRatingsTotal int         `json:"user_ratings_total"`
	PriceLevel       int         `json:"price_level"`
	Types            []string    `json:"types,omitempty"`
	Source           PlaceSource `json:"source"`
}

type CompetitorData struct {
	PlaceResult
	DistanceM                 float64 `json:"distance_m"`
	EstimatedMonthlyCustomers int     `json:"estimated_monthly_customers"`
	EstimatedMonthlyRevenue   float64 `json:"estimated_monthly_revenue"`
	MarketShare               float64 `json:"market_share"`
	RatingMultiplier          float64 `json:"rating_multiplier"`
	PriceMultiplier           float64 `json:"price_multiplier"`
	ReviewMultiplier          float64 `json:"review_multiplier"`
	CalculationBasis          string  `json:"calculation_basis"`
}

type GeocodeResult struct {
	Query            string      `json:"query"`
	FormattedAddress string      `json:"formatted_address"`
	Location         GeoPoint    `json:"location"`
	Source           PlaceSource `json:"source"`
}

type PostalAddress struct {
	Zipcode    string `json:"zipcode"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Town       string `json:"town"`
	Kana       string `json:"kana"`
	Address    string `json:"address"`
	PrefCode   string `json:"pref_code"`
}
