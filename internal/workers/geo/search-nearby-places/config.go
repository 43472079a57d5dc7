// internal/workers/geo/search-nearby-places/config.go
package searchnearbyplaces

import "time"

type Config struct {
	Timeout        time.Duration
	APIKey         string
	BaseURL        string
	Language       string
	Region         string
	DefaultRadiusM int
	MaxRadiusM     int
	MaxResults     int
	CacheTTL       time.Duration
	KeyPrefix      string
	MockMinPlaces  int
	MockMaxPlaces  int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        10 * time.Second,
		Language:       "ja",
		Region:         "jp",
		DefaultRadiusM: 1000,
		MaxRadiusM:     50000,
		MaxResults:     20,
		CacheTTL:       6 * time.Hour,
		KeyPrefix:      "places:",
		MockMinPlaces:  6,
		MockMaxPlaces:  14,
	}
}
