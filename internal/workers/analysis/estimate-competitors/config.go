// internal/workers/analysis/estimate-competitors/config.go
package estimatecompetitors

import "time"

type Config struct {
	Timeout        time.Duration
	DefaultRadiusM int
	LowThreshold   int
	HighThreshold  int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        20 * time.Second,
		DefaultRadiusM: 1000,
		LowThreshold:   5,
		HighThreshold:  15,
	}
}
