// internal/workers/analysis/estimate-demand/config.go
package estimatedemand

import "time"

type Config struct {
	Timeout         time.Duration
	HighOpportunity float64
	LowOpportunity  float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		HighOpportunity: 0.7,
		LowOpportunity:  1.0,
	}
}
