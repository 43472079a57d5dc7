// internal/workers/simulation/simulate-funnel/config.go
package simulatefunnel

import "time"

type Config struct {
	Timeout       time.Duration
	DefaultMonths int
	MaxMonths     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		DefaultMonths: 12,
		MaxMonths:     60,
	}
}
