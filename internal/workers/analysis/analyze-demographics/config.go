// internal/workers/analysis/analyze-demographics/config.go
package analyzedemographics

import "time"

type Config struct {
	Timeout       time.Duration
	MinPopulation int
	MaxPopulation int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		MinPopulation: 20000,
		MaxPopulation: 150000,
	}
}
