// internal/workers/report/build-report/config.go
package buildreport

import "time"

type Config struct {
	Timeout        time.Duration
	Title          string
	FontPath       string
	MaxCompetitors int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		Title:          "Site Analysis Report",
		MaxCompetitors: 30,
	}
}
