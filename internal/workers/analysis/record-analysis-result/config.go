// internal/workers/analysis/record-analysis-result/config.go
package recordanalysisresult

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
