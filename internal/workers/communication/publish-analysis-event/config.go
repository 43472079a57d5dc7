// internal/workers/communication/publish-analysis-event/config.go
package publishanalysisevent

import "time"

type Config struct {
	Timeout  time.Duration
	TopicARN string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
