// internal/workers/geo/lookup-postal-code/config.go
package lookuppostalcode

import "time"

type Config struct {
	Timeout   time.Duration
	BaseURL   string
	CacheTTL  time.Duration
	KeyPrefix string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   5 * time.Second,
		BaseURL:   "https://zipcloud.ibsnet.co.jp",
		CacheTTL:  24 * time.Hour,
		KeyPrefix: "postal:",
	}
}
