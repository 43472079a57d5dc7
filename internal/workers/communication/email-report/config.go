// internal/workers/communication/email-report/config.go
package emailreport

import "time"

type Config struct {
	Timeout            time.Duration
	FromEmail          string
	SubjectPrefix      string
	MaxAttachmentBytes int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            60 * time.Second,
		FromEmail:          "reports@example.com",
		SubjectPrefix:      "[Site Analytics]",
		MaxAttachmentBytes: 7 * 1024 * 1024,
	}
}
