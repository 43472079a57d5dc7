// internal/workers/communication/email-report/models.go
package emailreport

import (
	"context"

	buildreport "site-analytics/internal/workers/report/build-report"

	"github.com/aws/aws-sdk-go-v2/service/ses"
)

type Input struct {
	ProjectID string `json:"project_id"`
	To        string `json:"to"`
	Format    string `json:"format"`
}

type Output struct {
	MessageID string `json:"message_id"`
	To        string `json:"to"`
	Filename  string `json:"filename"`
	Bytes     int    `json:"bytes"`
}

// ReportBuilder renders a report for one project.
type ReportBuilder interface {
	Execute(ctx context.Context, input *buildreport.Input) (*buildreport.Output, error)
}

// Mailer sends an already encoded MIME message.
type Mailer interface {
	SendRawEmail(ctx context.Context, input *ses.SendRawEmailInput) (*ses.SendRawEmailOutput, error)
}
