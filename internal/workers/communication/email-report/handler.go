// internal/workers/communication/email-report/handler.go
package emailreport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/common/metrics"
	buildreport "site-analytics/internal/workers/report/build-report"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "email-report"
)

type Handler struct {
	config  *Config
	reports ReportBuilder
	mailer  Mailer
	logger  logger.Logger
}

func NewHandler(config *Config, reports ReportBuilder, mailer Mailer, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		reports: reports,
		mailer:  mailer,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		camunda.FailJob(client, job, errors.NewValidationErrorf("parse input: %v", err), h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		camunda.FailJob(client, job, err, h.logger)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	to, err := mail.ParseAddress(input.To)
	if err != nil {
		return nil, errors.NewValidationErrorf("invalid recipient %q", input.To)
	}
	if h.mailer == nil {
		return nil, errors.NewValidationError("email delivery is not enabled")
	}

	report, err := h.reports.Execute(ctx, &buildreport.Input{ProjectID: input.ProjectID, Format: input.Format})
	if err != nil {
		return nil, err
	}
	if h.config.MaxAttachmentBytes > 0 && len(report.Content) > h.config.MaxAttachmentBytes {
		return nil, errors.NewValidationErrorf("report is %d bytes, attachment limit is %d", len(report.Content), h.config.MaxAttachmentBytes)
	}

	raw, err := message{
		From:        h.config.FromEmail,
		To:          to.String(),
		Subject:     fmt.Sprintf("%s %s", h.config.SubjectPrefix, report.Filename),
		Body:        fmt.Sprintf("The %s report for project %s is attached.\r\n", report.Format, input.ProjectID),
		Filename:    report.Filename,
		ContentType: report.ContentType,
		Attachment:  report.Content,
	}.encode()
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	sent, err := h.mailer.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       awssdk.String(h.config.FromEmail),
		Destinations: []string{to.Address},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		metrics.ExternalAPICalls.WithLabelValues("ses", "error").Inc()
		return nil, errors.NewNotificationSendFailedError("email", err)
	}
	metrics.ExternalAPICalls.WithLabelValues("ses", "ok").Inc()

	messageID := awssdk.ToString(sent.MessageId)
	h.logger.Info("report emailed", map[string]interface{}{
		"projectId": input.ProjectID,
		"to":        to.Address,
		"filename":  report.Filename,
		"messageId": messageID,
	})

	return &Output{
		MessageID: messageID,
		To:        to.Address,
		Filename:  report.Filename,
		Bytes:     len(report.Content),
	}, nil
}
