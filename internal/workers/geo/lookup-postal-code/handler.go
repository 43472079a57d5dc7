// internal/workers/geo/lookup-postal-code/handler.go
package lookuppostalcode

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/database"
	"site-analytics/internal/common/errors"
	httpclient "site-analytics/internal/common/http"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/common/metrics"
	"site-analytics/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/unicode/norm"
)

const (
	TaskType = "lookup-postal-code"

	serviceName = "zipcloud"
)

type Handler struct {
	config *Config
	client *httpclient.Client
	redis  redis.Cmdable
	logger logger.Logger
}

// NewHandler wires the zipcloud client. rdb may be nil to disable caching.
func NewHandler(config *Config, client *httpclient.Client, rdb redis.Cmdable, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	code, ok := NormalizePostalCode(input.PostalCode)
	if !ok {
		return nil, errors.NewValidationErrorf("postal code %q must have 7 digits", input.PostalCode)
	}

	key := h.config.KeyPrefix + code
	if h.redis != nil {
		var cached models.PostalAddress
		found, err := database.GetJSON(ctx, h.redis, key, &cached)
		if err != nil {
			h.logger.Warn("postal cache read failed", map[string]interface{}{"error": errors.NewCacheReadFailedError(key, err)})
		}
		metrics.ObserveCache("postal", found)
		if found {
			return &Output{Address: cached, Cached: true}, nil
		}
	}

	address, err := h.fetch(ctx, code)
	if err != nil {
		return nil, err
	}

	if h.redis != nil {
		if err := database.SetJSON(ctx, h.redis, key, address, h.config.CacheTTL); err != nil {
			h.logger.Warn("postal cache write failed", map[string]interface{}{"error": errors.NewCacheWriteFailedError(key, err)})
		}
	}

	h.logger.Debug("postal code resolved", map[string]interface{}{
		"zipcode": code,
		"address": address.Address,
	})

	return &Output{Address: *address}, nil
}

func (h *Handler) fetch(ctx context.Context, code string) (*models.PostalAddress, error) {
	endpoint := strings.TrimRight(h.config.BaseURL, "/") + "/api/search?zipcode=" + url.QueryEscape(code)

	var resp zipcloudResponse
	if err := h.client.GetJSON(ctx, endpoint, &resp); err != nil {
		metrics.ExternalAPICalls.WithLabelValues(serviceName, "error").Inc()
		if httpclient.IsTimeout(err) {
			return nil, errors.NewExternalAPITimeoutError(serviceName)
		}
		return nil, errors.NewExternalAPIFailedError(serviceName, err)
	}
	metrics.ExternalAPICalls.WithLabelValues(serviceName, "ok").Inc()

	// zipcloud reports parameter errors in the body with HTTP 200
	if resp.Status != 200 {
		msg := "rejected"
		if resp.Message != nil {
			msg = *resp.Message
		}
		return nil, errors.NewValidationErrorf("zipcloud: %s", msg)
	}
	if len(resp.Results) == 0 {
		return nil, errors.NewNotFoundError("postal code", code)
	}

	r := resp.Results[0]
	return &models.PostalAddress{
		Zipcode:    r.Zipcode,
		Prefecture: r.Address1,
		City:       r.Address2,
		Town:       r.Address3,
		Kana:       r.Kana1 + r.Kana2 + r.Kana3,
		Address:    r.Address1 + r.Address2 + r.Address3,
		PrefCode:   r.PrefCode,
	}, nil
}

// NormalizePostalCode folds full-width characters, drops the 〒 mark,
// separators and spaces, and reports whether 7 ASCII digits remain.
func NormalizePostalCode(raw string) (string, bool) {
	s := norm.NFKC.String(raw)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '〒', '-', '‐', '−', 'ー', ' ':
			return -1
		}
		return r
	}, s)

	if len(s) != 7 {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}
