// internal/workers/analysis/record-analysis-result/handler_test.go
package recordanalysisresult

import (
	"context"
	"encoding/json"
	"testing"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	completed map[string]interface{}
	failed    map[string]string
	err       error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{completed: map[string]interface{}{}, failed: map[string]string{}}
}

func (f *fakeRecorder) Complete(_ context.Context, id string, result interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.completed[id] = result
	return nil
}

func (f *fakeRecorder) Fail(_ context.Context, id, message string) error {
	if f.err != nil {
		return f.err
	}
	f.failed[id] = message
	return nil
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name       string
		input      Input
		wantStatus models.AnalysisStatus
		wantCode   errors.ErrorCode
		verify     func(t *testing.T, rec *fakeRecorder)
	}{
		{
			name:       "completed result",
			input:      Input{AnalysisID: "a-1", Result: json.RawMessage(`{"population":42000}`)},
			wantStatus: models.AnalysisStatusCompleted,
			verify: func(t *testing.T, rec *fakeRecorder) {
				require.Contains(t, rec.completed, "a-1")
				assert.JSONEq(t, `{"population":42000}`, string(rec.completed["a-1"].(json.RawMessage)))
			},
		},
		{
			name:       "error wins over result",
			input:      Input{AnalysisID: "a-2", Result: json.RawMessage(`{}`), Error: "zipcloud timeout"},
			wantStatus: models.AnalysisStatusFailed,
			verify: func(t *testing.T, rec *fakeRecorder) {
				assert.Equal(t, "zipcloud timeout", rec.failed["a-2"])
				assert.Empty(t, rec.completed)
			},
		},
		{
			name:     "missing id",
			input:    Input{Result: json.RawMessage(`{}`)},
			wantCode: errors.ErrCodeValidationFailed,
		},
		{
			name:     "nothing to record",
			input:    Input{AnalysisID: "a-3", Result: json.RawMessage(`null`)},
			wantCode: errors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newFakeRecorder()
			h := NewHandler(LoadConfig(), rec, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), &tt.input)
			if tt.wantCode != "" {
				assert.True(t, errors.HasCode(err, tt.wantCode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Status)
			if tt.verify != nil {
				tt.verify(t, rec)
			}
		})
	}
}

func TestHandler_Execute_StoreError(t *testing.T) {
	rec := newFakeRecorder()
	rec.err = errors.NewNotFoundError("analysis", "a-9")
	h := NewHandler(LoadConfig(), rec, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{AnalysisID: "a-9", Result: json.RawMessage(`{}`)})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
