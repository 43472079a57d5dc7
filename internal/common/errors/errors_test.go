package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedRetries int
	}{
		{
			name:            "retryable database error",
			err:             NewDatabaseQueryFailedError("projects.get", fmt.Errorf("boom")),
			expectedRetries: 3,
		},
		{
			name:            "timeout gets partial retries",
			err:             NewExternalAPITimeoutError("zipcloud"),
			expectedRetries: 2,
		},
		{
			name:            "validation error never retries",
			err:             NewValidationError("months out of range"),
			expectedRetries: 0,
		},
		{
			name:            "render error is not retryable",
			err:             NewReportRenderFailedError("pdf", fmt.Errorf("font")),
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.expectedRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestAsStandard(t *testing.T) {
	assert.Nil(t, AsStandard(nil))

	wrapped := fmt.Errorf("loading: %w", NewNotFoundError("project", "p-1"))
	std := AsStandard(wrapped)
	require.NotNil(t, std)
	assert.Equal(t, ErrCodeNotFound, std.Code)
	assert.True(t, HasCode(wrapped, ErrCodeNotFound))

	plain := AsStandard(fmt.Errorf("plain"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "plain", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDatabaseInsertFailed))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheReadFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "EXTERNAL", GetErrorCategory(ErrCodeExternalAPITimeout))
	assert.Equal(t, "DELIVERY", GetErrorCategory(ErrCodeReportRenderFailed))
	assert.Equal(t, "CLIENT", GetErrorCategory(ErrCodeNotFound))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestWithMetadata(t *testing.T) {
	err := NewValidationError("bad").WithMetadata("field", "months")
	assert.Equal(t, "months", err.Metadata["field"])
	assert.Contains(t, err.Error(), "VALIDATION_FAILED")
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeExternalAPITimeout))
	assert.True(t, IsRetryableErrorCode(ErrCodeCacheWriteFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeValidationFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeNotFound))
}
