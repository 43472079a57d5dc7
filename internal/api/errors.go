// internal/api/errors.go
package api

import (
	stderrors "errors"
	"net/http"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/pipeline"

	"github.com/gin-gonic/gin"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeExternalAPIFailed, errors.ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	case errors.ErrCodeExternalAPITimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope and aborts the chain.
func (s *Server) fail(c *gin.Context, err error) {
	if stderrors.Is(err, pipeline.ErrShuttingDown) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorBody{Error: errorDetail{
			Code:    "UNAVAILABLE",
			Message: err.Error(),
		}})
		return
	}

	std := errors.AsStandard(err)
	status := statusFor(std.Code)
	detail := errorDetail{Code: string(std.Code), Message: std.Message, Details: std.Details}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"route":   c.FullPath(),
			"code":    std.Code,
			"details": std.Details,
		})
		if std.Code == errors.ErrCodeInternal {
			detail.Details = ""
		}
	}

	c.AbortWithStatusJSON(status, errorBody{Error: detail})
}
