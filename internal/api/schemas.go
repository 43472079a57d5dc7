// internal/api/schemas.go
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/validation"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

var projectSchema = validation.MustCompile("project", `{
	"type": "object",
	"required": ["name", "industry_type", "target_area"],
	"properties": {
		"name":          {"type": "string", "minLength": 1, "maxLength": 120},
		"industry_type": {"type": "string", "minLength": 1},
		"target_area":   {"type": "string", "minLength": 1},
		"description":   {"type": "string"},
		"status":        {"type": "string", "enum": ["", "active", "completed", "paused"]},
		"postal_code":   {"type": "string"},
		"latitude":      {"type": ["number", "null"], "minimum": -90, "maximum": 90},
		"longitude":     {"type": ["number", "null"], "minimum": -180, "maximum": 180},
		"radius_m":      {"type": "integer", "minimum": 0, "maximum": 50000}
	}
}`)

var simulationSchema = validation.MustCompile("simulation", `{
	"type": "object",
	"required": ["average_spend", "media_budgets"],
	"properties": {
		"industry_type":        {"type": "string"},
		"target_monthly_sales": {"type": "number", "minimum": 0},
		"average_spend":        {"type": "number"},
		"media_budgets":        {"type": "object", "additionalProperties": {"type": "number"}},
		"fixed_costs": {
			"type": "object",
			"properties": {
				"rent":  {"type": "number", "minimum": 0},
				"labor": {"type": "number", "minimum": 0},
				"other": {"type": "number", "minimum": 0}
			}
		},
		"variable_cost_rate": {"type": "number", "minimum": 0},
		"repeat_rate":        {"type": ["number", "null"], "minimum": 0, "maximum": 1},
		"initial_investment": {"type": "number", "minimum": 0},
		"months":             {"type": "integer", "minimum": 0, "maximum": 60}
	}
}`)

var analyzeSchema = validation.MustCompile("analyze", `{
	"type": "object",
	"properties": {
		"types": {
			"type": "array",
			"items": {"type": "string", "enum": ["demographics", "competitors", "demand"]}
		}
	}
}`)

var emailSchema = validation.MustCompile("report-email", `{
	"type": "object",
	"required": ["to"],
	"properties": {
		"to":     {"type": "string", "format": "email"},
		"format": {"type": "string", "enum": ["", "json", "pdf", "xlsx"]}
	}
}`)

// bind validates the request body against schema and decodes it into dest.
// An empty body is treated as {}.
func bind(c *gin.Context, schema *validation.Schema, dest interface{}) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return errors.NewValidationErrorf("read body: %v", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	result, err := schema.Validate(body)
	if err != nil {
		return errors.NewValidationError("body is not valid JSON")
	}
	if !result.Valid {
		return errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return errors.NewValidationErrorf("decode body: %v", err)
	}
	return nil
}
