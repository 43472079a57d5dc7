// pkg/benchmarks/jsonschema.go
package benchmarks

import "site-analytics/internal/common/validation"

// catalogueSchema checks the shape of an override file before it is merged.
// Cross-field rules stay in Industry.validate.
var catalogueSchema = validation.MustCompile("benchmarks", `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"version": {"type": "string"},
		"industries": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["average_spend", "base_monthly_customers", "visits_per_year", "target"],
				"properties": {
					"label": {"type": "string"},
					"average_spend": {"type": "number", "exclusiveMinimum": 0},
					"repeat_rate": {"type": "number", "minimum": 0, "maximum": 1},
					"base_monthly_customers": {"type": "number", "exclusiveMinimum": 0},
					"annual_usage_rate": {"type": "number", "minimum": 0, "maximum": 1},
					"visits_per_year": {"type": "number", "exclusiveMinimum": 0},
					"target": {
						"type": "object",
						"required": ["gender", "age_bands"],
						"properties": {
							"gender": {"enum": ["female", "male", "all"]},
							"age_bands": {
								"type": "array",
								"minItems": 1,
								"items": {"enum": ["0-14", "15-19", "20-29", "30-39", "40-49", "50-59", "60-69", "70+"]}
							}
						}
					},
					"channels": {
						"type": "object",
						"propertyNames": {"enum": ["search_ads", "sns_ads", "portal", "flyer"]},
						"additionalProperties": {
							"type": "object",
							"required": ["cpc", "cvr"],
							"properties": {
								"cpc": {"type": "number", "exclusiveMinimum": 0},
								"cvr": {"type": "number", "exclusiveMinimum": 0, "maximum": 1}
							}
						}
					},
					"place_type": {"type": "string"},
					"place_keyword": {"type": "string"}
				}
			}
		}
	}
}`)
