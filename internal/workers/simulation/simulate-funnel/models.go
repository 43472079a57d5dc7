// internal/workers/simulation/simulate-funnel/models.go
package simulatefunnel

import "site-analytics/internal/models"

type Input struct {
	ProjectID string                  `json:"project_id,omitempty"`
	Params    models.SimulationParams `json:"params"`
}

type Output struct {
	ProjectID string                  `json:"project_id,omitempty"`
	Result    models.SimulationResult `json:"result"`
}
