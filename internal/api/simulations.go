// internal/api/simulations.go
package api

import (
	"net/http"

	"site-analytics/internal/models"
	simulatefunnel "site-analytics/internal/workers/simulation/simulate-funnel"

	"github.com/gin-gonic/gin"
)

func (s *Server) simulate(c *gin.Context) {
	var params models.SimulationParams
	if err := bind(c, simulationSchema, &params); err != nil {
		s.fail(c, err)
		return
	}

	out, err := s.deps.Simulator.Execute(c.Request.Context(), &simulatefunnel.Input{Params: params})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out.Result)
}

// simulateProject runs a simulation for a project and stores it. The
// project's industry is used when the body leaves it out.
func (s *Server) simulateProject(c *gin.Context) {
	ctx := c.Request.Context()
	project, err := s.deps.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	var params models.SimulationParams
	if err := bind(c, simulationSchema, &params); err != nil {
		s.fail(c, err)
		return
	}
	if params.IndustryType == "" {
		params.IndustryType = project.IndustryType
	}

	out, err := s.deps.Simulator.Execute(ctx, &simulatefunnel.Input{ProjectID: project.ID, Params: params})
	if err != nil {
		s.fail(c, err)
		return
	}

	sim, err := s.deps.Simulations.Create(ctx, project.ID, params, out.Result)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sim)
}

func (s *Server) listSimulations(c *gin.Context) {
	ctx := c.Request.Context()
	project, err := s.deps.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	sims, err := s.deps.Simulations.ListByProject(ctx, project.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"simulations": sims})
}
