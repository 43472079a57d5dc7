// internal/api/analyses.go
package api

import (
	"net/http"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/models"
	"site-analytics/internal/pipeline"

	"github.com/gin-gonic/gin"
)

type analyzeRequest struct {
	Types []string `json:"types"`
}

// analyze schedules the requested analyses and answers 202 with the
// processing rows.
func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := bind(c, analyzeSchema, &req); err != nil {
		s.fail(c, err)
		return
	}
	types, err := pipeline.NormalizeTypes(req.Types)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	project, err := s.deps.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	rows, err := s.deps.Pipeline.Start(ctx, project, types)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"analyses": rows})
}

func (s *Server) listAnalyses(c *gin.Context) {
	ctx := c.Request.Context()
	project, err := s.deps.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	rows, err := s.deps.Analyses.LatestByProject(ctx, project.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": rows})
}

func (s *Server) getAnalysis(c *gin.Context) {
	kind := models.AnalysisType(c.Param("type"))
	if !kind.Valid() {
		s.fail(c, errors.NewValidationErrorf("unknown analysis type %q", kind))
		return
	}

	ctx := c.Request.Context()
	project, err := s.deps.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	row, err := s.deps.Analyses.Latest(ctx, project.ID, kind, false)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}
