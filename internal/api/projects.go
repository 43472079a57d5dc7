// internal/api/projects.go
package api

import (
	"net/http"
	"strconv"
	"strings"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/models"
	"site-analytics/internal/search"
	lookuppostalcode "site-analytics/internal/workers/geo/lookup-postal-code"

	"github.com/gin-gonic/gin"
)

func (s *Server) listIndustries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"industries": s.deps.Catalogue.Industries()})
}

func (s *Server) dashboard(c *gin.Context) {
	d, err := s.deps.Projects.Dashboard(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) listProjects(c *gin.Context) {
	filter := models.ProjectFilter{
		Query:        strings.TrimSpace(c.Query("q")),
		Status:       c.Query("status"),
		IndustryType: c.Query("industry_type"),
	}
	if filter.Status != "" && !models.ProjectStatus(filter.Status).Valid() {
		s.fail(c, errors.NewValidationErrorf("unknown status %q", filter.Status))
		return
	}
	var err error
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		s.fail(c, err)
		return
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if filter.Query != "" && s.deps.Search != nil {
		ids, err := s.deps.Search.SearchIDs(ctx, search.ProjectQuery{
			Text:         filter.Query,
			Status:       filter.Status,
			IndustryType: filter.IndustryType,
			Size:         s.config.SearchSize,
		})
		if err == nil {
			filter.IDs = ids
		} else {
			s.logger.Warn("project search failed, using database match", map[string]interface{}{
				"query": filter.Query,
				"error": err,
			})
		}
	}

	list, err := s.deps.Projects.List(ctx, filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createProject(c *gin.Context) {
	in, err := s.bindProject(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	p, err := s.deps.Projects.Create(c.Request.Context(), *in)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.index(c, p)
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.deps.Projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateProject(c *gin.Context) {
	in, err := s.bindProject(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	p, err := s.deps.Projects.Update(c.Request.Context(), c.Param("id"), *in)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.index(c, p)
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c *gin.Context) {
	id := c.Param("id")
	if err := s.deps.Projects.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	if s.deps.Search != nil {
		if err := s.deps.Search.Delete(c.Request.Context(), id); err != nil {
			s.logger.Warn("project unindex failed", map[string]interface{}{"projectId": id, "error": err})
		}
	}
	c.Status(http.StatusNoContent)
}

// bindProject decodes and checks a project body beyond what the schema covers.
func (s *Server) bindProject(c *gin.Context) (*models.ProjectInput, error) {
	var in models.ProjectInput
	if err := bind(c, projectSchema, &in); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.TargetArea = strings.TrimSpace(in.TargetArea)
	if in.Name == "" || in.TargetArea == "" {
		return nil, errors.NewValidationError("name and target_area must not be blank")
	}
	if _, ok := s.deps.Catalogue.Lookup(in.IndustryType); !ok {
		return nil, errors.NewValidationErrorf("unknown industry_type %q", in.IndustryType)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, errors.NewValidationError("latitude and longitude must be set together")
	}
	if in.PostalCode != "" {
		code, ok := lookuppostalcode.NormalizePostalCode(in.PostalCode)
		if !ok {
			return nil, errors.NewValidationErrorf("postal code %q must have 7 digits", in.PostalCode)
		}
		in.PostalCode = code
	}
	return &in, nil
}

// index mirrors a project write into the search index. Failures are logged only.
func (s *Server) index(c *gin.Context, p *models.Project) {
	if s.deps.Search == nil {
		return
	}
	if err := s.deps.Search.Index(c.Request.Context(), p); err != nil {
		s.logger.Warn("project index failed", map[string]interface{}{"projectId": p.ID, "error": err})
	}
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewValidationErrorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
