// internal/api/reports.go
package api

import (
	"mime"
	"net/http"

	emailreport "site-analytics/internal/workers/communication/email-report"
	buildreport "site-analytics/internal/workers/report/build-report"

	"github.com/gin-gonic/gin"
)

type emailRequest struct {
	To     string `json:"to"`
	Format string `json:"format"`
}

func (s *Server) report(c *gin.Context) {
	out, err := s.deps.Reports.Execute(c.Request.Context(), &buildreport.Input{
		ProjectID: c.Param("id"),
		Format:    c.Query("format"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	c.Data(http.StatusOK, out.ContentType, out.Content)
}

func (s *Server) emailReport(c *gin.Context) {
	var req emailRequest
	if err := bind(c, emailSchema, &req); err != nil {
		s.fail(c, err)
		return
	}

	out, err := s.deps.Mailer.Execute(c.Request.Context(), &emailreport.Input{
		ProjectID: c.Param("id"),
		To:        req.To,
		Format:    req.Format,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
