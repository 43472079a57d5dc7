// internal/api/geo.go
package api

import (
	"net/http"
	"strconv"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/models"
	lookuppostalcode "site-analytics/internal/workers/geo/lookup-postal-code"
	searchnearbyplaces "site-analytics/internal/workers/geo/search-nearby-places"

	"github.com/gin-gonic/gin"
)

func (s *Server) postalCode(c *gin.Context) {
	out, err := s.deps.Postal.Execute(c.Request.Context(), &lookuppostalcode.Input{PostalCode: c.Param("code")})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// nearbyPlaces accepts either lat and lng or a free-text query.
func (s *Server) nearbyPlaces(c *gin.Context) {
	input := &searchnearbyplaces.Input{
		Query:        c.Query("query"),
		IndustryType: c.Query("industry_type"),
	}
	if input.IndustryType == "" {
		s.fail(c, errors.NewValidationError("industry_type is required"))
		return
	}

	lat, lng := c.Query("lat"), c.Query("lng")
	if lat != "" || lng != "" {
		la, errLat := strconv.ParseFloat(lat, 64)
		ln, errLng := strconv.ParseFloat(lng, 64)
		if errLat != nil || errLng != nil {
			s.fail(c, errors.NewValidationError("lat and lng must both be numbers"))
			return
		}
		input.Location = &models.GeoPoint{Lat: la, Lng: ln}
	}

	radius, err := intQuery(c, "radius_m")
	if err != nil {
		s.fail(c, err)
		return
	}
	input.RadiusM = radius

	out, err := s.deps.Places.Execute(c.Request.Context(), input)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) geocode(c *gin.Context) {
	out, err := s.deps.Places.Geocode(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
