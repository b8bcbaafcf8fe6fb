package web

import (
	"net/http"
	"os"

	"github.com/UnknownOlympus/aether/internal/export"
	"github.com/UnknownOlympus/aether/internal/presenter"
	"github.com/UnknownOlympus/aether/internal/service"
	"github.com/gin-gonic/gin"
)

// fetchForm is the submitted form. Keys are never written back into the page.
type fetchForm struct {
	GeocodingKey  string `form:"geocoding_key"`
	AirQualityKey string `form:"air_quality_key"`
	Address       string `form:"address"`
}

// page is the data the index template renders.
type page struct {
	Title         string
	Prompt        string
	Address       string
	Warning       string
	Error         string
	GeocodeStatus string
	View          *presenter.View
	Download      bool
}

func newPage() page {
	return page{Title: pageTitle, Prompt: pagePrompt}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, pageName, newPage())
}

func (s *Server) handleFetch(c *gin.Context) {
	var form fetchForm
	if err := c.ShouldBind(&form); err != nil {
		s.log.WarnContext(c.Request.Context(), "Failed to bind form", "error", err)
		p := newPage()
		p.Error = "Invalid form submission."
		c.HTML(http.StatusBadRequest, pageName, p)

		return
	}

	out := s.runner.Run(c.Request.Context(), service.Request{
		GeocodingKey:  form.GeocodingKey,
		AirQualityKey: form.AirQualityKey,
		Address:       form.Address,
	})

	c.HTML(statusFor(out), pageName, render(form.Address, out))
}

// render maps an outcome onto the page. Whatever succeeded before a failure is still shown.
func render(address string, out service.Outcome) page {
	p := newPage()
	p.Address = address

	if out.Failure == service.FailureValidation {
		p.Warning = out.Message
		return p
	}

	if out.Coordinates != nil {
		p.GeocodeStatus = presenter.GeocodeStatus(*out.Coordinates)
	}
	if out.Coordinates != nil && out.Reading != nil {
		view := presenter.Present(out.Address, *out.Coordinates, *out.Reading)
		p.View = &view
	}
	if out.State == service.StateError {
		p.Error = out.Message
	}
	p.Download = out.ExportPath != ""

	return p
}

func statusFor(out service.Outcome) int {
	switch out.Failure {
	case service.FailureNone:
		return http.StatusOK
	case service.FailureValidation:
		return http.StatusUnprocessableEntity
	case service.FailureGeocoding, service.FailureEnvironment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleDownload(c *gin.Context) {
	info, err := os.Stat(s.exportPath)
	if err != nil || info.IsDir() {
		c.String(http.StatusNotFound, "No export available yet.")
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.FileAttachment(s.exportPath, export.DefaultFilename)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
