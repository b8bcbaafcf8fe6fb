// Package web serves the single-page form that drives a lookup and offers the export for download.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/aether/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	pageTitle  = "Institute of Public Health - Geocoding and Environmental Data App"
	pagePrompt = "Enter an address in India to fetch its geocoding and environmental data."
	pageName   = "index.html"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Runner executes one lookup.
type Runner interface {
	Run(ctx context.Context, req service.Request) service.Outcome
}

// Server encapsulates the router and its dependencies.
type Server struct {
	router     *gin.Engine
	log        *slog.Logger
	runner     Runner
	gatherer   prometheus.Gatherer
	exportPath string
}

// NewServer creates the router and registers all routes.
func NewServer(log *slog.Logger, runner Runner, gatherer prometheus.Gatherer, exportPath string) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	srv := &Server{
		router:     router,
		log:        log,
		runner:     runner,
		gatherer:   gatherer,
		exportPath: exportPath,
	}
	srv.registerRoutes()

	return srv
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/fetch", s.handleFetch)
	s.router.GET("/download", s.handleDownload)
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
}
