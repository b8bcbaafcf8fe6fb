package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/aether/internal/airquality"
	"github.com/UnknownOlympus/aether/internal/apierror"
	"github.com/UnknownOlympus/aether/internal/geocoding"
	"github.com/UnknownOlympus/aether/internal/metrics"
	"github.com/UnknownOlympus/aether/internal/models"
)

// State is a step of a lookup run.
type State string

// States of a lookup run. Error is absorbing and reachable from every other state.
const (
	StateAwaitingInput       State = "awaiting_input"
	StateGeocoding           State = "geocoding"
	StateFetchingEnvironment State = "fetching_environment"
	StateDone                State = "done"
	StateError               State = "error"
)

// Failure classifies why a run did not complete.
type Failure string

const (
	FailureNone        Failure = ""
	FailureValidation  Failure = "validation"
	FailureGeocoding   Failure = "geocoding"
	FailureEnvironment Failure = "environment"
	FailureExport      Failure = "export"
)

// Messages shown to the user.
const (
	MsgMissingKeys       = "Please enter both API keys."
	MsgMissingAddress    = "Please enter an address."
	MsgGeocodingFailed   = "Geocoding failed."
	MsgEnvironmentFailed = "Failed to fetch environmental data."
	MsgExportFailed      = "Failed to export data."
)

// Metric labels for the two upstream stages.
const (
	stageGeocoding  = "geocoding"
	stageAirQuality = "air_quality"
)

// Request carries everything one run needs. Keys live only as long as the request.
type Request struct {
	GeocodingKey  string // GeocodingKey authenticates against the geocoding service.
	AirQualityKey string // AirQualityKey authenticates against the air-quality service.
	Address       string // Address is the free-text address to resolve.
}

// LogValue keeps API keys out of logs.
func (r Request) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("address", r.Address),
		slog.Bool("geocoding_key_set", r.GeocodingKey != ""),
		slog.Bool("air_quality_key_set", r.AirQualityKey != ""),
	)
}

// Outcome is the result of one run. Coordinates and Reading are set as soon as the
// corresponding stage succeeded, even when a later stage failed.
type Outcome struct {
	State       State
	Failure     Failure
	Reason      apierror.Reason // Reason details geocoding and environment failures.
	Message     string
	Err         error
	Address     string
	Coordinates *models.Coordinates
	Reading     *models.Reading
	Row         *models.ExportRow
	ExportPath  string  // ExportPath is set once the export file has been written.
	Trace       []State // Trace lists the visited states in order.
}

// Done reports whether the run reached the Done state without a later failure.
func (o Outcome) Done() bool {
	return o.State == StateDone
}

// Exporter writes an ExportRow to a destination, replacing prior contents.
type Exporter interface {
	Export(row models.ExportRow, dest string) error
}

// LookupService runs the address → coordinates → air quality → export pipeline.
// It keeps no state between runs.
type LookupService struct {
	log        *slog.Logger        // Logger for logging service activities
	geocoder   geocoding.Provider  // Geocoding provider resolving addresses
	airQuality airquality.Provider // Air-quality provider for the resolved coordinates
	exporter   Exporter            // Exporter writing the downloadable file
	metrics    *metrics.Metrics    // Metrics for tracking service performance
	exportPath string              // Destination of the export file
}

// NewLookupService creates a new instance of LookupService.
func NewLookupService(
	log *slog.Logger,
	geocoder geocoding.Provider,
	airQuality airquality.Provider,
	exporter Exporter,
	metrics *metrics.Metrics,
	exportPath string,
) *LookupService {
	return &LookupService{
		log:        log,
		geocoder:   geocoder,
		airQuality: airQuality,
		exporter:   exporter,
		metrics:    metrics,
		exportPath: exportPath,
	}
}

// ExportPath returns the destination the service exports to.
func (ls *LookupService) ExportPath() string {
	return ls.exportPath
}

// Run executes one lookup. Inputs are validated before any network call; each stage
// only starts when the previous one produced a result.
func (ls *LookupService) Run(ctx context.Context, req Request) Outcome {
	out := Outcome{
		State:   StateAwaitingInput,
		Address: strings.TrimSpace(req.Address),
		Trace:   []State{StateAwaitingInput},
	}

	ls.log.DebugContext(ctx, "Lookup requested", "request", req)

	if msg := validate(req); msg != "" {
		out.Failure = FailureValidation
		out.Message = msg
		ls.metrics.LookupRuns.WithLabelValues(string(FailureValidation)).Inc()
		ls.log.InfoContext(ctx, "Lookup rejected", "reason", msg)

		return out
	}

	ls.enter(&out, StateGeocoding)
	start := time.Now()
	coords, err := ls.geocoder.Geocode(ctx, out.Address, req.GeocodingKey)
	ls.observe(stageGeocoding, start, err)
	if err != nil || coords == nil {
		return ls.fail(ctx, out, FailureGeocoding, MsgGeocodingFailed, err)
	}
	out.Coordinates = coords

	ls.enter(&out, StateFetchingEnvironment)
	start = time.Now()
	reading, err := ls.airQuality.AirPollution(ctx, *coords, req.AirQualityKey)
	ls.observe(stageAirQuality, start, err)
	if err != nil || reading == nil {
		return ls.fail(ctx, out, FailureEnvironment, MsgEnvironmentFailed, err)
	}
	out.Reading = reading

	ls.enter(&out, StateDone)
	row := models.NewExportRow(out.Address, *coords, *reading)
	out.Row = &row

	if err = ls.exporter.Export(row, ls.exportPath); err != nil {
		ls.metrics.ExportFailures.Inc()
		return ls.fail(ctx, out, FailureExport, MsgExportFailed, err)
	}
	out.ExportPath = ls.exportPath

	ls.metrics.LookupRuns.WithLabelValues("success").Inc()
	ls.log.InfoContext(ctx, "Lookup completed",
		"address", out.Address,
		"lat", coords.Latitude,
		"lon", coords.Longitude,
		"aqi", reading.AQI,
	)

	return out
}

func validate(req Request) string {
	if strings.TrimSpace(req.GeocodingKey) == "" || strings.TrimSpace(req.AirQualityKey) == "" {
		return MsgMissingKeys
	}
	if strings.TrimSpace(req.Address) == "" {
		return MsgMissingAddress
	}

	return ""
}

func (ls *LookupService) enter(out *Outcome, state State) {
	out.State = state
	out.Trace = append(out.Trace, state)
}

func (ls *LookupService) fail(ctx context.Context, out Outcome, failure Failure, msg string, err error) Outcome {
	ls.enter(&out, StateError)
	out.Failure = failure
	out.Message = msg
	out.Err = err
	out.Reason = apierror.ReasonOf(err)

	ls.metrics.LookupRuns.WithLabelValues(string(failure)).Inc()
	ls.log.WarnContext(ctx, "Lookup failed",
		"address", out.Address,
		"failure", failure,
		"reason", out.Reason,
		"error", err,
	)

	return out
}

func (ls *LookupService) observe(stage string, start time.Time, err error) {
	ls.metrics.RequestSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		ls.metrics.ProviderErrors.WithLabelValues(stage, string(apierror.ReasonOf(err))).Inc()
	}
}
