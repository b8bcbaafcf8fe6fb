package service_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/aether/internal/airquality"
	"github.com/UnknownOlympus/aether/internal/apierror"
	"github.com/UnknownOlympus/aether/internal/export"
	"github.com/UnknownOlympus/aether/internal/geocoding"
	"github.com/UnknownOlympus/aether/internal/metrics"
	"github.com/UnknownOlympus/aether/internal/models"
	"github.com/UnknownOlympus/aether/internal/service"
	"github.com/UnknownOlympus/aether/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	address = "Connaught Place, Delhi"
	gKey    = "google-secret"
	owmKey  = "owm-secret"
	outFile = "out.csv"
)

var delhi = models.Coordinates{Latitude: 28.6315, Longitude: 77.2167}

func delhiReading() *models.Reading {
	return &models.Reading{
		AQI: 3,
		Components: map[models.Pollutant]models.Concentration{
			models.PollutantCO:   models.ParseConcentration("220.1"),
			models.PollutantNO2:  models.ParseConcentration("15.3"),
			models.PollutantO3:   models.ParseConcentration("60.2"),
			models.PollutantSO2:  models.ParseConcentration("5.1"),
			models.PollutantPM25: models.ParseConcentration("35.0"),
			models.PollutantPM10: models.ParseConcentration("50.2"),
		},
	}
}

type fixture struct {
	geocoder   *mocks.Provider
	airQuality *mocks.AirQualityProvider
	exporter   *mocks.Exporter
	metrics    *metrics.Metrics
	service    *service.LookupService
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	f := fixture{
		geocoder:   mocks.NewProvider(t),
		airQuality: mocks.NewAirQualityProvider(t),
		exporter:   mocks.NewExporter(t),
		metrics:    metrics.NewMetrics(prometheus.NewRegistry()),
	}
	f.service = service.NewLookupService(
		slog.New(slog.DiscardHandler), f.geocoder, f.airQuality, f.exporter, f.metrics, outFile,
	)

	return f
}

func TestLookupService_Run(t *testing.T) {
	ctx := t.Context()

	t.Run("successful run", func(t *testing.T) {
		f := newFixture(t)
		f.geocoder.On("Geocode", mock.Anything, address, gKey).Return(&delhi, nil).Once()
		f.airQuality.On("AirPollution", mock.Anything, delhi, owmKey).Return(delhiReading(), nil).Once()
		f.exporter.On("Export", mock.AnythingOfType("models.ExportRow"), outFile).Return(nil).Once()

		out := f.service.Run(ctx, service.Request{GeocodingKey: gKey, AirQualityKey: owmKey, Address: address})

		require.True(t, out.Done())
		assert.Equal(t, service.FailureNone, out.Failure)
		assert.Empty(t, out.Message)
		assert.Equal(t, []service.State{
			service.StateAwaitingInput,
			service.StateGeocoding,
			service.StateFetchingEnvironment,
			service.StateDone,
		}, out.Trace)
		assert.Equal(t, delhi, *out.Coordinates)
		assert.Equal(t, 3, out.Reading.AQI)
		require.NotNil(t, out.Row)
		assert.Equal(t, []string{
			address, "28.6315", "77.2167", "3", "220.1", "15.3", "60.2", "5.1", "35.0", "50.2",
		}, out.Row.Record())
		assert.Equal(t, outFile, out.ExportPath)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.LookupRuns.WithLabelValues("success")), 0)
	})

	t.Run("address is trimmed before geocoding", func(t *testing.T) {
		f := newFixture(t)
		f.geocoder.On("Geocode", mock.Anything, "Kyiv", gKey).Return(&models.Coordinates{Latitude: 50.45, Longitude: 30.52}, nil).Once()
		f.airQuality.On("AirPollution", mock.Anything, mock.Anything, owmKey).Return(&models.Reading{AQI: 1}, nil).Once()
		f.exporter.On("Export", mock.Anything, outFile).Return(nil).Once()

		out := f.service.Run(ctx, service.Request{GeocodingKey: gKey, AirQualityKey: owmKey, Address: "  Kyiv\n"})

		require.True(t, out.Done())
		assert.Equal(t, "Kyiv", out.Row.Address)
		assert.Equal(t, models.NotAvailable, out.Row.Record()[4])
	})

	t.Run("geocoding failure stops the run", func(t *testing.T) {
		f := newFixture(t)
		geoErr := apierror.New(geocoding.GoogleProviderName, apierror.ReasonServiceStatus, assert.AnError)
		f.geocoder.On("Geocode", mock.Anything, "nowhere", gKey).Return(nil, geoErr).Once()

		out := f.service.Run(ctx, service.Request{GeocodingKey: gKey, AirQualityKey: owmKey, Address: "nowhere"})

		assert.Equal(t, service.StateError, out.State)
		assert.Equal(t, service.FailureGeocoding, out.Failure)
		assert.Equal(t, service.MsgGeocodingFailed, out.Message)
		assert.Equal(t, apierror.ReasonServiceStatus, out.Reason)
		assert.Nil(t, out.Coordinates)
		assert.Nil(t, out.Reading)
		assert.Nil(t, out.Row)
		f.airQuality.AssertNotCalled(t, "AirPollution", mock.Anything, mock.Anything, mock.Anything)
		f.exporter.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
		assert.InDelta(t, 1, testutil.ToFloat64(
			f.metrics.ProviderErrors.WithLabelValues("geocoding", string(apierror.ReasonServiceStatus))), 0)
	})

	t.Run("environment failure keeps coordinates", func(t *testing.T) {
		f := newFixture(t)
		envErr := apierror.New(airquality.OpenWeatherProviderName, apierror.ReasonHTTPStatus,
			&apierror.HTTPStatusError{Code: http.StatusUnauthorized})
		f.geocoder.On("Geocode", mock.Anything, address, gKey).Return(&delhi, nil).Once()
		f.airQuality.On("AirPollution", mock.Anything, delhi, owmKey).Return(nil, envErr).Once()

		out := f.service.Run(ctx, service.Request{GeocodingKey: gKey, AirQualityKey: owmKey, Address: address})

		assert.Equal(t, service.StateError, out.State)
		assert.Equal(t, service.FailureEnvironment, out.Failure)
		assert.Equal(t, service.MsgEnvironmentFailed, out.Message)
		assert.Equal(t, apierror.ReasonHTTPStatus, out.Reason)
		require.NotNil(t, out.Coordinates)
		assert.Equal(t, delhi, *out.Coordinates)
		assert.Nil(t, out.Reading)
		assert.Equal(t, []service.State{
			service.StateAwaitingInput,
			service.StateGeocoding,
			service.StateFetchingEnvironment,
			service.StateError,
		}, out.Trace)
		f.exporter.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
	})

	t.Run("export failure", func(t *testing.T) {
		f := newFixture(t)
		f.geocoder.On("Geocode", mock.Anything, address, gKey).Return(&delhi, nil).Once()
		f.airQuality.On("AirPollution", mock.Anything, delhi, owmKey).Return(delhiReading(), nil).Once()
		f.exporter.On("Export", mock.Anything, outFile).Return(assert.AnError).Once()

		out := f.service.Run(ctx, service.Request{GeocodingKey: gKey, AirQualityKey: owmKey, Address: address})

		assert.Equal(t, service.StateError, out.State)
		assert.Equal(t, service.FailureExport, out.Failure)
		assert.Equal(t, service.MsgExportFailed, out.Message)
		assert.ErrorIs(t, out.Err, assert.AnError)
		assert.NotNil(t, out.Reading)
		assert.Empty(t, out.ExportPath)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ExportFailures), 0)
	})
}

func TestLookupService_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     service.Request
		message string
	}{
		{
			name:    "missing geocoding key",
			req:     service.Request{AirQualityKey: owmKey, Address: address},
			message: service.MsgMissingKeys,
		},
		{
			name:    "missing air quality key",
			req:     service.Request{GeocodingKey: gKey, Address: address},
			message: service.MsgMissingKeys,
		},
		{
			name:    "blank keys",
			req:     service.Request{GeocodingKey: "  ", AirQualityKey: "\t", Address: address},
			message: service.MsgMissingKeys,
		},
		{
			name:    "missing keys take precedence over missing address",
			req:     service.Request{},
			message: service.MsgMissingKeys,
		},
		{
			name:    "blank address",
			req:     service.Request{GeocodingKey: gKey, AirQualityKey: owmKey, Address: "   "},
			message: service.MsgMissingAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			out := f.service.Run(t.Context(), tt.req)

			assert.Equal(t, service.StateAwaitingInput, out.State)
			assert.Equal(t, []service.State{service.StateAwaitingInput}, out.Trace)
			assert.Equal(t, service.FailureValidation, out.Failure)
			assert.Equal(t, tt.message, out.Message)
			f.geocoder.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything, mock.Anything)
			f.airQuality.AssertNotCalled(t, "AirPollution", mock.Anything, mock.Anything, mock.Anything)
			f.exporter.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
		})
	}
}

func TestRequest_LogValueHidesKeys(t *testing.T) {
	req := service.Request{GeocodingKey: gKey, AirQualityKey: owmKey, Address: address}

	rendered := req.LogValue().String()

	assert.Contains(t, rendered, address)
	assert.NotContains(t, rendered, gKey)
	assert.NotContains(t, rendered, owmKey)
}

// fakeAPIs serves both upstream APIs and counts the calls each receives.
func fakeAPIs(t *testing.T, geoCalls, aqCalls *atomic.Int32) (*httptest.Server, *httptest.Server) {
	t.Helper()

	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geoCalls.Add(1)
		assert.Equal(t, gKey, r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":28.6315,"lng":77.2167}}}]}`))
	}))
	aq := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		aqCalls.Add(1)
		assert.Equal(t, owmKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "28.6315", r.URL.Query().Get("lat"))
		assert.Equal(t, "77.2167", r.URL.Query().Get("lon"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"list":[{"main":{"aqi":3},"components":{"co":220.1,"no2":15.3,` +
			`"o3":60.2,"so2":5.1,"pm2_5":35.0,"pm10":50.2}}]}`))
	}))
	t.Cleanup(geo.Close)
	t.Cleanup(aq.Close)

	return geo, aq
}

func newRealService(t *testing.T, geoURL, aqURL, dest string) *service.LookupService {
	t.Helper()

	return newRealServiceWithLogger(t, slog.New(slog.DiscardHandler), geoURL, aqURL, dest)
}

func newRealServiceWithLogger(t *testing.T, logger *slog.Logger, geoURL, aqURL, dest string) *service.LookupService {
	t.Helper()

	geocoder := geocoding.NewGoogleProvider(geocoding.NewClientFactory(geocoding.GoogleConfig{
		BaseURL: geoURL,
		Timeout: 5 * time.Second,
	}), logger)
	airQuality := airquality.NewOpenWeatherProvider(airquality.OpenWeatherConfig{
		BaseURL: aqURL,
		Timeout: 5 * time.Second,
	}, logger)

	return service.NewLookupService(
		logger, geocoder, airQuality, export.NewCSVExporter(),
		metrics.NewMetrics(prometheus.NewRegistry()), dest,
	)
}

func TestLookupService_EndToEnd(t *testing.T) {
	defer filet.CleanUp(t)
	dest := filepath.Join(filet.TmpDir(t, ""), export.DefaultFilename)

	var geoCalls, aqCalls atomic.Int32
	geo, aq := fakeAPIs(t, &geoCalls, &aqCalls)
	svc := newRealService(t, geo.URL, aq.URL, dest)

	t.Run("connaught place", func(t *testing.T) {
		out := svc.Run(t.Context(), service.Request{GeocodingKey: gKey, AirQualityKey: owmKey, Address: address})

		require.True(t, out.Done(), "run failed: %v", out.Err)
		assert.Equal(t, dest, out.ExportPath)

		expected := "Address,Latitude,Longitude,Air Quality Index,CO,NO2,O3,SO2,PM2_5,PM10\n" +
			"\"Connaught Place, Delhi\",28.6315,77.2167,3,220.1,15.3,60.2,5.1,35.0,50.2\n"
		assert.True(t, filet.FileSays(t, dest, []byte(expected)))
		assert.Equal(t, int32(1), geoCalls.Load())
		assert.Equal(t, int32(1), aqCalls.Load())
	})

	t.Run("missing key makes no network calls", func(t *testing.T) {
		geoCalls.Store(0)
		aqCalls.Store(0)

		out := svc.Run(t.Context(), service.Request{GeocodingKey: gKey, Address: address})

		assert.Equal(t, service.MsgMissingKeys, out.Message)
		assert.Equal(t, int32(0), geoCalls.Load())
		assert.Equal(t, int32(0), aqCalls.Load())
	})
}

func TestLookupService_KeysNeverLogged(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	var geoCalls, aqCalls atomic.Int32
	geo, aq := fakeAPIs(t, &geoCalls, &aqCalls)

	tests := []struct {
		name    string
		geoURL  string
		aqURL   string
		failure service.Failure
		reason  apierror.Reason
	}{
		{name: "geocoder answers 500", geoURL: failing.URL, aqURL: aq.URL,
			failure: service.FailureGeocoding, reason: apierror.ReasonHTTPStatus},
		{name: "geocoder unreachable", geoURL: closedURL, aqURL: aq.URL,
			failure: service.FailureGeocoding, reason: apierror.ReasonNetwork},
		{name: "air quality unreachable", geoURL: geo.URL, aqURL: closedURL,
			failure: service.FailureEnvironment, reason: apierror.ReasonNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer filet.CleanUp(t)
			dest := filepath.Join(filet.TmpDir(t, ""), export.DefaultFilename)

			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			svc := newRealServiceWithLogger(t, logger, tt.geoURL, tt.aqURL, dest)

			out := svc.Run(t.Context(), service.Request{GeocodingKey: gKey, AirQualityKey: owmKey, Address: address})

			assert.Equal(t, service.StateError, out.State)
			assert.Equal(t, tt.failure, out.Failure)
			assert.Equal(t, tt.reason, out.Reason)
			require.Error(t, out.Err)
			assert.NotContains(t, out.Err.Error(), gKey)
			assert.NotContains(t, out.Err.Error(), owmKey)
			assert.Contains(t, logs.String(), "Lookup failed")
			assert.NotContains(t, logs.String(), gKey)
			assert.NotContains(t, logs.String(), owmKey)
		})
	}
}
