package config

import (
	"errors"
	"strconv"
	"time"

	"github.com/UnknownOlympus/aether/internal/airquality"
	"github.com/UnknownOlympus/aether/internal/export"
	"github.com/UnknownOlympus/aether/internal/geocoding"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the settings of the service. API keys are not part of it:
// they are entered per lookup and never stored.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port the web interface listens on.
// - OutputFile: The path the export file is written to.
// - GeocodingBaseURL: The base URL of the geocoding API.
// - AirQualityURL: The endpoint of the air pollution API.
// - RateLimit: Requests per second allowed against each upstream API, zero disables it.
// - RequestTimeout: The timeout of a single upstream request.
type Config struct {
	Env              string        // Env is the current environment: local, development, production.
	Port             int           // Port is the web interface port.
	OutputFile       string        // OutputFile is where the export is written.
	GeocodingBaseURL string        // GeocodingBaseURL points the geocoding client at its API.
	AirQualityURL    string        // AirQualityURL is the air pollution endpoint.
	RateLimit        int           // RateLimit is requests per second per upstream API.
	RequestTimeout   time.Duration // RequestTimeout bounds a single upstream request.
}

// MustLoad reads .env, an optional aether.yaml and AETHER_* environment variables.
// It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("aether")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("AETHER")
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("port", "8080")
	v.SetDefault("output_file", export.DefaultFilename)
	v.SetDefault("geocoding_base_url", geocoding.GoogleBaseURL)
	v.SetDefault("airquality_url", airquality.OpenWeatherURL)
	v.SetDefault("rate_limit", "0")
	v.SetDefault("request_timeout", "10s")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("failed to read configuration file")
		}
	}

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil || port <= 0 {
		panic("failed to parse port for web server from configuration")
	}

	rateLimit, err := strconv.Atoi(v.GetString("rate_limit"))
	if err != nil || rateLimit < 0 {
		panic("failed to parse rate limit from configuration, must be a non-negative integer")
	}

	timeout, err := time.ParseDuration(v.GetString("request_timeout"))
	if err != nil || timeout <= 0 {
		panic("failed to parse request timeout from configuration")
	}

	outputFile := v.GetString("output_file")
	if outputFile == "" {
		panic("output file must not be empty")
	}

	return &Config{
		Env:              v.GetString("env"),
		Port:             port,
		OutputFile:       outputFile,
		GeocodingBaseURL: v.GetString("geocoding_base_url"),
		AirQualityURL:    v.GetString("airquality_url"),
		RateLimit:        rateLimit,
		RequestTimeout:   timeout,
	}
}
