package models

import "strconv"

// NotAvailable is rendered in place of a pollutant value the upstream service did not report.
const NotAvailable = "N/A"

// Pollutant identifies one of the air-quality components reported for a location.
type Pollutant string

// Pollutants reported by the air-quality service, in export order.
const (
	PollutantCO   Pollutant = "co"
	PollutantNO2  Pollutant = "no2"
	PollutantO3   Pollutant = "o3"
	PollutantSO2  Pollutant = "so2"
	PollutantPM25 Pollutant = "pm2_5"
	PollutantPM10 Pollutant = "pm10"
)

// Pollutants lists every tracked pollutant in the fixed export order.
var Pollutants = []Pollutant{
	PollutantCO,
	PollutantNO2,
	PollutantO3,
	PollutantSO2,
	PollutantPM25,
	PollutantPM10,
}

var pollutantColumns = map[Pollutant]string{
	PollutantCO:   "CO",
	PollutantNO2:  "NO2",
	PollutantO3:   "O3",
	PollutantSO2:  "SO2",
	PollutantPM25: "PM2_5",
	PollutantPM10: "PM10",
}

var pollutantLabels = map[Pollutant]string{
	PollutantCO:   "CO (Carbon Monoxide)",
	PollutantNO2:  "NO2 (Nitrogen Dioxide)",
	PollutantO3:   "O3 (Ozone)",
	PollutantSO2:  "SO2 (Sulfur Dioxide)",
	PollutantPM25: "PM2.5 (Fine Particulate Matter)",
	PollutantPM10: "PM10 (Coarse Particulate Matter)",
}

// Key returns the component key used by the air-quality API.
func (p Pollutant) Key() string { return string(p) }

// Column returns the header label of the pollutant in the exported file.
func (p Pollutant) Column() string { return pollutantColumns[p] }

// Label returns the human readable name of the pollutant.
func (p Pollutant) Label() string { return pollutantLabels[p] }

// Concentration is a pollutant value that may be absent from the upstream response.
// Raw keeps the number exactly as the service sent it so rendering never reformats it.
type Concentration struct {
	Value float64
	Raw   string
	Valid bool
}

// ParseConcentration builds a Concentration from the literal text of a JSON number.
// Empty or non-numeric input yields an invalid Concentration.
func ParseConcentration(raw string) Concentration {
	if raw == "" {
		return Concentration{}
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Concentration{}
	}

	return Concentration{Value: value, Raw: raw, Valid: true}
}

// String returns the literal value, or NotAvailable when the value is missing.
func (c Concentration) String() string {
	if !c.Valid {
		return NotAvailable
	}
	if c.Raw == "" {
		return formatFloat(c.Value)
	}

	return c.Raw
}

// Reading is the air-quality snapshot for one location.
type Reading struct {
	AQI        int                         // AQI is the categorical air quality index (1..5).
	Components map[Pollutant]Concentration // Components holds pollutant concentrations in μg/m³.
}

// Get returns the concentration of the pollutant, invalid when it was not reported.
func (r Reading) Get(p Pollutant) Concentration {
	if r.Components == nil {
		return Concentration{}
	}

	return r.Components[p]
}

// AQICategory returns the qualitative name of an OpenWeatherMap air quality index.
func AQICategory(aqi int) string {
	switch aqi {
	case 1:
		return "Good"
	case 2:
		return "Fair"
	case 3:
		return "Moderate"
	case 4:
		return "Poor"
	case 5:
		return "Very Poor"
	default:
		return "Unknown"
	}
}
