package models

import "strconv"

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Latitude  float64 // Latitude of the geographical point.
	Longitude float64 // Longitude of the geographical point.
}

// LatitudeString returns the latitude in its shortest exact decimal form.
func (c Coordinates) LatitudeString() string {
	return formatFloat(c.Latitude)
}

// LongitudeString returns the longitude in its shortest exact decimal form.
func (c Coordinates) LongitudeString() string {
	return formatFloat(c.Longitude)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
