// Package presenter turns lookup results into the lines shown to the user.
package presenter

import (
	"fmt"
	"strconv"

	"github.com/UnknownOlympus/aether/internal/models"
)

// Unit is the concentration unit reported by the air-quality service.
const Unit = "μg/m³"

// Line is one labelled value of the results area.
type Line struct {
	Label string
	Value string
}

// View is everything the results area renders for a successful lookup.
type View struct {
	Address       string
	GeocodeStatus string
	FetchStatus   string
	AQI           string
	AQICategory   string
	Pollutants    []Line
}

// Present renders coordinates and reading for display.
func Present(address string, coords models.Coordinates, reading models.Reading) View {
	view := View{
		Address:       address,
		GeocodeStatus: GeocodeStatus(coords),
		FetchStatus:   "Environmental data fetched successfully.",
		AQI:           strconv.Itoa(reading.AQI),
		AQICategory:   models.AQICategory(reading.AQI),
		Pollutants:    make([]Line, 0, len(models.Pollutants)),
	}

	for _, p := range models.Pollutants {
		view.Pollutants = append(view.Pollutants, Line{Label: p.Label(), Value: formatConcentration(reading.Get(p))})
	}

	return view
}

// GeocodeStatus is the message shown once the address has been resolved.
func GeocodeStatus(coords models.Coordinates) string {
	return fmt.Sprintf("Geocoding successful! Latitude: %s, Longitude: %s",
		coords.LatitudeString(), coords.LongitudeString())
}

// Lines returns the view as "label: value" strings, AQI first.
func (v View) Lines() []string {
	lines := []string{fmt.Sprintf("Air Quality Index (AQI): %s (%s)", v.AQI, v.AQICategory)}
	for _, l := range v.Pollutants {
		lines = append(lines, l.Label+": "+l.Value)
	}

	return lines
}

func formatConcentration(c models.Concentration) string {
	if !c.Valid {
		return models.NotAvailable
	}

	return c.String() + " " + Unit
}
