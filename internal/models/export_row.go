package models

import "strconv"

// ExportRow is one exported lookup: address, coordinates, index and the six pollutants.
type ExportRow struct {
	Address     string
	Coordinates Coordinates
	AQI         int
	CO          Concentration
	NO2         Concentration
	O3          Concentration
	SO2         Concentration
	PM25        Concentration
	PM10        Concentration
}

// NewExportRow assembles an ExportRow from the results of one run.
func NewExportRow(address string, coords Coordinates, reading Reading) ExportRow {
	return ExportRow{
		Address:     address,
		Coordinates: coords,
		AQI:         reading.AQI,
		CO:          reading.Get(PollutantCO),
		NO2:         reading.Get(PollutantNO2),
		O3:          reading.Get(PollutantO3),
		SO2:         reading.Get(PollutantSO2),
		PM25:        reading.Get(PollutantPM25),
		PM10:        reading.Get(PollutantPM10),
	}
}

// Header returns the fixed header of the exported file.
func Header() []string {
	header := []string{"Address", "Latitude", "Longitude", "Air Quality Index"}
	for _, p := range Pollutants {
		header = append(header, p.Column())
	}

	return header
}

// Record returns the row fields in header order, missing pollutants rendered as NotAvailable.
func (r ExportRow) Record() []string {
	return []string{
		r.Address,
		r.Coordinates.LatitudeString(),
		r.Coordinates.LongitudeString(),
		strconv.Itoa(r.AQI),
		r.CO.String(),
		r.NO2.String(),
		r.O3.String(),
		r.SO2.String(),
		r.PM25.String(),
		r.PM10.String(),
	}
}
