package dto

import (
	"encoding/json"
	"time"
)

// MeasurementInfo is one row of the history listing.
type MeasurementInfo struct {
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	TimeOfDay time.Time `json:"timeOfDay"`
	Source    string    `json:"source"`
	People    int       `json:"people"`
	Distances []string  `json:"distances"`
}

// MarshalJSON customizes JSON output for MeasurementInfo to format date and time-of-day.
func (p MeasurementInfo) MarshalJSON() ([]byte, error) {
	type Alias MeasurementInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      p.Date.Format("02-01-2006"),
		TimeOfDay: p.TimeOfDay.Format("15:04"),
		Alias:     (Alias)(p),
	})
}
