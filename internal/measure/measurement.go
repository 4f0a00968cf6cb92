package measure

// Measurement is a tracked detection together with its estimated distance.
type Measurement struct {
	Detection  Detection `json:"detection"`
	DistanceCM float64   `json:"distance_cm"`
}

// Meters returns the distance in meters.
func (m Measurement) Meters() float64 {
	return ToMeters(m.DistanceCM)
}

// Formatted returns the distance as shown to users, e.g. "6.00m".
func (m Measurement) Formatted() string {
	return FormatMeters(m.DistanceCM)
}

// Measure estimates a distance for every tracked detection, preserving detection order.
func Measure(dets []Detection, c Calibration) []Measurement {
	var out []Measurement
	for _, d := range FilterTracked(dets, c) {
		out = append(out, Measurement{Detection: d, DistanceCM: c.Distance(d)})
	}
	return out
}

// FormatAll returns the formatted distance of every measurement.
func FormatAll(ms []Measurement) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Formatted())
	}
	return out
}
