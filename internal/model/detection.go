package model

// Detection represents a detected object in a stored measurement.
// DistanceMeters is zero for labels other than the tracked class.
type Detection struct {
	ID             int64   `json:"id"`
	MeasurementID  int64   `json:"measurement_id"`
	Label          string  `json:"label"`
	X1             int     `json:"x1"`
	Y1             int     `json:"y1"`
	X2             int     `json:"x2"`
	Y2             int     `json:"y2"`
	Confidence     float64 `json:"confidence"`
	DistanceMeters float64 `json:"distance_m"`
}
