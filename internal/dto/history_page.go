package dto

// HistoryPage is a paginated response payload for the measurement history.
type HistoryPage struct {
	Measurements []MeasurementInfo `json:"measurements"`
	ResultsDir   string            `json:"resultsDir"`
	Size         int64             `json:"size"`
	Length       int               `json:"length"`
	TotalPages   int               `json:"totalPages"`
	CurrentPage  int               `json:"currentPage"`
	Limit        int               `json:"pageSize"`
}
