package dto

// LiveMessage is pushed to live viewers after every completed measurement.
type LiveMessage struct {
	Source    string   `json:"source"`
	Summary   string   `json:"summary"`
	Distances []string `json:"distances"`
	Image     string   `json:"image"`
}
