package models

// Classification labels.
const (
	LabelInfected   = "Infected"
	LabelUninfected = "Uninfected"
)

// Prediction is the outcome of one inference request.
type Prediction struct {
	Label    string  `json:"result"`
	Score    float64 `json:"score"`
	Filename string  `json:"filename,omitempty"` // sanitized upload name
}
