package entities

// GeocodeResult is the first candidate returned for a free-text place query
type GeocodeResult struct {
	Query       string  `json:"query"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}
