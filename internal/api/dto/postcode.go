package dto

import "delivery-times-service/internal/domain"

type NearbySectorsResponse struct {
	Outward string                   `json:"outward"`
	Sectors []domain.AggregatedStats `json:"sectors"`
}

// PostcodeInputResponse backs the live postcode field: what to show while
// typing and whether the value is already a complete postcode.
type PostcodeInputResponse struct {
	Formatted string `json:"formatted"`
	Display   string `json:"display"`
	Valid     bool   `json:"valid"`
}
