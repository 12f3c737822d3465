package domain

import (
	"strings"
	"time"
)

type DeliveryType string

const (
	DeliveryLetters DeliveryType = "letters"
	DeliveryParcels DeliveryType = "parcels"
	DeliveryBoth    DeliveryType = "both"
)

// DeliveryTypes lists every known delivery type in breakdown order.
var DeliveryTypes = []DeliveryType{DeliveryLetters, DeliveryParcels, DeliveryBoth}

// ParseDeliveryType maps raw input onto a known type, case-insensitively.
func ParseDeliveryType(raw string) (DeliveryType, bool) {
	t := DeliveryType(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range DeliveryTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Represents a single crowdsourced delivery observation.
// A DeliveryReport is immutable once stored; ID and SubmittedAt
// are assigned by storage at insert time.
type DeliveryReport struct {
	ID                   int64
	SubmittedAt          time.Time
	Postcode             string
	OutwardSector        string
	DeliveryDate         string
	MinutesSinceMidnight int
	DeliveryType         DeliveryType
	Note                 *string
}

// Raw, unvalidated report as received from a client.
type ReportSubmission struct {
	Postcode     string
	DeliveryDate string
	DeliveryTime string
	DeliveryType string
	Note         *string
}
