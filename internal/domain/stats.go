package domain

import "time"

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// One 15-minute histogram bucket, [BinStart, BinEnd) in minutes since midnight.
type HistogramBin struct {
	BinStart int `json:"binStart"`
	BinEnd   int `json:"binEnd"`
	Count    int `json:"count"`
}

// Read-time aggregate over the reports for one postcode or sector.
// Min, Max and Median are nil exactly when Count is zero.
type AggregatedStats struct {
	Label         string         `json:"label"`
	Count         int            `json:"count"`
	MinMinutes    *int           `json:"minMinutes"`
	MaxMinutes    *int           `json:"maxMinutes"`
	MedianMinutes *int           `json:"medianMinutes"`
	Histogram     []HistogramBin `json:"histogram"`
	Confidence    Confidence     `json:"confidence"`
}

type PostcodeSummary struct {
	DisplayPostcode string           `json:"displayPostcode"`
	OutwardSector   *AggregatedStats `json:"outwardSector"`
	FullPostcode    *AggregatedStats `json:"fullPostcode"`
	LastUpdated     *time.Time       `json:"lastUpdated"`
}

type GlobalTotals struct {
	TotalReports    int `json:"totalReports"`
	UniquePostcodes int `json:"uniquePostcodes"`
	UniqueSectors   int `json:"uniqueSectors"`
	Last24hReports  int `json:"last24hReports"`
	Last7dReports   int `json:"last7dReports"`
}

type DailyReportCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DeliveryTypeCount struct {
	Type  DeliveryType `json:"type"`
	Count int          `json:"count"`
}

// Dashboard snapshot across every report.
type GlobalStats struct {
	Totals                  GlobalTotals        `json:"totals"`
	LastSubmissionAt        *time.Time          `json:"lastSubmissionAt"`
	MedianMinutesLast30Days *int                `json:"medianMinutesLast30Days"`
	DailyReports            []DailyReportCount  `json:"dailyReports"`
	DeliveryTypeBreakdown   []DeliveryTypeCount `json:"deliveryTypeBreakdown"`
	RollingWindowStart      string              `json:"rollingWindowStart"`
}
