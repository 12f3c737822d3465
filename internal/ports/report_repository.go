package ports

import (
	"context"
	"delivery-times-service/internal/domain"
	"time"
)

// Filters for FetchReports. Postcode is optional; empty matches the whole sector.
type ReportFilter struct {
	OutwardSector string
	Postcode      string
	SinceDate     string
}

// Whole-table counters used by the global dashboard.
type GlobalCounts struct {
	TotalReports     int
	UniquePostcodes  int
	UniqueSectors    int
	Last24hReports   int
	Last7dReports    int
	LastSubmissionAt *time.Time
}

// Port: a boundary for persisting and querying delivery reports.
// Dates are ISO YYYY-MM-DD strings compared as calendar dates.
type ReportRepository interface {
	// Append one report; id and submission time are assigned by storage.
	InsertReport(ctx context.Context, report domain.DeliveryReport) (int64, error)
	// Reports for a sector (optionally one postcode) with delivery date >= SinceDate,
	// newest delivery date first, then latest time first.
	FetchReports(ctx context.Context, filter ReportFilter) ([]domain.DeliveryReport, error)
	// Reports for every sector under an outward code, ordered by sector.
	FetchOutwardReports(ctx context.Context, outward string, sinceDate string) ([]domain.DeliveryReport, error)
	// Most recent submission time for the sector, nil when it has none.
	FetchLatestTimestamp(ctx context.Context, outwardSector string) (*time.Time, error)
	FetchGlobalCounts(ctx context.Context) (GlobalCounts, error)
	// Row counts grouped by delivery type; missing types are omitted.
	FetchDeliveryTypeCounts(ctx context.Context) ([]domain.DeliveryTypeCount, error)
	// Row counts grouped by delivery date, only dates with at least one row.
	FetchDailyReportCounts(ctx context.Context, sinceDate string) ([]domain.DailyReportCount, error)
	// Flat ascending list of minutes for reports delivered on or after sinceDate.
	FetchMinutesSince(ctx context.Context, sinceDate string) ([]int, error)
	Ping(ctx context.Context) error
}
