package repositories

import (
	"context"
	"database/sql"
	"delivery-times-service/internal/domain"
	"delivery-times-service/internal/platform/obs"
	"delivery-times-service/internal/ports"
	"errors"
	"fmt"
	"time"
)

// Postgres-backed implementation of the ReportRepository port.
type SQLReportRepository struct{ DB *sql.DB }

func NewSQLReportRepository(db *sql.DB) *SQLReportRepository {
	return &SQLReportRepository{DB: db}
}

func (s *SQLReportRepository) InsertReport(ctx context.Context, r domain.DeliveryReport) (_ int64, err error) {
	defer obs.Time(ctx, "reports.sql.InsertReport")(&err)

	if s.DB == nil {
		return 0, errors.New("sql report repository: DB is nil")
	}

	query := `
	INSERT INTO delivery_reports (
		postcode,
		outward_sector,
		delivery_date,
		minutes_since_midnight,
		delivery_type,
		note
	)
	VALUES ($1, $2, $3::date, $4, $5, $6)
	RETURNING id;
	`

	var id int64
	if err := s.DB.QueryRowContext(ctx, query,
		r.Postcode, r.OutwardSector, r.DeliveryDate, r.MinutesSinceMidnight, string(r.DeliveryType), nullString(r.Note),
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}

	return id, nil
}

func (s *SQLReportRepository) FetchReports(ctx context.Context, f ports.ReportFilter) (_ []domain.DeliveryReport, err error) {
	defer obs.Time(ctx, "reports.sql.FetchReports")(&err)

	if s.DB == nil {
		return nil, errors.New("sql report repository: DB is nil")
	}

	args := []any{f.OutwardSector, f.SinceDate}
	where := "outward_sector = $1 AND delivery_date >= $2::date"
	if f.Postcode != "" {
		where += " AND postcode = $3"
		args = append(args, f.Postcode)
	}

	q := fmt.Sprintf(`
	SELECT
		id,
		submitted_at,
		postcode,
		outward_sector,
		delivery_date::text,
		minutes_since_midnight,
		delivery_type,
		note
	FROM delivery_reports
	WHERE %s
	ORDER BY delivery_date DESC, minutes_since_midnight DESC;
	`, where)

	return s.queryReports(ctx, "fetch reports", q, args...)
}

func (s *SQLReportRepository) FetchOutwardReports(
	ctx context.Context,
	outward string,
	sinceDate string,
) (_ []domain.DeliveryReport, err error) {
	defer obs.Time(ctx, "reports.sql.FetchOutwardReports")(&err)

	if s.DB == nil {
		return nil, errors.New("sql report repository: DB is nil")
	}

	q := `
	SELECT
		id,
		submitted_at,
		postcode,
		outward_sector,
		delivery_date::text,
		minutes_since_midnight,
		delivery_type,
		note
	FROM delivery_reports
	WHERE outward_sector LIKE $1 AND delivery_date >= $2::date
	ORDER BY outward_sector ASC, delivery_date DESC, minutes_since_midnight DESC;
	`

	return s.queryReports(ctx, "fetch outward reports", q, outward+" %", sinceDate)
}

func (s *SQLReportRepository) queryReports(ctx context.Context, op, q string, args ...any) ([]domain.DeliveryReport, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query delivery_reports table: %w", op, err)
	}
	defer rows.Close()

	reports := make([]domain.DeliveryReport, 0, 32)
	for rows.Next() {
		var (
			r            domain.DeliveryReport
			deliveryType string
			note         sql.NullString
		)
		if err := rows.Scan(
			&r.ID,
			&r.SubmittedAt,
			&r.Postcode,
			&r.OutwardSector,
			&r.DeliveryDate,
			&r.MinutesSinceMidnight,
			&deliveryType,
			&note,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}

		r.SubmittedAt = r.SubmittedAt.UTC()
		r.DeliveryType = domain.DeliveryType(deliveryType)
		if note.Valid {
			r.Note = &note.String
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: row iteration: %w", op, err)
	}

	return reports, nil
}

func (s *SQLReportRepository) FetchLatestTimestamp(ctx context.Context, outwardSector string) (_ *time.Time, err error) {
	defer obs.Time(ctx, "reports.sql.FetchLatestTimestamp")(&err)

	if s.DB == nil {
		return nil, errors.New("sql report repository: DB is nil")
	}

	var latest sql.NullTime
	err = s.DB.QueryRowContext(ctx, `
	SELECT MAX(submitted_at)
	FROM delivery_reports
	WHERE outward_sector = $1;
	`, outwardSector).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("fetch latest timestamp: %w", err)
	}

	return nullTimePtr(latest), nil
}

func (s *SQLReportRepository) FetchGlobalCounts(ctx context.Context) (_ ports.GlobalCounts, err error) {
	defer obs.Time(ctx, "reports.sql.FetchGlobalCounts")(&err)

	if s.DB == nil {
		return ports.GlobalCounts{}, errors.New("sql report repository: DB is nil")
	}

	q := `
	SELECT
		COUNT(*)::int,
		COUNT(DISTINCT postcode)::int,
		COUNT(DISTINCT outward_sector)::int,
		(COUNT(*) FILTER (WHERE submitted_at >= NOW() - INTERVAL '1 day'))::int,
		(COUNT(*) FILTER (WHERE submitted_at >= NOW() - INTERVAL '7 days'))::int,
		MAX(submitted_at)
	FROM delivery_reports;
	`

	var (
		out    ports.GlobalCounts
		latest sql.NullTime
	)
	if err := s.DB.QueryRowContext(ctx, q).Scan(
		&out.TotalReports,
		&out.UniquePostcodes,
		&out.UniqueSectors,
		&out.Last24hReports,
		&out.Last7dReports,
		&latest,
	); err != nil {
		return ports.GlobalCounts{}, fmt.Errorf("fetch global counts: %w", err)
	}
	out.LastSubmissionAt = nullTimePtr(latest)

	return out, nil
}

func (s *SQLReportRepository) FetchDeliveryTypeCounts(ctx context.Context) (_ []domain.DeliveryTypeCount, err error) {
	defer obs.Time(ctx, "reports.sql.FetchDeliveryTypeCounts")(&err)

	if s.DB == nil {
		return nil, errors.New("sql report repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT delivery_type, COUNT(*)::int
	FROM delivery_reports
	GROUP BY delivery_type;
	`)
	if err != nil {
		return nil, fmt.Errorf("fetch delivery type counts: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DeliveryTypeCount, 0, len(domain.DeliveryTypes))
	for rows.Next() {
		var (
			t     string
			count int
		)
		if err := rows.Scan(&t, &count); err != nil {
			return nil, fmt.Errorf("fetch delivery type counts: scan row: %w", err)
		}
		out = append(out, domain.DeliveryTypeCount{Type: domain.DeliveryType(t), Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch delivery type counts: row iteration: %w", err)
	}

	return out, nil
}

func (s *SQLReportRepository) FetchDailyReportCounts(ctx context.Context, sinceDate string) (_ []domain.DailyReportCount, err error) {
	defer obs.Time(ctx, "reports.sql.FetchDailyReportCounts")(&err)

	if s.DB == nil {
		return nil, errors.New("sql report repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT delivery_date::text, COUNT(*)::int
	FROM delivery_reports
	WHERE delivery_date >= $1::date
	GROUP BY delivery_date
	ORDER BY delivery_date ASC;
	`, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("fetch daily report counts: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DailyReportCount, 0, 14)
	for rows.Next() {
		var d domain.DailyReportCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("fetch daily report counts: scan row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch daily report counts: row iteration: %w", err)
	}

	return out, nil
}

func (s *SQLReportRepository) FetchMinutesSince(ctx context.Context, sinceDate string) (_ []int, err error) {
	defer obs.Time(ctx, "reports.sql.FetchMinutesSince")(&err)

	if s.DB == nil {
		return nil, errors.New("sql report repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT minutes_since_midnight
	FROM delivery_reports
	WHERE delivery_date >= $1::date
	ORDER BY minutes_since_midnight ASC;
	`, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("fetch minutes since: query: %w", err)
	}
	defer rows.Close()

	return scanMinutes(rows)
}

func (s *SQLReportRepository) Ping(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("sql report repository: DB is nil")
	}
	return s.DB.PingContext(ctx)
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
