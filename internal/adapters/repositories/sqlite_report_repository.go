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

// SQLite stores submitted_at as UTC text in this layout.
const sqliteTimestampLayout = "2006-01-02 15:04:05"

// SQLite-backed implementation of the ReportRepository port.
// Dates are stored as ISO text so lexical comparison matches calendar order.
type SqliteReportRepository struct{ DB *sql.DB }

func NewSqliteReportRepository(db *sql.DB) *SqliteReportRepository {
	return &SqliteReportRepository{DB: db}
}

func (s *SqliteReportRepository) InsertReport(ctx context.Context, r domain.DeliveryReport) (_ int64, err error) {
	defer obs.Time(ctx, "reports.sqlite.InsertReport")(&err)

	if s.DB == nil {
		return 0, errors.New("sqlite report repository: DB is nil")
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
	VALUES (?, ?, ?, ?, ?, ?);
	`
	res, err := s.DB.ExecContext(ctx, query,
		r.Postcode, r.OutwardSector, r.DeliveryDate, r.MinutesSinceMidnight, string(r.DeliveryType), nullString(r.Note),
	)
	if err != nil {
		return 0, fmt.Errorf("insert report: exec: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert report: last insert id: %w", err)
	}

	return id, nil
}

func (s *SqliteReportRepository) FetchReports(ctx context.Context, f ports.ReportFilter) (_ []domain.DeliveryReport, err error) {
	defer obs.Time(ctx, "reports.sqlite.FetchReports")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite report repository: DB is nil")
	}

	args := []any{f.OutwardSector, f.SinceDate}
	where := "outward_sector = ? AND delivery_date >= ?"
	if f.Postcode != "" {
		where += " AND postcode = ?"
		args = append(args, f.Postcode)
	}

	// Only the fixed WHERE structure is interpolated; values stay parameterized.
	q := fmt.Sprintf(`
	SELECT
		id,
		submitted_at,
		postcode,
		outward_sector,
		delivery_date,
		minutes_since_midnight,
		delivery_type,
		note
	FROM delivery_reports
	WHERE %s
	ORDER BY delivery_date DESC, minutes_since_midnight DESC;
	`, where)

	return s.queryReports(ctx, "fetch reports", q, args...)
}

func (s *SqliteReportRepository) FetchOutwardReports(
	ctx context.Context,
	outward string,
	sinceDate string,
) (_ []domain.DeliveryReport, err error) {
	defer obs.Time(ctx, "reports.sqlite.FetchOutwardReports")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite report repository: DB is nil")
	}

	// Outward codes are alphanumeric, so the LIKE pattern has no wildcards of its own.
	q := `
	SELECT
		id,
		submitted_at,
		postcode,
		outward_sector,
		delivery_date,
		minutes_since_midnight,
		delivery_type,
		note
	FROM delivery_reports
	WHERE outward_sector LIKE ? AND delivery_date >= ?
	ORDER BY outward_sector ASC, delivery_date DESC, minutes_since_midnight DESC;
	`

	return s.queryReports(ctx, "fetch outward reports", q, outward+" %", sinceDate)
}

func (s *SqliteReportRepository) queryReports(ctx context.Context, op, q string, args ...any) ([]domain.DeliveryReport, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query delivery_reports table: %w", op, err)
	}
	defer rows.Close()

	reports := make([]domain.DeliveryReport, 0, 32)
	for rows.Next() {
		var (
			r            domain.DeliveryReport
			submittedAt  string
			deliveryType string
			note         sql.NullString
		)
		if err := rows.Scan(
			&r.ID,
			&submittedAt,
			&r.Postcode,
			&r.OutwardSector,
			&r.DeliveryDate,
			&r.MinutesSinceMidnight,
			&deliveryType,
			&note,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}

		r.SubmittedAt, err = parseSqliteTimestamp(submittedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: report id=%d: %w", op, r.ID, err)
		}
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

func (s *SqliteReportRepository) FetchLatestTimestamp(ctx context.Context, outwardSector string) (_ *time.Time, err error) {
	defer obs.Time(ctx, "reports.sqlite.FetchLatestTimestamp")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite report repository: DB is nil")
	}

	var latest sql.NullString
	err = s.DB.QueryRowContext(ctx, `
	SELECT MAX(submitted_at)
	FROM delivery_reports
	WHERE outward_sector = ?;
	`, outwardSector).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("fetch latest timestamp: %w", err)
	}

	return parseNullTimestamp(latest)
}

func (s *SqliteReportRepository) FetchGlobalCounts(ctx context.Context) (_ ports.GlobalCounts, err error) {
	defer obs.Time(ctx, "reports.sqlite.FetchGlobalCounts")(&err)

	if s.DB == nil {
		return ports.GlobalCounts{}, errors.New("sqlite report repository: DB is nil")
	}

	q := `
	SELECT
		COUNT(*),
		COUNT(DISTINCT postcode),
		COUNT(DISTINCT outward_sector),
		COALESCE(SUM(CASE WHEN submitted_at >= datetime('now', '-1 day') THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN submitted_at >= datetime('now', '-7 day') THEN 1 ELSE 0 END), 0),
		MAX(submitted_at)
	FROM delivery_reports;
	`

	var (
		out    ports.GlobalCounts
		latest sql.NullString
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

	out.LastSubmissionAt, err = parseNullTimestamp(latest)
	if err != nil {
		return ports.GlobalCounts{}, fmt.Errorf("fetch global counts: %w", err)
	}

	return out, nil
}

func (s *SqliteReportRepository) FetchDeliveryTypeCounts(ctx context.Context) (_ []domain.DeliveryTypeCount, err error) {
	defer obs.Time(ctx, "reports.sqlite.FetchDeliveryTypeCounts")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite report repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT delivery_type, COUNT(*)
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

func (s *SqliteReportRepository) FetchDailyReportCounts(ctx context.Context, sinceDate string) (_ []domain.DailyReportCount, err error) {
	defer obs.Time(ctx, "reports.sqlite.FetchDailyReportCounts")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite report repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT delivery_date, COUNT(*)
	FROM delivery_reports
	WHERE delivery_date >= ?
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

func (s *SqliteReportRepository) FetchMinutesSince(ctx context.Context, sinceDate string) (_ []int, err error) {
	defer obs.Time(ctx, "reports.sqlite.FetchMinutesSince")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite report repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT minutes_since_midnight
	FROM delivery_reports
	WHERE delivery_date >= ?
	ORDER BY minutes_since_midnight ASC;
	`, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("fetch minutes since: query: %w", err)
	}
	defer rows.Close()

	return scanMinutes(rows)
}

func (s *SqliteReportRepository) Ping(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("sqlite report repository: DB is nil")
	}
	return s.DB.PingContext(ctx)
}

func scanMinutes(rows *sql.Rows) ([]int, error) {
	out := make([]int, 0, 64)
	for rows.Next() {
		var m int
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("fetch minutes since: scan row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch minutes since: row iteration: %w", err)
	}
	return out, nil
}

func parseSqliteTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(sqliteTimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse submitted_at %q: %w", s, err)
	}
	return t, nil
}

func parseNullTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseSqliteTimestamp(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
