package repositories

import (
	"context"
	"delivery-times-service/internal/domain"
	"delivery-times-service/internal/ports"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportColumns = []string{
	"id", "submitted_at", "postcode", "outward_sector",
	"delivery_date", "minutes_since_midnight", "delivery_type", "note",
}

func newSQLRepo(t *testing.T) (*SQLReportRepository, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = conn.Close()
	})

	return NewSQLReportRepository(conn), mock
}

func TestSQLInsertReport(t *testing.T) {
	repo, mock := newSQLRepo(t)

	note := "left with neighbour"
	r := report("M46 0TF", "M46 0", "2026-03-03", 600, domain.DeliveryLetters)
	r.Note = &note

	mock.ExpectQuery(regexp.QuoteMeta("VALUES ($1, $2, $3::date, $4, $5, $6)")).
		WithArgs("M46 0TF", "M46 0", "2026-03-03", int64(600), "letters", note).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.InsertReport(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestSQLInsertReportWithoutNote(t *testing.T) {
	repo, mock := newSQLRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING id")).
		WithArgs("M46 0TF", "M46 0", "2026-03-03", int64(540), "parcels", nil).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.InsertReport(context.Background(),
		report("M46 0TF", "M46 0", "2026-03-03", 540, domain.DeliveryParcels))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert report")
}

func TestSQLFetchReports(t *testing.T) {
	repo, mock := newSQLRepo(t)

	submitted := time.Date(2026, 3, 3, 9, 15, 0, 0, time.FixedZone("BST", 3600))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE outward_sector = $1 AND delivery_date >= $2::date AND postcode = $3")).
		WithArgs("M46 0", "2026-02-02", "M46 0TF").
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow(int64(2), submitted, "M46 0TF", "M46 0", "2026-03-03", int64(600), "both", "gate code").
			AddRow(int64(1), submitted, "M46 0TF", "M46 0", "2026-03-02", int64(540), "letters", nil))

	got, err := repo.FetchReports(context.Background(), ports.ReportFilter{
		OutwardSector: "M46 0",
		Postcode:      "M46 0TF",
		SinceDate:     "2026-02-02",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.DeliveryBoth, got[0].DeliveryType)
	require.NotNil(t, got[0].Note)
	assert.Equal(t, "gate code", *got[0].Note)
	assert.Equal(t, time.UTC, got[0].SubmittedAt.Location())
	assert.True(t, submitted.Equal(got[0].SubmittedAt))
	assert.Nil(t, got[1].Note)
	assert.Equal(t, 540, got[1].MinutesSinceMidnight)
}

func TestSQLFetchReportsSectorOnly(t *testing.T) {
	repo, mock := newSQLRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE outward_sector = $1 AND delivery_date >= $2::date\n")).
		WithArgs("M46 0", "2026-02-02").
		WillReturnRows(sqlmock.NewRows(reportColumns))

	got, err := repo.FetchReports(context.Background(), ports.ReportFilter{OutwardSector: "M46 0", SinceDate: "2026-02-02"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLFetchOutwardReports(t *testing.T) {
	repo, mock := newSQLRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE outward_sector LIKE $1 AND delivery_date >= $2::date")).
		WithArgs("M46 %", "2026-02-02").
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow(int64(1), time.Now(), "M46 0TF", "M46 0", "2026-03-03", int64(600), "letters", nil))

	got, err := repo.FetchOutwardReports(context.Background(), "M46", "2026-02-02")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "M46 0", got[0].OutwardSector)
}

func TestSQLFetchLatestTimestamp(t *testing.T) {
	repo, mock := newSQLRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE outward_sector = $1;")).
		WithArgs("M46 0").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	latest, err := repo.FetchLatestTimestamp(context.Background(), "M46 0")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSQLFetchGlobalCounts(t *testing.T) {
	repo, mock := newSQLRepo(t)

	last := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("(COUNT(*) FILTER (WHERE submitted_at >= NOW() - INTERVAL '1 day'))::int")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "postcodes", "sectors", "d1", "d7", "last"}).
			AddRow(int64(12), int64(5), int64(3), int64(2), int64(9), last))

	counts, err := repo.FetchGlobalCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ports.GlobalCounts{
		TotalReports:     12,
		UniquePostcodes:  5,
		UniqueSectors:    3,
		Last24hReports:   2,
		Last7dReports:    9,
		LastSubmissionAt: &last,
	}, counts)
}

func TestSQLDashboardAggregates(t *testing.T) {
	repo, mock := newSQLRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY delivery_type;")).
		WillReturnRows(sqlmock.NewRows([]string{"delivery_type", "count"}).
			AddRow("letters", int64(4)).
			AddRow("parcels", int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE delivery_date >= $1::date\n\tGROUP BY delivery_date")).
		WithArgs("2026-02-19").
		WillReturnRows(sqlmock.NewRows([]string{"delivery_date", "count"}).
			AddRow("2026-03-03", int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT minutes_since_midnight")).
		WithArgs("2026-02-02").
		WillReturnRows(sqlmock.NewRows([]string{"minutes_since_midnight"}).
			AddRow(int64(480)).
			AddRow(int64(615)))

	types, err := repo.FetchDeliveryTypeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.DeliveryTypeCount{
		{Type: domain.DeliveryLetters, Count: 4},
		{Type: domain.DeliveryParcels, Count: 1},
	}, types)

	daily, err := repo.FetchDailyReportCounts(ctx, "2026-02-19")
	require.NoError(t, err)
	assert.Equal(t, []domain.DailyReportCount{{Date: "2026-03-03", Count: 3}}, daily)

	minutes, err := repo.FetchMinutesSince(ctx, "2026-02-02")
	require.NoError(t, err)
	assert.Equal(t, []int{480, 615}, minutes)
}

func TestSQLRepositoryNilDB(t *testing.T) {
	repo := &SQLReportRepository{}

	_, err := repo.FetchGlobalCounts(context.Background())
	assert.Error(t, err)
	assert.Error(t, repo.Ping(context.Background()))
}
