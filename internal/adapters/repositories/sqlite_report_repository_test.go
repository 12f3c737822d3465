package repositories

import (
	"context"
	"delivery-times-service/internal/domain"
	"delivery-times-service/internal/platform/db"
	"delivery-times-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SqliteReportRepository {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, InitSchema(conn))
	return NewSqliteReportRepository(conn)
}

func report(postcode, sector, date string, minutes int, dt domain.DeliveryType) domain.DeliveryReport {
	return domain.DeliveryReport{
		Postcode:             postcode,
		OutwardSector:        sector,
		DeliveryDate:         date,
		MinutesSinceMidnight: minutes,
		DeliveryType:         dt,
	}
}

func TestSqliteInsertAndFetchReports(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	note := "left with neighbour"
	first := report("M46 0TF", "M46 0", "2026-01-05", 600, domain.DeliveryLetters)
	first.Note = &note

	id1, err := repo.InsertReport(ctx, first)
	require.NoError(t, err)
	id2, err := repo.InsertReport(ctx, report("M46 0TG", "M46 0", "2026-01-06", 540, domain.DeliveryParcels))
	require.NoError(t, err)
	_, err = repo.InsertReport(ctx, report("M46 9AB", "M46 9", "2026-01-06", 700, domain.DeliveryBoth))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	got, err := repo.FetchReports(ctx, ports.ReportFilter{OutwardSector: "M46 0", SinceDate: "2026-01-01"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// newest delivery date first
	assert.Equal(t, "2026-01-06", got[0].DeliveryDate)
	assert.Equal(t, domain.DeliveryParcels, got[0].DeliveryType)
	assert.Nil(t, got[0].Note)
	assert.Equal(t, "2026-01-05", got[1].DeliveryDate)
	require.NotNil(t, got[1].Note)
	assert.Equal(t, note, *got[1].Note)
	assert.False(t, got[1].SubmittedAt.IsZero())

	byPostcode, err := repo.FetchReports(ctx, ports.ReportFilter{
		OutwardSector: "M46 0",
		Postcode:      "M46 0TF",
		SinceDate:     "2026-01-01",
	})
	require.NoError(t, err)
	require.Len(t, byPostcode, 1)
	assert.Equal(t, id1, byPostcode[0].ID)

	recent, err := repo.FetchReports(ctx, ports.ReportFilter{OutwardSector: "M46 0", SinceDate: "2026-01-06"})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestSqliteFetchOutwardReports(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, r := range []domain.DeliveryReport{
		report("M4 1AA", "M4 1", "2026-01-05", 600, domain.DeliveryLetters),
		report("M46 0TF", "M46 0", "2026-01-05", 610, domain.DeliveryLetters),
		report("M46 9AB", "M46 9", "2026-01-05", 620, domain.DeliveryLetters),
	} {
		_, err := repo.InsertReport(ctx, r)
		require.NoError(t, err)
	}

	got, err := repo.FetchOutwardReports(ctx, "M46", "2026-01-01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "M46 0", got[0].OutwardSector)
	assert.Equal(t, "M46 9", got[1].OutwardSector)

	got, err = repo.FetchOutwardReports(ctx, "M4", "2026-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "M4 1", got[0].OutwardSector)
}

func TestSqliteAggregateQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	empty, err := repo.FetchGlobalCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalReports)
	assert.Nil(t, empty.LastSubmissionAt)

	latest, err := repo.FetchLatestTimestamp(ctx, "M46 0")
	require.NoError(t, err)
	assert.Nil(t, latest)

	for _, r := range []domain.DeliveryReport{
		report("M46 0TF", "M46 0", "2026-01-05", 600, domain.DeliveryLetters),
		report("M46 0TF", "M46 0", "2026-01-06", 540, domain.DeliveryLetters),
		report("M46 0TG", "M46 0", "2026-01-06", 720, domain.DeliveryParcels),
		report("SW1A 1AA", "SW1A 1", "2025-12-01", 480, domain.DeliveryBoth),
	} {
		_, err := repo.InsertReport(ctx, r)
		require.NoError(t, err)
	}

	counts, err := repo.FetchGlobalCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts.TotalReports)
	assert.Equal(t, 3, counts.UniquePostcodes)
	assert.Equal(t, 2, counts.UniqueSectors)
	assert.Equal(t, 4, counts.Last24hReports)
	assert.Equal(t, 4, counts.Last7dReports)
	require.NotNil(t, counts.LastSubmissionAt)

	latest, err = repo.FetchLatestTimestamp(ctx, "M46 0")
	require.NoError(t, err)
	require.NotNil(t, latest)

	types, err := repo.FetchDeliveryTypeCounts(ctx)
	require.NoError(t, err)
	byType := map[domain.DeliveryType]int{}
	for _, tc := range types {
		byType[tc.Type] = tc.Count
	}
	assert.Equal(t, map[domain.DeliveryType]int{
		domain.DeliveryLetters: 2,
		domain.DeliveryParcels: 1,
		domain.DeliveryBoth:    1,
	}, byType)

	daily, err := repo.FetchDailyReportCounts(ctx, "2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, []domain.DailyReportCount{
		{Date: "2026-01-05", Count: 1},
		{Date: "2026-01-06", Count: 2},
	}, daily)

	minutes, err := repo.FetchMinutesSince(ctx, "2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, []int{540, 600, 720}, minutes)

	require.NoError(t, repo.Ping(ctx))
}

func TestSqliteRepositoryNilDB(t *testing.T) {
	repo := &SqliteReportRepository{}

	_, err := repo.InsertReport(context.Background(), domain.DeliveryReport{})
	assert.Error(t, err)
	assert.Error(t, repo.Ping(context.Background()))
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, InitSchema(conn))
	require.NoError(t, InitSchema(conn))
}

func TestOpenStorageSQLiteFile(t *testing.T) {
	path := t.TempDir() + "/nested/reports.db"

	st, err := OpenStorage(context.Background(), StorageOptions{SQLitePath: path, ConnectTimeout: time.Second})
	require.NoError(t, err)
	defer st.Close()

	assert.False(t, st.Postgres)
	_, ok := st.Reports.(*SqliteReportRepository)
	assert.True(t, ok)
	require.NoError(t, st.Reports.Ping(context.Background()))
}
