package services

import (
	"context"
	"delivery-times-service/internal/domain"
	"delivery-times-service/internal/platform/obs"
	"delivery-times-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const (
	GlobalStatsTag = "global-stats"

	// MaxGlobalStatsTTL bounds how stale the dashboard snapshot may get.
	MaxGlobalStatsTTL = 5 * time.Minute

	// Invalidation is best-effort and must not hold up a submission.
	defaultInvalidateTimeout = 250 * time.Millisecond

	rollingWindowDays = 30
	dailySeriesDays   = 14
	// Street-level stats are withheld until a postcode has this many reports.
	minFullPostcodeReports = 7
)

// AggregationService validates submissions and assembles read-time
// summaries over the stored reports.
type AggregationService struct {
	repo     ports.ReportRepository
	cache    ports.StatsCache
	clock    clockwork.Clock
	log      *slog.Logger
	metrics  *obs.Metrics
	statsTTL time.Duration

	invalidateTimeout time.Duration
}

// NewAggregationService wires the service. A statsTTL outside (0, 5m] is
// clamped to 5m.
func NewAggregationService(
	repo ports.ReportRepository,
	cache ports.StatsCache,
	clock clockwork.Clock,
	log *slog.Logger,
	metrics *obs.Metrics,
	statsTTL time.Duration,
) *AggregationService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	if statsTTL <= 0 || statsTTL > MaxGlobalStatsTTL {
		statsTTL = MaxGlobalStatsTTL
	}
	return &AggregationService{
		repo:     repo,
		cache:    cache,
		clock:    clock,
		log:      log,
		metrics:  metrics,
		statsTTL: statsTTL,

		invalidateTimeout: defaultInvalidateTimeout,
	}
}

// SubmitReport validates and stores one report and returns the canonical
// postcode. Validation failures are returned as *domain.ValidationError.
func (s *AggregationService) SubmitReport(ctx context.Context, sub domain.ReportSubmission) (string, error) {
	report, err := domain.ValidateSubmission(sub, s.clock.Now())
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) && s.metrics != nil {
			s.metrics.ValidationFailures.WithLabelValues(string(ve.Code)).Inc()
		}
		return "", err
	}

	if _, err := s.repo.InsertReport(ctx, report); err != nil {
		return "", fmt.Errorf("submit report: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ReportsSubmitted.Inc()
	}

	s.invalidateGlobalStats(ctx)

	return report.Postcode, nil
}

// invalidateGlobalStats drops the cached snapshot within a short deadline.
// Errors are logged and swallowed.
func (s *AggregationService) invalidateGlobalStats(ctx context.Context) {
	if s.cache == nil {
		return
	}

	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.invalidateTimeout)
	defer cancel()

	if err := s.cache.Invalidate(ictx, GlobalStatsTag); err != nil {
		s.log.WarnContext(ctx, "invalidate global stats failed",
			"req_id", obs.RequestID(ctx), "err", err)
	}
}

// GetPostcodeSummary returns nil when the postcode does not parse or has no
// reports in the rolling window.
func (s *AggregationService) GetPostcodeSummary(ctx context.Context, raw string) (*domain.PostcodeSummary, error) {
	parts, ok := domain.ParsePostcode(raw)
	if !ok {
		return nil, nil
	}

	since := domain.UKDaysAgo(s.clock.Now(), rollingWindowDays)

	var (
		sectorReports   []domain.DeliveryReport
		postcodeReports []domain.DeliveryReport
		lastUpdated     *time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sectorReports, err = s.repo.FetchReports(gctx, ports.ReportFilter{
			OutwardSector: parts.OutwardSector,
			SinceDate:     since,
		})
		return err
	})
	g.Go(func() error {
		var err error
		postcodeReports, err = s.repo.FetchReports(gctx, ports.ReportFilter{
			OutwardSector: parts.OutwardSector,
			Postcode:      parts.Normalised,
			SinceDate:     since,
		})
		return err
	})
	g.Go(func() error {
		var err error
		lastUpdated, err = s.repo.FetchLatestTimestamp(gctx, parts.OutwardSector)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get postcode summary %q: %w", parts.Normalised, err)
	}

	if len(sectorReports) == 0 && len(postcodeReports) == 0 {
		return nil, nil
	}

	summary := &domain.PostcodeSummary{
		DisplayPostcode: domain.FormatPostcodeForDisplay(parts.Normalised),
		LastUpdated:     lastUpdated,
	}
	if len(sectorReports) > 0 {
		st := RenderStats(parts.OutwardSector, minutesOf(sectorReports))
		summary.OutwardSector = &st
	}
	if len(postcodeReports) >= minFullPostcodeReports {
		st := RenderStats(parts.Normalised, minutesOf(postcodeReports))
		summary.FullPostcode = &st
	}

	return summary, nil
}

// GetNearbySectorSummaries returns stats for every sector under the outward
// code with reports in the rolling window, ordered by sector label.
func (s *AggregationService) GetNearbySectorSummaries(ctx context.Context, outward string) ([]domain.AggregatedStats, error) {
	outward = domain.NormalisePostcodeInput(outward)
	if !domain.IsValidOutward(outward) {
		return []domain.AggregatedStats{}, nil
	}

	since := domain.UKDaysAgo(s.clock.Now(), rollingWindowDays)
	reports, err := s.repo.FetchOutwardReports(ctx, outward, since)
	if err != nil {
		return nil, fmt.Errorf("get nearby sectors %q: %w", outward, err)
	}

	bySector := make(map[string][]int)
	for _, r := range reports {
		bySector[r.OutwardSector] = append(bySector[r.OutwardSector], r.MinutesSinceMidnight)
	}

	labels := make([]string, 0, len(bySector))
	for sector := range bySector {
		labels = append(labels, sector)
	}
	slices.Sort(labels)

	out := make([]domain.AggregatedStats, 0, len(labels))
	for _, sector := range labels {
		out = append(out, RenderStats(sector, bySector[sector]))
	}
	return out, nil
}

// GetGlobalStats never fails. Storage errors produce the empty snapshot,
// which is not cached so the next read retries storage.
func (s *AggregationService) GetGlobalStats(ctx context.Context) domain.GlobalStats {
	if cached, ok := s.cachedGlobalStats(ctx); ok {
		return cached
	}

	now := s.clock.Now()
	stats, err := s.computeGlobalStats(ctx, now)
	if err != nil {
		s.log.WarnContext(ctx, "falling back to empty global stats snapshot",
			"req_id", obs.RequestID(ctx), "err", err)
		if s.metrics != nil {
			s.metrics.GlobalStatsDegraded.Inc()
		}
		return EmptyGlobalStats(now)
	}

	if s.cache != nil {
		b, err := json.Marshal(stats)
		if err == nil {
			err = s.cache.Set(ctx, GlobalStatsTag, b, s.statsTTL)
		}
		if err != nil {
			s.log.WarnContext(ctx, "cache global stats failed",
				"req_id", obs.RequestID(ctx), "err", err)
		}
	}

	return stats
}

func (s *AggregationService) cachedGlobalStats(ctx context.Context) (domain.GlobalStats, bool) {
	if s.cache == nil {
		return domain.GlobalStats{}, false
	}

	b, ok, err := s.cache.Get(ctx, GlobalStatsTag)
	if err != nil {
		s.recordCacheLookup("error")
		s.log.WarnContext(ctx, "read global stats cache failed",
			"req_id", obs.RequestID(ctx), "err", err)
		return domain.GlobalStats{}, false
	}
	if !ok {
		s.recordCacheLookup("miss")
		return domain.GlobalStats{}, false
	}

	var stats domain.GlobalStats
	if err := json.Unmarshal(b, &stats); err != nil {
		s.recordCacheLookup("error")
		s.log.WarnContext(ctx, "decode cached global stats failed",
			"req_id", obs.RequestID(ctx), "err", err)
		return domain.GlobalStats{}, false
	}

	s.recordCacheLookup("hit")
	return stats, true
}

func (s *AggregationService) recordCacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.StatsCacheLookups.WithLabelValues(result).Inc()
	}
}

func (s *AggregationService) computeGlobalStats(ctx context.Context, now time.Time) (domain.GlobalStats, error) {
	windowStart := domain.UKDaysAgo(now, rollingWindowDays)
	seriesStart := domain.UKDaysAgo(now, dailySeriesDays-1)

	var (
		counts     ports.GlobalCounts
		typeCounts []domain.DeliveryTypeCount
		daily      []domain.DailyReportCount
		minutes    []int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.repo.FetchGlobalCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		typeCounts, err = s.repo.FetchDeliveryTypeCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.repo.FetchDailyReportCounts(gctx, seriesStart)
		return err
	})
	g.Go(func() (err error) {
		minutes, err = s.repo.FetchMinutesSince(gctx, windowStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.GlobalStats{}, fmt.Errorf("compute global stats: %w", err)
	}

	return domain.GlobalStats{
		Totals: domain.GlobalTotals{
			TotalReports:    counts.TotalReports,
			UniquePostcodes: counts.UniquePostcodes,
			UniqueSectors:   counts.UniqueSectors,
			Last24hReports:  counts.Last24hReports,
			Last7dReports:   counts.Last7dReports,
		},
		LastSubmissionAt:        counts.LastSubmissionAt,
		MedianMinutesLast30Days: ComputeMedian(minutes),
		DailyReports:            continuousDailySeries(now, daily),
		DeliveryTypeBreakdown:   typeBreakdown(typeCounts),
		RollingWindowStart:      windowStart,
	}, nil
}

// EmptyGlobalStats is the zeroed snapshot served when storage is unavailable.
func EmptyGlobalStats(now time.Time) domain.GlobalStats {
	return domain.GlobalStats{
		DailyReports:          continuousDailySeries(now, nil),
		DeliveryTypeBreakdown: typeBreakdown(nil),
		RollingWindowStart:    domain.UKDaysAgo(now, rollingWindowDays),
	}
}

// continuousDailySeries returns one entry per day for the 14 UK days ending
// today, filling gaps in the sparse storage rows with zero.
func continuousDailySeries(now time.Time, rows []domain.DailyReportCount) []domain.DailyReportCount {
	lookup := make(map[string]int, len(rows))
	for _, r := range rows {
		lookup[r.Date] += r.Count
	}

	start := domain.UKDate(now).AddDate(0, 0, -(dailySeriesDays - 1))
	out := make([]domain.DailyReportCount, 0, dailySeriesDays)
	for i := 0; i < dailySeriesDays; i++ {
		day := start.AddDate(0, 0, i).Format(domain.DateLayout)
		out = append(out, domain.DailyReportCount{Date: day, Count: lookup[day]})
	}
	return out
}

// typeBreakdown always lists letters, parcels and both in that order.
func typeBreakdown(rows []domain.DeliveryTypeCount) []domain.DeliveryTypeCount {
	lookup := make(map[domain.DeliveryType]int, len(rows))
	for _, r := range rows {
		lookup[r.Type] += r.Count
	}

	out := make([]domain.DeliveryTypeCount, 0, len(domain.DeliveryTypes))
	for _, t := range domain.DeliveryTypes {
		out = append(out, domain.DeliveryTypeCount{Type: t, Count: lookup[t]})
	}
	return out
}

func minutesOf(reports []domain.DeliveryReport) []int {
	out := make([]int, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.MinutesSinceMidnight)
	}
	return out
}
