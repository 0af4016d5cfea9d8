package payment

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydash/payment-dashboard/internal"
)

// StatusBucket is one row of the per-status breakdown.
type StatusBucket struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// MethodBucket is one row of the per-method breakdown. Percentage is the
// rounded share of the record count; rows need not sum to exactly 100.
type MethodBucket struct {
	Method     string          `json:"method"`
	Count      int64           `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Percentage int             `json:"percentage"`
}

// TrendPoint is one calendar day of successful revenue, UTC day boundaries.
type TrendPoint struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DashboardStats struct {
	TodayCount         int64           `json:"todayCount"`
	WeekCount          int64           `json:"weekCount"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	FailedCount        int64           `json:"failedCount"`
	StatusBreakdown    []StatusBucket  `json:"statusBreakdown"`
	MethodBreakdown    []MethodBucket  `json:"methodBreakdown"`
	RevenueTrend       []TrendPoint    `json:"revenueTrend"`
	RecentTransactions []*Payment      `json:"recentTransactions"`
}

type QuickStats struct {
	TodayCount       int64           `json:"todayCount"`
	YesterdayCount   int64           `json:"yesterdayCount"`
	TodayRevenue     decimal.Decimal `json:"todayRevenue"`
	YesterdayRevenue decimal.Decimal `json:"yesterdayRevenue"`
	SuccessRate      float64         `json:"successRate"`
	AvgSuccessAmount decimal.Decimal `json:"avgSuccessAmount"`
	PeakHour         int             `json:"peakHour"`
}

type MethodRevenue struct {
	Method  string          `json:"method"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type HourBucket struct {
	Hour   int             `json:"hour"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type RatePoint struct {
	Date        string  `json:"date"`
	Total       int64   `json:"total"`
	Successful  int64   `json:"successful"`
	SuccessRate float64 `json:"successRate"`
}

const (
	// DefaultTrendDays is the revenue/success-rate trend window when the
	// caller does not ask for one.
	DefaultTrendDays = 7
	// DefaultRecentLimit caps the recent-transactions block of the stats
	// payload.
	DefaultRecentLimit = 5
	// hourlyWindowDays bounds the hourly distribution; unbounded history
	// would let old traffic dominate the chart.
	hourlyWindowDays = 7
)

// GetStats assembles the dashboard summary: counters, breakdowns, the
// revenue trend and the most recent transactions. Everything is recomputed
// from the store on every call.
func (s *Service) GetStats(trendDays, recentLimit int) (*DashboardStats, error) {
	if trendDays < 1 {
		return nil, internal.NewInvalidArgumentError("days must be >= 1", internal.ErrCodeInvalidLimit)
	}
	if recentLimit < 1 {
		return nil, internal.NewInvalidArgumentError("limit must be >= 1", internal.ErrCodeInvalidLimit)
	}

	now := s.Now().UTC()
	today := startOfDay(now)
	todayEnd := today.AddDate(0, 0, 1)

	todayCount, err := s.repo.CountBetween(today, todayEnd)
	if err != nil {
		return nil, s.storeError("failed to count today's payments", err)
	}

	weekCount, err := s.repo.CountBetween(today.AddDate(0, 0, -6), todayEnd)
	if err != nil {
		return nil, s.storeError("failed to count trailing week payments", err)
	}

	totalRevenue, err := s.repo.SumAmountByStatus(StatusSuccess)
	if err != nil {
		return nil, s.storeError("failed to sum success revenue", err)
	}

	failedCount, err := s.repo.CountByStatus(StatusFailed)
	if err != nil {
		return nil, s.storeError("failed to count failed payments", err)
	}

	statusBreakdown, err := s.repo.StatusBreakdown()
	if err != nil {
		return nil, s.storeError("failed to load status breakdown", err)
	}

	methodBreakdown, err := s.repo.MethodBreakdown()
	if err != nil {
		return nil, s.storeError("failed to load method breakdown", err)
	}
	fillPercentages(methodBreakdown)

	trendRows, err := s.repo.CreatedBetween(today.AddDate(0, 0, -(trendDays-1)), todayEnd)
	if err != nil {
		return nil, s.storeError("failed to load trend window", err)
	}

	recent, err := s.repo.Recent(recentLimit)
	if err != nil {
		return nil, s.storeError("failed to load recent transactions", err)
	}
	if recent == nil {
		recent = []*Payment{}
	}

	return &DashboardStats{
		TodayCount:         todayCount,
		WeekCount:          weekCount,
		TotalRevenue:       totalRevenue,
		FailedCount:        failedCount,
		StatusBreakdown:    emptyIfNilStatus(statusBreakdown),
		MethodBreakdown:    emptyIfNilMethod(methodBreakdown),
		RevenueTrend:       revenueTrend(trendRows, today, trendDays),
		RecentTransactions: recent,
	}, nil
}

// GetQuickStats computes the compact dashboard header: today vs yesterday,
// overall success rate, average successful amount and the peak hour.
func (s *Service) GetQuickStats() (*QuickStats, error) {
	now := s.Now().UTC()
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	todayRows, err := s.repo.CreatedBetween(today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, s.storeError("failed to load today's payments", err)
	}

	yesterdayRows, err := s.repo.CreatedBetween(yesterday, today)
	if err != nil {
		return nil, s.storeError("failed to load yesterday's payments", err)
	}

	total, err := s.repo.Count(Filter{})
	if err != nil {
		return nil, s.storeError("failed to count payments", err)
	}

	successCount, err := s.repo.CountByStatus(StatusSuccess)
	if err != nil {
		return nil, s.storeError("failed to count successful payments", err)
	}

	totalRevenue, err := s.repo.SumAmountByStatus(StatusSuccess)
	if err != nil {
		return nil, s.storeError("failed to sum success revenue", err)
	}

	successRows, err := s.repo.ByStatus(StatusSuccess)
	if err != nil {
		return nil, s.storeError("failed to load successful payments", err)
	}

	successRate := 0.0
	if total > 0 {
		successRate = round1(float64(successCount) / float64(total) * 100)
	}

	avg := decimal.Zero
	if successCount > 0 {
		avg = totalRevenue.Div(decimal.NewFromInt(successCount)).Round(2)
	}

	return &QuickStats{
		TodayCount:       int64(len(todayRows)),
		YesterdayCount:   int64(len(yesterdayRows)),
		TodayRevenue:     successRevenue(todayRows),
		YesterdayRevenue: successRevenue(yesterdayRows),
		SuccessRate:      successRate,
		AvgSuccessAmount: avg,
		PeakHour:         peakHour(successRows),
	}, nil
}

// GetRevenueByMethod reports the successful count and revenue per method.
func (s *Service) GetRevenueByMethod() ([]MethodRevenue, error) {
	rows, err := s.repo.MethodRevenue()
	if err != nil {
		return nil, s.storeError("failed to load revenue by method", err)
	}
	if rows == nil {
		rows = []MethodRevenue{}
	}
	return rows, nil
}

// GetHourlyDistribution buckets the trailing week of payments by UTC
// hour-of-day. All 24 buckets are always present.
func (s *Service) GetHourlyDistribution() ([]HourBucket, error) {
	now := s.Now().UTC()
	rows, err := s.repo.CreatedBetween(now.AddDate(0, 0, -hourlyWindowDays), now)
	if err != nil {
		return nil, s.storeError("failed to load hourly window", err)
	}

	buckets := make([]HourBucket, 24)
	for h := range buckets {
		buckets[h] = HourBucket{Hour: h, Amount: decimal.Zero}
	}
	for _, p := range rows {
		h := p.CreatedAt.UTC().Hour()
		buckets[h].Count++
		buckets[h].Amount = buckets[h].Amount.Add(p.Amount)
	}
	return buckets, nil
}

// GetSuccessRateTrend reports per-day totals and success rate for the
// trailing days window, ending today. Days with no transactions report a
// rate of 0, never NaN, and are never omitted.
func (s *Service) GetSuccessRateTrend(days int) ([]RatePoint, error) {
	if days < 1 {
		return nil, internal.NewInvalidArgumentError("days must be >= 1", internal.ErrCodeInvalidLimit)
	}

	now := s.Now().UTC()
	today := startOfDay(now)
	start := today.AddDate(0, 0, -(days - 1))

	rows, err := s.repo.CreatedBetween(start, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, s.storeError("failed to load success rate window", err)
	}

	type dayCounts struct {
		total      int64
		successful int64
	}
	byDay := make(map[string]*dayCounts, days)
	for _, p := range rows {
		key := p.CreatedAt.UTC().Format(dateLayout)
		c := byDay[key]
		if c == nil {
			c = &dayCounts{}
			byDay[key] = c
		}
		c.total++
		if p.Status == StatusSuccess {
			c.successful++
		}
	}

	points := make([]RatePoint, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format(dateLayout)
		point := RatePoint{Date: key}
		if c, ok := byDay[key]; ok {
			point.Total = c.total
			point.Successful = c.successful
			if c.total > 0 {
				point.SuccessRate = round1(float64(c.successful) / float64(c.total) * 100)
			}
		}
		points = append(points, point)
	}
	return points, nil
}

func (s *Service) storeError(msg string, err error) error {
	s.logger.Error(msg, "error", err)
	return internal.NewUnavailableError("payment store unreachable", err)
}

// revenueTrend zero-fills a contiguous per-day revenue sequence ending
// today, from the rows of the window.
func revenueTrend(rows []*Payment, today time.Time, days int) []TrendPoint {
	byDay := make(map[string]decimal.Decimal, days)
	for _, p := range rows {
		if p.Status != StatusSuccess {
			continue
		}
		key := p.CreatedAt.UTC().Format(dateLayout)
		byDay[key] = byDay[key].Add(p.Amount)
	}

	start := today.AddDate(0, 0, -(days - 1))
	points := make([]TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format(dateLayout)
		revenue := decimal.Zero
		if v, ok := byDay[key]; ok {
			revenue = v
		}
		points = append(points, TrendPoint{Date: key, Revenue: revenue})
	}
	return points
}

func fillPercentages(buckets []MethodBucket) {
	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	if total == 0 {
		return
	}
	for i := range buckets {
		buckets[i].Percentage = int(math.Round(float64(buckets[i].Count) / float64(total) * 100))
	}
}

func successRevenue(rows []*Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range rows {
		if p.Status == StatusSuccess {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// peakHour returns the UTC hour with the most successful payments; the
// lowest hour wins a tie. 0 when there are no successful payments.
func peakHour(successRows []*Payment) int {
	var counts [24]int64
	for _, p := range successRows {
		counts[p.CreatedAt.UTC().Hour()]++
	}
	peak := 0
	for h := 1; h < 24; h++ {
		if counts[h] > counts[peak] {
			peak = h
		}
	}
	return peak
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func emptyIfNilStatus(buckets []StatusBucket) []StatusBucket {
	if buckets == nil {
		return []StatusBucket{}
	}
	return buckets
}

func emptyIfNilMethod(buckets []MethodBucket) []MethodBucket {
	if buckets == nil {
		return []MethodBucket{}
	}
	return buckets
}
