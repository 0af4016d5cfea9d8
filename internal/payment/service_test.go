package payment_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/paydash/payment-dashboard/internal"
	"github.com/paydash/payment-dashboard/internal/payment"
)

// Mock repository for testing
type mockPaymentRepository struct {
	payments []*payment.Payment
	nextID   int64

	createErrs []error // consumed per Create call
	failAll    error   // returned by every read when set
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{nextID: 1}
}

func (m *mockPaymentRepository) Create(p *payment.Payment) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range m.payments {
		if existing.TransactionID == p.TransactionID {
			return payment.ErrDuplicateTransactionID
		}
	}
	p.ID = m.nextID
	m.nextID++
	m.payments = append(m.payments, p)
	return nil
}

func (m *mockPaymentRepository) GetByID(id int64) (*payment.Payment, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, p := range m.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, payment.ErrPaymentNotFound
}

func (m *mockPaymentRepository) UpdateStatus(id int64, status string, updatedAt time.Time) error {
	if m.failAll != nil {
		return m.failAll
	}
	for _, p := range m.payments {
		if p.ID == id {
			p.Status = status
			p.UpdatedAt = updatedAt
			return nil
		}
	}
	return payment.ErrPaymentNotFound
}

func (m *mockPaymentRepository) matches(p *payment.Payment, f payment.Filter) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Method != "" && p.Method != f.Method {
		return false
	}
	if f.StartDate != nil && p.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && !p.CreatedAt.Before(*f.EndDate) {
		return false
	}
	if f.MinAmount != nil && p.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && p.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}

func (m *mockPaymentRepository) filtered(f payment.Filter) []*payment.Payment {
	var out []*payment.Payment
	for _, p := range m.payments {
		if m.matches(p, f) {
			out = append(out, p)
		}
	}
	return out
}

func (m *mockPaymentRepository) List(f payment.Filter, limit, offset int) ([]*payment.Payment, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	rows := m.filtered(f)
	if offset >= len(rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], nil
}

func (m *mockPaymentRepository) ListAll(f payment.Filter) ([]*payment.Payment, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	return m.filtered(f), nil
}

func (m *mockPaymentRepository) Count(f payment.Filter) (int64, error) {
	if m.failAll != nil {
		return 0, m.failAll
	}
	return int64(len(m.filtered(f))), nil
}

func (m *mockPaymentRepository) CountBetween(from, to time.Time) (int64, error) {
	if m.failAll != nil {
		return 0, m.failAll
	}
	return int64(len(m.filtered(payment.Filter{StartDate: &from, EndDate: &to}))), nil
}

func (m *mockPaymentRepository) CountByStatus(status string) (int64, error) {
	if m.failAll != nil {
		return 0, m.failAll
	}
	return int64(len(m.filtered(payment.Filter{Status: status}))), nil
}

func (m *mockPaymentRepository) SumAmountByStatus(status string) (decimal.Decimal, error) {
	if m.failAll != nil {
		return decimal.Zero, m.failAll
	}
	sum := decimal.Zero
	for _, p := range m.filtered(payment.Filter{Status: status}) {
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

func (m *mockPaymentRepository) StatusBreakdown() ([]payment.StatusBucket, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	byStatus := map[string]*payment.StatusBucket{}
	var order []string
	for _, p := range m.payments {
		b := byStatus[p.Status]
		if b == nil {
			b = &payment.StatusBucket{Status: p.Status, Amount: decimal.Zero}
			byStatus[p.Status] = b
			order = append(order, p.Status)
		}
		b.Count++
		b.Amount = b.Amount.Add(p.Amount)
	}
	var out []payment.StatusBucket
	for _, s := range order {
		out = append(out, *byStatus[s])
	}
	return out, nil
}

func (m *mockPaymentRepository) MethodBreakdown() ([]payment.MethodBucket, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	byMethod := map[string]*payment.MethodBucket{}
	var order []string
	for _, p := range m.payments {
		b := byMethod[p.Method]
		if b == nil {
			b = &payment.MethodBucket{Method: p.Method, Total: decimal.Zero}
			byMethod[p.Method] = b
			order = append(order, p.Method)
		}
		b.Count++
		b.Total = b.Total.Add(p.Amount)
	}
	var out []payment.MethodBucket
	for _, s := range order {
		out = append(out, *byMethod[s])
	}
	return out, nil
}

func (m *mockPaymentRepository) MethodRevenue() ([]payment.MethodRevenue, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	byMethod := map[string]*payment.MethodRevenue{}
	var order []string
	for _, p := range m.payments {
		if p.Status != payment.StatusSuccess {
			continue
		}
		b := byMethod[p.Method]
		if b == nil {
			b = &payment.MethodRevenue{Method: p.Method, Revenue: decimal.Zero}
			byMethod[p.Method] = b
			order = append(order, p.Method)
		}
		b.Count++
		b.Revenue = b.Revenue.Add(p.Amount)
	}
	var out []payment.MethodRevenue
	for _, s := range order {
		out = append(out, *byMethod[s])
	}
	return out, nil
}

func (m *mockPaymentRepository) CreatedBetween(from, to time.Time) ([]*payment.Payment, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	return m.filtered(payment.Filter{StartDate: &from, EndDate: &to}), nil
}

func (m *mockPaymentRepository) ByStatus(status string) ([]*payment.Payment, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	return m.filtered(payment.Filter{Status: status}), nil
}

func (m *mockPaymentRepository) Recent(limit int) ([]*payment.Payment, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	if limit > len(m.payments) {
		limit = len(m.payments)
	}
	out := make([]*payment.Payment, 0, limit)
	for i := len(m.payments) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.payments[i])
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ = Describe("PaymentService", func() {
	var (
		repo *mockPaymentRepository
		svc  *payment.Service
		now  time.Time
	)

	seed := func(txnID, status, method, amount string, createdAt time.Time) *payment.Payment {
		p := &payment.Payment{
			TransactionID: txnID,
			Amount:        decimal.RequireFromString(amount),
			Receiver:      "Acme Stores",
			Status:        status,
			Method:        method,
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		}
		Expect(repo.Create(p)).To(Succeed())
		return p
	}

	BeforeEach(func() {
		repo = newMockPaymentRepository()
		svc = payment.NewService(repo, testLogger())
		now = time.Date(2025, 8, 15, 14, 30, 0, 0, time.UTC)
		svc.Now = func() time.Time { return now }
	})

	Describe("CreatePayment", func() {
		It("should generate a TXN transaction id and stamp UTC timestamps", func() {
			dto := &payment.CreatePaymentDTO{
				Amount:   decimal.RequireFromString("499.99"),
				Receiver: "Fresh Mart",
				Method:   payment.MethodUPI,
			}

			p, err := svc.CreatePayment(dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(p.TransactionID).To(HavePrefix("TXN-"))
			Expect(len(p.TransactionID)).To(Equal(36))
			Expect(p.Status).To(Equal(payment.StatusPending))
			Expect(p.CreatedAt).To(Equal(now))
			Expect(p.UpdatedAt).To(Equal(now))
		})

		It("should reject a non-positive amount", func() {
			dto := &payment.CreatePaymentDTO{
				Amount:   decimal.Zero,
				Receiver: "Fresh Mart",
				Method:   payment.MethodUPI,
			}

			_, err := svc.CreatePayment(dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should reject more than two decimal places", func() {
			dto := &payment.CreatePaymentDTO{
				Amount:   decimal.RequireFromString("10.999"),
				Receiver: "Fresh Mart",
				Method:   payment.MethodUPI,
			}

			_, err := svc.CreatePayment(dto)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an unknown method", func() {
			dto := &payment.CreatePaymentDTO{
				Amount:   decimal.RequireFromString("10.00"),
				Receiver: "Fresh Mart",
				Method:   "cash",
			}

			_, err := svc.CreatePayment(dto)
			Expect(err).To(HaveOccurred())
		})

		It("should retry once on a transaction id collision", func() {
			repo.createErrs = []error{payment.ErrDuplicateTransactionID}

			dto := &payment.CreatePaymentDTO{
				Amount:   decimal.RequireFromString("25.00"),
				Receiver: "Fresh Mart",
				Method:   payment.MethodWallet,
			}

			p, err := svc.CreatePayment(dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(p.ID).To(BeNumerically(">", 0))
		})

		It("should surface a conflict when the retry also collides", func() {
			repo.createErrs = []error{payment.ErrDuplicateTransactionID, payment.ErrDuplicateTransactionID}

			dto := &payment.CreatePaymentDTO{
				Amount:   decimal.RequireFromString("25.00"),
				Receiver: "Fresh Mart",
				Method:   payment.MethodWallet,
			}

			_, err := svc.CreatePayment(dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
		})

		It("should map store failures to unavailable", func() {
			repo.createErrs = []error{errors.New("connection refused")}

			dto := &payment.CreatePaymentDTO{
				Amount:   decimal.RequireFromString("25.00"),
				Receiver: "Fresh Mart",
				Method:   payment.MethodWallet,
			}

			_, err := svc.CreatePayment(dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(503))
		})
	})

	Describe("ListPayments", func() {
		It("should reject page below 1", func() {
			_, err := svc.ListPayments(payment.Filter{}, 0, 10)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("should reject limit below 1", func() {
			_, err := svc.ListPayments(payment.Filter{}, 1, 0)
			Expect(err).To(HaveOccurred())
		})

		It("should compute total pages from the filtered total", func() {
			for i := 0; i < 11; i++ {
				seed("TXN-L"+string(rune('A'+i)), payment.StatusSuccess, payment.MethodUPI, "10.00", now)
			}

			page, err := svc.ListPayments(payment.Filter{}, 2, 5)

			Expect(err).ToNot(HaveOccurred())
			Expect(page.Total).To(Equal(int64(11)))
			Expect(page.TotalPages).To(Equal(3))
			Expect(page.Data).To(HaveLen(5))
		})

		It("should return an empty slice past the last page", func() {
			seed("TXN-ONE", payment.StatusSuccess, payment.MethodUPI, "10.00", now)

			page, err := svc.ListPayments(payment.Filter{}, 5, 10)

			Expect(err).ToNot(HaveOccurred())
			Expect(page.Data).ToNot(BeNil())
			Expect(page.Data).To(BeEmpty())
		})
	})

	Describe("UpdateStatus", func() {
		It("should overwrite the status and refresh updated_at", func() {
			p := seed("TXN-ST", payment.StatusPending, payment.MethodUPI, "10.00", now.Add(-time.Hour))

			updated, err := svc.UpdateStatus(p.ID, payment.UpdateStatusDTO{Status: payment.StatusSuccess})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(payment.StatusSuccess))
			Expect(updated.UpdatedAt).To(Equal(now))
		})

		It("should advance updated_at on a self-transition", func() {
			p := seed("TXN-SELF", payment.StatusPending, payment.MethodUPI, "10.00", now.Add(-time.Hour))

			updated, err := svc.UpdateStatus(p.ID, payment.UpdateStatusDTO{Status: payment.StatusPending})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.UpdatedAt).To(Equal(now))
		})

		It("should reject an invalid status", func() {
			p := seed("TXN-BAD", payment.StatusPending, payment.MethodUPI, "10.00", now)

			_, err := svc.UpdateStatus(p.ID, payment.UpdateStatusDTO{Status: "refunded"})
			Expect(err).To(HaveOccurred())
		})

		It("should return not found for an unknown id", func() {
			_, err := svc.UpdateStatus(404, payment.UpdateStatusDTO{Status: payment.StatusFailed})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(404))
		})
	})

	Describe("GetStats", func() {
		It("should zero-fill a contiguous revenue trend ending today", func() {
			seed("TXN-T1", payment.StatusSuccess, payment.MethodUPI, "100.00", now)
			seed("TXN-T2", payment.StatusSuccess, payment.MethodUPI, "50.00", now.AddDate(0, 0, -2))
			seed("TXN-T3", payment.StatusFailed, payment.MethodUPI, "999.00", now.AddDate(0, 0, -2))

			stats, err := svc.GetStats(7, 5)

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.RevenueTrend).To(HaveLen(7))
			Expect(stats.RevenueTrend[0].Date).To(Equal("2025-08-09"))
			Expect(stats.RevenueTrend[6].Date).To(Equal("2025-08-15"))
			Expect(stats.RevenueTrend[6].Revenue.Equal(decimal.RequireFromString("100.00"))).To(BeTrue())
			Expect(stats.RevenueTrend[4].Revenue.Equal(decimal.RequireFromString("50.00"))).To(BeTrue())
			Expect(stats.RevenueTrend[5].Revenue.IsZero()).To(BeTrue())
		})

		It("should count today and the trailing week separately", func() {
			seed("TXN-W1", payment.StatusSuccess, payment.MethodUPI, "10.00", now)
			seed("TXN-W2", payment.StatusSuccess, payment.MethodUPI, "10.00", now.AddDate(0, 0, -3))
			seed("TXN-W3", payment.StatusSuccess, payment.MethodUPI, "10.00", now.AddDate(0, 0, -10))

			stats, err := svc.GetStats(7, 5)

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.TodayCount).To(Equal(int64(1)))
			Expect(stats.WeekCount).To(Equal(int64(2)))
		})

		It("should fill method percentages against the record count", func() {
			seed("TXN-P1", payment.StatusSuccess, payment.MethodUPI, "10.00", now)
			seed("TXN-P2", payment.StatusSuccess, payment.MethodUPI, "10.00", now)
			seed("TXN-P3", payment.StatusSuccess, payment.MethodWallet, "10.00", now)

			stats, err := svc.GetStats(7, 5)

			Expect(err).ToNot(HaveOccurred())
			byMethod := map[string]int{}
			for _, b := range stats.MethodBreakdown {
				byMethod[b.Method] = b.Percentage
			}
			Expect(byMethod[payment.MethodUPI]).To(Equal(67))
			Expect(byMethod[payment.MethodWallet]).To(Equal(33))
		})

		It("should return empty collections on an empty store", func() {
			stats, err := svc.GetStats(7, 5)

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.StatusBreakdown).ToNot(BeNil())
			Expect(stats.StatusBreakdown).To(BeEmpty())
			Expect(stats.RecentTransactions).ToNot(BeNil())
			Expect(stats.TotalRevenue.IsZero()).To(BeTrue())
		})

		It("should reject a non-positive trend window", func() {
			_, err := svc.GetStats(0, 5)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetQuickStats", func() {
		It("should report zero rate and peak hour on an empty store", func() {
			stats, err := svc.GetQuickStats()

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.SuccessRate).To(Equal(0.0))
			Expect(stats.PeakHour).To(Equal(0))
			Expect(stats.AvgSuccessAmount.IsZero()).To(BeTrue())
		})

		It("should compare today against yesterday with success-only revenue", func() {
			seed("TXN-Q1", payment.StatusSuccess, payment.MethodUPI, "100.00", now)
			seed("TXN-Q2", payment.StatusFailed, payment.MethodUPI, "40.00", now)
			seed("TXN-Q3", payment.StatusSuccess, payment.MethodUPI, "60.00", now.AddDate(0, 0, -1))

			stats, err := svc.GetQuickStats()

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.TodayCount).To(Equal(int64(2)))
			Expect(stats.YesterdayCount).To(Equal(int64(1)))
			Expect(stats.TodayRevenue.Equal(decimal.RequireFromString("100.00"))).To(BeTrue())
			Expect(stats.YesterdayRevenue.Equal(decimal.RequireFromString("60.00"))).To(BeTrue())
		})

		It("should round the overall success rate to one decimal", func() {
			seed("TXN-R1", payment.StatusSuccess, payment.MethodUPI, "10.00", now)
			seed("TXN-R2", payment.StatusSuccess, payment.MethodUPI, "20.00", now)
			seed("TXN-R3", payment.StatusFailed, payment.MethodUPI, "10.00", now)

			stats, err := svc.GetQuickStats()

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.SuccessRate).To(Equal(66.7))
			Expect(stats.AvgSuccessAmount.Equal(decimal.RequireFromString("15.00"))).To(BeTrue())
		})

		It("should pick the lowest hour on a peak tie", func() {
			seed("TXN-H1", payment.StatusSuccess, payment.MethodUPI, "10.00", time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC))
			seed("TXN-H2", payment.StatusSuccess, payment.MethodUPI, "10.00", time.Date(2025, 8, 15, 11, 0, 0, 0, time.UTC))

			stats, err := svc.GetQuickStats()

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.PeakHour).To(Equal(9))
		})
	})

	Describe("GetHourlyDistribution", func() {
		It("should always return 24 contiguous buckets", func() {
			seed("TXN-HD1", payment.StatusSuccess, payment.MethodUPI, "10.00", now.Add(-2*time.Hour))

			buckets, err := svc.GetHourlyDistribution()

			Expect(err).ToNot(HaveOccurred())
			Expect(buckets).To(HaveLen(24))
			for h, b := range buckets {
				Expect(b.Hour).To(Equal(h))
			}
			Expect(buckets[12].Count).To(Equal(int64(1)))
		})
	})

	Describe("GetSuccessRateTrend", func() {
		It("should report 0 rate for days without transactions", func() {
			seed("TXN-SR1", payment.StatusSuccess, payment.MethodUPI, "10.00", now)
			seed("TXN-SR2", payment.StatusFailed, payment.MethodUPI, "10.00", now)

			points, err := svc.GetSuccessRateTrend(3)

			Expect(err).ToNot(HaveOccurred())
			Expect(points).To(HaveLen(3))
			Expect(points[0].Total).To(Equal(int64(0)))
			Expect(points[0].SuccessRate).To(Equal(0.0))
			Expect(points[2].Date).To(Equal("2025-08-15"))
			Expect(points[2].Total).To(Equal(int64(2)))
			Expect(points[2].SuccessRate).To(Equal(50.0))
		})

		It("should reject a non-positive window", func() {
			_, err := svc.GetSuccessRateTrend(0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ExportCSV", func() {
		It("should render a header plus one row per payment", func() {
			seed("TXN-CSV1", payment.StatusSuccess, payment.MethodUPI, "1250.00", now)
			seed("TXN-CSV2", payment.StatusFailed, payment.MethodWallet, "75.50", now)

			data, err := svc.ExportCSV(payment.Filter{})

			Expect(err).ToNot(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			Expect(lines).To(HaveLen(3))
			Expect(lines[0]).To(Equal("ID,Transaction ID,Amount,Status,Method,Receiver,Created At,Updated At"))
			Expect(lines[1]).To(ContainSubstring("TXN-CSV1"))
			Expect(lines[1]).To(ContainSubstring("1250.00"))
		})

		It("should quote receivers containing commas", func() {
			p := &payment.Payment{
				TransactionID: "TXN-Q",
				Amount:        decimal.RequireFromString("10.00"),
				Receiver:      "Acme, Inc.",
				Status:        payment.StatusSuccess,
				Method:        payment.MethodUPI,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			Expect(repo.Create(p)).To(Succeed())

			data, err := svc.ExportCSV(payment.Filter{})

			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"Acme, Inc."`))
		})
	})
})
