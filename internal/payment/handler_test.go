package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/paydash/payment-dashboard/internal"
	"github.com/paydash/payment-dashboard/internal/auth"
	"github.com/paydash/payment-dashboard/internal/payment"
)

// mockService lets each test script the handler's service layer.
type mockService struct {
	createFn      func(dto *payment.CreatePaymentDTO) (*payment.Payment, error)
	getFn         func(id int64) (*payment.Payment, error)
	listFn        func(f payment.Filter, page, limit int) (*payment.Page, error)
	updateFn      func(id int64, dto payment.UpdateStatusDTO) (*payment.Payment, error)
	exportFn      func(f payment.Filter) ([]byte, error)
	statsFn       func(trendDays, recentLimit int) (*payment.DashboardStats, error)
	quickStatsFn  func() (*payment.QuickStats, error)
	methodRevFn   func() ([]payment.MethodRevenue, error)
	hourlyFn      func() ([]payment.HourBucket, error)
	successRateFn func(days int) ([]payment.RatePoint, error)
}

func (m *mockService) CreatePayment(dto *payment.CreatePaymentDTO) (*payment.Payment, error) {
	return m.createFn(dto)
}
func (m *mockService) GetPayment(id int64) (*payment.Payment, error) { return m.getFn(id) }
func (m *mockService) ListPayments(f payment.Filter, page, limit int) (*payment.Page, error) {
	return m.listFn(f, page, limit)
}
func (m *mockService) UpdateStatus(id int64, dto payment.UpdateStatusDTO) (*payment.Payment, error) {
	return m.updateFn(id, dto)
}
func (m *mockService) ExportCSV(f payment.Filter) ([]byte, error) { return m.exportFn(f) }
func (m *mockService) GetStats(trendDays, recentLimit int) (*payment.DashboardStats, error) {
	return m.statsFn(trendDays, recentLimit)
}
func (m *mockService) GetQuickStats() (*payment.QuickStats, error) { return m.quickStatsFn() }
func (m *mockService) GetRevenueByMethod() ([]payment.MethodRevenue, error) {
	return m.methodRevFn()
}
func (m *mockService) GetHourlyDistribution() ([]payment.HourBucket, error) { return m.hourlyFn() }
func (m *mockService) GetSuccessRateTrend(days int) ([]payment.RatePoint, error) {
	return m.successRateFn(days)
}

func withUser(r *http.Request) *http.Request {
	u := &auth.User{ID: 1, Username: "viewer", Role: auth.RoleViewer}
	return r.WithContext(context.WithValue(r.Context(), auth.ContextUserKey, u))
}

var _ = Describe("PaymentHandler", func() {
	var (
		svc     *mockService
		handler *payment.Handler
	)

	samplePayment := &payment.Payment{
		ID:            7,
		TransactionID: "TXN-ABC",
		Amount:        decimal.RequireFromString("49.99"),
		Receiver:      "Fresh Mart",
		Status:        payment.StatusPending,
		Method:        payment.MethodUPI,
		CreatedAt:     time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC),
	}

	BeforeEach(func() {
		svc = &mockService{}
		handler = payment.NewHandler(svc)
	})

	Describe("CreatePayment", func() {
		It("should return 401 without an authenticated user", func() {
			req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(`{}`))
			rec := httptest.NewRecorder()

			handler.CreatePayment(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should return 201 with the created payment", func() {
			svc.createFn = func(dto *payment.CreatePaymentDTO) (*payment.Payment, error) {
				return samplePayment, nil
			}

			body := `{"amount":"49.99","receiver":"Fresh Mart","method":"upi"}`
			req := withUser(httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body)))
			rec := httptest.NewRecorder()

			handler.CreatePayment(rec, req)

			Expect(rec.Code).To(Equal(http.StatusCreated))

			var got payment.Payment
			Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
			Expect(got.TransactionID).To(Equal("TXN-ABC"))
		})

		It("should return 400 on a malformed body", func() {
			req := withUser(httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(`{not json`)))
			rec := httptest.NewRecorder()

			handler.CreatePayment(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should propagate service validation errors with their status", func() {
			svc.createFn = func(dto *payment.CreatePaymentDTO) (*payment.Payment, error) {
				return nil, internal.NewValidationFieldError("amount", "amount must be greater than 0", internal.ErrCodeInvalidAmount)
			}

			body := `{"amount":"0","receiver":"Fresh Mart","method":"upi"}`
			req := withUser(httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body)))
			rec := httptest.NewRecorder()

			handler.CreatePayment(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("VALIDATION_ERROR"))
		})
	})

	Describe("ListPayments", func() {
		It("should pass pagination parameters through", func() {
			var gotPage, gotLimit int
			svc.listFn = func(f payment.Filter, page, limit int) (*payment.Page, error) {
				gotPage, gotLimit = page, limit
				return &payment.Page{Data: []*payment.Payment{}, Page: page, Limit: limit}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/payments?page=3&limit=20", nil)
			rec := httptest.NewRecorder()

			handler.ListPayments(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(gotPage).To(Equal(3))
			Expect(gotLimit).To(Equal(20))
		})

		It("should reject a non-integer page", func() {
			req := httptest.NewRequest(http.MethodGet, "/payments?page=abc", nil)
			rec := httptest.NewRecorder()

			handler.ListPayments(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject an invalid status filter before calling the service", func() {
			req := httptest.NewRequest(http.MethodGet, "/payments?status=refunded", nil)
			rec := httptest.NewRecorder()

			handler.ListPayments(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GetPayment", func() {
		It("should return 400 for a non-numeric id", func() {
			req := httptest.NewRequest(http.MethodGet, "/payments/abc", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "abc")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			handler.GetPayment(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 404 when the service reports not found", func() {
			svc.getFn = func(id int64) (*payment.Payment, error) {
				return nil, internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)
			}

			req := httptest.NewRequest(http.MethodGet, "/payments/42", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "42")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			handler.GetPayment(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Export", func() {
		It("should set CSV content type and attachment headers", func() {
			svc.exportFn = func(f payment.Filter) ([]byte, error) {
				return []byte("ID,Transaction ID\n"), nil
			}

			req := httptest.NewRequest(http.MethodGet, "/payments/export", nil)
			rec := httptest.NewRecorder()

			handler.Export(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("text/csv"))
			Expect(rec.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="payments.csv"`))
		})
	})

	Describe("GetStats", func() {
		It("should default the trend window to 7 days", func() {
			var gotDays int
			svc.statsFn = func(trendDays, recentLimit int) (*payment.DashboardStats, error) {
				gotDays = trendDays
				return &payment.DashboardStats{}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/payments/stats", nil)
			rec := httptest.NewRecorder()

			handler.GetStats(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(gotDays).To(Equal(7))
		})
	})
})
