package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/paydash/payment-dashboard/internal/auth"
	"github.com/paydash/payment-dashboard/internal/transport"
	"github.com/paydash/payment-dashboard/pkg/logger"
)

type ServiceAPI interface {
	CreatePayment(dto *CreatePaymentDTO) (*Payment, error)
	GetPayment(id int64) (*Payment, error)
	ListPayments(f Filter, page, limit int) (*Page, error)
	UpdateStatus(id int64, dto UpdateStatusDTO) (*Payment, error)
	ExportCSV(f Filter) ([]byte, error)
	GetStats(trendDays, recentLimit int) (*DashboardStats, error)
	GetQuickStats() (*QuickStats, error)
	GetRevenueByMethod() ([]MethodRevenue, error)
	GetHourlyDistribution() ([]HourBucket, error)
	GetSuccessRateTrend(days int) ([]RatePoint, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreatePayment: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreatePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreatePayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.CreatePayment(&dto)
	if err != nil {
		h.Logger.Error("CreatePayment: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreatePayment: payment created",
		"payment_id", p.ID,
		"transaction_id", p.TransactionID,
		"user_id", user.ID)

	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	f, err := FilterFromQuery(r.URL.Query())
	if err != nil {
		h.Logger.Error("ListPayments: invalid filter", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	page, ok := queryInt(r, "page", 1)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	limit, ok := queryInt(r, "limit", DefaultLimit)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	result, err := h.Service.ListPayments(f, page, limit)
	if err != nil {
		h.Logger.Error("ListPayments: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.Logger.Error("GetPayment: invalid payment ID", "id", chi.URLParam(r, "id"))
		h.WriteError(w, http.StatusBadRequest, "invalid payment ID")
		return
	}

	p, err := h.Service.GetPayment(id)
	if err != nil {
		h.Logger.Error("GetPayment: service error", "error", err, "payment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.Logger.Error("UpdateStatus: invalid payment ID", "id", chi.URLParam(r, "id"))
		h.WriteError(w, http.StatusBadRequest, "invalid payment ID")
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.UpdateStatus(id, dto)
	if err != nil {
		h.Logger.Error("UpdateStatus: service error", "error", err, "payment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := FilterFromQuery(r.URL.Query())
	if err != nil {
		h.Logger.Error("Export: invalid filter", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	data, err := h.Service.ExportCSV(f)
	if err != nil {
		h.Logger.Error("Export: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Error("Export: failed to write response", "error", err)
	}
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(r, "days", DefaultTrendDays)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "days must be an integer")
		return
	}

	stats, err := h.Service.GetStats(days, DefaultRecentLimit)
	if err != nil {
		h.Logger.Error("GetStats: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetQuickStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetQuickStats()
	if err != nil {
		h.Logger.Error("GetQuickStats: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) RevenueByMethod(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.GetRevenueByMethod()
	if err != nil {
		h.Logger.Error("RevenueByMethod: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) HourlyDistribution(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.GetHourlyDistribution()
	if err != nil {
		h.Logger.Error("HourlyDistribution: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) SuccessRateTrend(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(r, "days", DefaultTrendDays)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "days must be an integer")
		return
	}

	rows, err := h.Service.GetSuccessRateTrend(days)
	if err != nil {
		h.Logger.Error("SuccessRateTrend: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rows)
}

// queryInt reads an integer query parameter; ok is false only when the
// value is present and not an integer. Range checks belong to the service.
func queryInt(r *http.Request, name string, defaultVal int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
