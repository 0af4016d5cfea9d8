package payment

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paydash/payment-dashboard/internal"
)

// Repository defines the data access methods for payments. Aggregate reads
// always hit the store; nothing is cached between calls.
type Repository interface {
	Create(p *Payment) error
	GetByID(id int64) (*Payment, error)
	UpdateStatus(id int64, status string, updatedAt time.Time) error
	List(f Filter, limit, offset int) ([]*Payment, error)
	ListAll(f Filter) ([]*Payment, error)
	Count(f Filter) (int64, error)
	CountBetween(from, to time.Time) (int64, error)
	CountByStatus(status string) (int64, error)
	SumAmountByStatus(status string) (decimal.Decimal, error)
	StatusBreakdown() ([]StatusBucket, error)
	MethodBreakdown() ([]MethodBucket, error)
	MethodRevenue() ([]MethodRevenue, error)
	CreatedBetween(from, to time.Time) ([]*Payment, error)
	ByStatus(status string) ([]*Payment, error)
	Recent(limit int) ([]*Payment, error)
}

// Service handles payment business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger

	// Now is the clock used for createdAt/updatedAt and for day/hour
	// bucketing; tests pin it to a fixed instant.
	Now func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		Now:    time.Now,
	}
}

// DefaultLimit is the page size used when the caller does not supply one.
const DefaultLimit = 10

// CreatePayment stores a new payment with a server-generated transaction id.
// On a transaction id collision the insert is retried once with a fresh id
// before a conflict is surfaced.
func (s *Service) CreatePayment(dto *CreatePaymentDTO) (*Payment, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("payment validation failed", "error", err)
		return nil, err
	}

	now := s.Now().UTC()
	p := &Payment{
		TransactionID: newTransactionID(),
		Amount:        dto.Amount.Round(2),
		Receiver:      dto.Receiver,
		Status:        dto.Status,
		Method:        dto.Method,
		Description:   dto.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.repo.Create(p)
	if errors.Is(err, ErrDuplicateTransactionID) {
		s.logger.Warn("transaction id collision, regenerating", "transaction_id", p.TransactionID)
		p.TransactionID = newTransactionID()
		err = s.repo.Create(p)
		if errors.Is(err, ErrDuplicateTransactionID) {
			return nil, internal.NewConflictError("transaction id already exists", internal.ErrCodeDuplicateTxn)
		}
	}
	if err != nil {
		s.logger.Error("failed to create payment", "error", err)
		return nil, internal.NewUnavailableError("payment store unreachable", err)
	}

	s.logger.Info("payment created",
		"payment_id", p.ID,
		"transaction_id", p.TransactionID,
		"amount", p.Amount.StringFixed(2),
		"method", p.Method,
		"status", p.Status)

	return p, nil
}

// GetPayment retrieves a single payment by id.
func (s *Service) GetPayment(id int64) (*Payment, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)
		}
		s.logger.Error("failed to get payment", "error", err, "payment_id", id)
		return nil, internal.NewUnavailableError("payment store unreachable", err)
	}
	return p, nil
}

// ListPayments returns one page of the filtered set, newest first, together
// with the total match count over the same filter.
func (s *Service) ListPayments(f Filter, page, limit int) (*Page, error) {
	if page < 1 {
		return nil, internal.NewInvalidArgumentError("page must be >= 1", internal.ErrCodeInvalidPage)
	}
	if limit < 1 {
		return nil, internal.NewInvalidArgumentError("limit must be >= 1", internal.ErrCodeInvalidLimit)
	}

	total, err := s.repo.Count(f)
	if err != nil {
		s.logger.Error("failed to count payments", "error", err)
		return nil, internal.NewUnavailableError("payment store unreachable", err)
	}

	items, err := s.repo.List(f, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("failed to list payments", "error", err)
		return nil, internal.NewUnavailableError("payment store unreachable", err)
	}
	if items == nil {
		items = []*Payment{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &Page{
		Data:       items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// UpdateStatus overwrites the status of an existing payment and refreshes
// updated_at. Any status may transition to any other, including itself;
// updated_at still advances on a self-transition. Last write wins under
// concurrent updates.
func (s *Service) UpdateStatus(id int64, dto UpdateStatusDTO) (*Payment, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("status update validation failed", "error", err, "payment_id", id)
		return nil, err
	}

	p, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)
		}
		s.logger.Error("failed to load payment for status update", "error", err, "payment_id", id)
		return nil, internal.NewUnavailableError("payment store unreachable", err)
	}

	now := s.Now().UTC()
	if err := s.repo.UpdateStatus(id, dto.Status, now); err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)
		}
		s.logger.Error("failed to update payment status", "error", err, "payment_id", id)
		return nil, internal.NewUnavailableError("payment store unreachable", err)
	}

	s.logger.Info("payment status updated",
		"payment_id", id,
		"from", p.Status,
		"to", dto.Status)

	p.Status = dto.Status
	p.UpdatedAt = now
	return p, nil
}

func newTransactionID() string {
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
