package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/paydash/payment-dashboard/internal/payment"
)

// PaymentRepository implements the payment.Repository interface using GORM.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *payment.Payment) error {
	err := r.db.Create(p).Error
	if err != nil && isDuplicateErr(err) {
		return payment.ErrDuplicateTransactionID
	}
	return err
}

func (r *PaymentRepository) GetByID(id int64) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateStatus overwrites only the status and updated_at columns. Zero
// affected rows means the id does not exist.
func (r *PaymentRepository) UpdateStatus(id int64, status string, updatedAt time.Time) error {
	res := r.db.Model(&payment.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

// List returns one page of the filtered set ordered by created_at DESC with
// id DESC as the tiebreaker, so pagination is deterministic.
func (r *PaymentRepository) List(f payment.Filter, limit, offset int) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.filtered(f).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&payments).Error
	return payments, err
}

// ListAll materializes the entire filtered set, newest first. Used by the
// CSV export.
func (r *PaymentRepository) ListAll(f payment.Filter) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.filtered(f).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) Count(f payment.Filter) (int64, error) {
	var count int64
	err := r.filtered(f).Count(&count).Error
	return count, err
}

func (r *PaymentRepository) CountBetween(from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&payment.Payment{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error
	return count, err
}

func (r *PaymentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&payment.Payment{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *PaymentRepository) SumAmountByStatus(status string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.Model(&payment.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", status).
		Scan(&sum).Error
	return sum, err
}

func (r *PaymentRepository) StatusBreakdown() ([]payment.StatusBucket, error) {
	var buckets []payment.StatusBucket
	err := r.db.Model(&payment.Payment{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Group("status").
		Order("count DESC").
		Scan(&buckets).Error
	return buckets, err
}

func (r *PaymentRepository) MethodBreakdown() ([]payment.MethodBucket, error) {
	var buckets []payment.MethodBucket
	err := r.db.Model(&payment.Payment{}).
		Select("method, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("method").
		Order("count DESC").
		Scan(&buckets).Error
	return buckets, err
}

// MethodRevenue groups successful payments by method.
func (r *PaymentRepository) MethodRevenue() ([]payment.MethodRevenue, error) {
	var rows []payment.MethodRevenue
	err := r.db.Model(&payment.Payment{}).
		Select("method, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS revenue").
		Where("status = ?", payment.StatusSuccess).
		Group("method").
		Order("revenue DESC").
		Scan(&rows).Error
	return rows, err
}

// CreatedBetween fetches the raw rows of a time window; day and hour
// bucketing happens in the service so it behaves identically on every
// backend.
func (r *PaymentRepository) CreatedBetween(from, to time.Time) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.db.Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) ByStatus(status string) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.db.Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) Recent(limit int) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.db.Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) filtered(f payment.Filter) *gorm.DB {
	q := r.db.Model(&payment.Payment{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Method != "" {
		q = q.Where("method = ?", f.Method)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at < ?", *f.EndDate)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// isDuplicateErr recognizes unique constraint violations from both the
// postgres runtime and the sqlite test harness.
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
