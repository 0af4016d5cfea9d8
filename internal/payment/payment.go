package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one tracked payment event. Status is the only mutable field
// after creation; every mutation refreshes UpdatedAt.
type Payment struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	TransactionID string          `json:"transactionId" gorm:"column:transaction_id;not null;uniqueIndex"`
	Amount        decimal.Decimal `json:"amount" gorm:"column:amount;type:decimal(12,2);not null"`
	Receiver      string          `json:"receiver" gorm:"column:receiver;not null"`
	Status        string          `json:"status" gorm:"column:status;default:pending"`
	Method        string          `json:"method" gorm:"column:method;not null"`
	Description   string          `json:"description,omitempty" gorm:"column:description"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" gorm:"column:updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

const (
	StatusSuccess = "success"
	StatusPending = "pending"
	StatusFailed  = "failed"
)

const (
	MethodUPI        = "upi"
	MethodCreditCard = "credit_card"
	MethodDebitCard  = "debit_card"
	MethodNetBanking = "net_banking"
	MethodWallet     = "wallet"
)

var Statuses = []string{StatusSuccess, StatusPending, StatusFailed}

var Methods = []string{MethodUPI, MethodCreditCard, MethodDebitCard, MethodNetBanking, MethodWallet}

func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

func ValidMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Domain errors, mapped to the HTTP error taxonomy by the service layer.
var (
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")
)
