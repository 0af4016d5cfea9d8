package payment

import (
	"github.com/shopspring/decimal"

	"github.com/paydash/payment-dashboard/internal"
)

// CreatePaymentDTO is the request payload for creating a payment. The
// transaction id is never part of it; the server generates one.
type CreatePaymentDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	Receiver    string          `json:"receiver"`
	Status      string          `json:"status"`
	Method      string          `json:"method"`
	Description string          `json:"description,omitempty"`
}

func (dto *CreatePaymentDTO) Validate() error {
	if dto.Amount.LessThanOrEqual(decimal.Zero) {
		return internal.NewValidationFieldError("amount", "amount must be greater than 0", internal.ErrCodeInvalidAmount)
	}
	if dto.Amount.Exponent() < -2 {
		return internal.NewValidationFieldError("amount", "amount must have at most 2 decimal places", internal.ErrCodeInvalidAmount)
	}
	if dto.Receiver == "" {
		return internal.NewValidationFieldError("receiver", "receiver is required", internal.ErrCodeInvalidReceiver)
	}
	if dto.Status == "" {
		dto.Status = StatusPending
	}
	if !ValidStatus(dto.Status) {
		return internal.NewValidationFieldError("status", "status must be one of success, pending, failed", internal.ErrCodeInvalidStatus)
	}
	if !ValidMethod(dto.Method) {
		return internal.NewValidationFieldError("method", "method must be one of upi, credit_card, debit_card, net_banking, wallet", internal.ErrCodeInvalidMethod)
	}
	return nil
}

// UpdateStatusDTO is the request payload for the status transition endpoint.
type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateStatusDTO) Validate() error {
	if !ValidStatus(dto.Status) {
		return internal.NewValidationFieldError("status", "status must be one of success, pending, failed", internal.ErrCodeInvalidStatus)
	}
	return nil
}

// Page is the list envelope returned by the paginated list endpoint.
type Page struct {
	Data       []*Payment `json:"data"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}
