package payment

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydash/payment-dashboard/internal"
)

// Filter narrows the payment set. Zero-value fields impose no constraint.
// The same Filter value feeds the paginated list, the aggregate count and
// the CSV export, so all three views of one request agree.
type Filter struct {
	Status    string
	Method    string
	StartDate *time.Time
	EndDate   *time.Time // exclusive upper bound, already advanced past end-of-day
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

const dateLayout = "2006-01-02"

// FilterFromQuery builds a Filter from request query parameters. Enum values
// are rejected here, before any query runs. An endDate of 2024-03-01 matches
// records created through the whole of that day.
func FilterFromQuery(values url.Values) (Filter, error) {
	var f Filter

	if status := values.Get("status"); status != "" {
		if !ValidStatus(status) {
			return Filter{}, internal.NewValidationFieldError("status", "status must be one of success, pending, failed", internal.ErrCodeInvalidStatus)
		}
		f.Status = status
	}

	if method := values.Get("method"); method != "" {
		if !ValidMethod(method) {
			return Filter{}, internal.NewValidationFieldError("method", "method must be one of upi, credit_card, debit_card, net_banking, wallet", internal.ErrCodeInvalidMethod)
		}
		f.Method = method
	}

	if raw := values.Get("startDate"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return Filter{}, internal.NewValidationFieldError("startDate", "startDate must be formatted as YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
		f.StartDate = &t
	}

	if raw := values.Get("endDate"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return Filter{}, internal.NewValidationFieldError("endDate", "endDate must be formatted as YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
		end := t.AddDate(0, 0, 1)
		f.EndDate = &end
	}

	if raw := values.Get("minAmount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Filter{}, internal.NewValidationFieldError("minAmount", "minAmount must be a decimal number", internal.ErrCodeInvalidAmount)
		}
		f.MinAmount = &d
	}

	if raw := values.Get("maxAmount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Filter{}, internal.NewValidationFieldError("maxAmount", "maxAmount must be a decimal number", internal.ErrCodeInvalidAmount)
		}
		f.MaxAmount = &d
	}

	return f, nil
}
