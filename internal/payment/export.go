package payment

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/paydash/payment-dashboard/internal"
)

var csvHeader = []string{"ID", "Transaction ID", "Amount", "Status", "Method", "Receiver", "Created At", "Updated At"}

// ExportCSV renders the full filtered set as CSV, newest first. The whole
// result is materialized before formatting. Fields are quoted per RFC 4180,
// so receivers containing commas survive a round trip.
func (s *Service) ExportCSV(f Filter) ([]byte, error) {
	rows, err := s.repo.ListAll(f)
	if err != nil {
		s.logger.Error("failed to load payments for export", "error", err)
		return nil, internal.NewUnavailableError("payment store unreachable", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, internal.NewInternalError("failed to write csv header", err)
	}
	for _, p := range rows {
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.TransactionID,
			p.Amount.StringFixed(2),
			p.Status,
			p.Method,
			p.Receiver,
			p.CreatedAt.UTC().Format(time.RFC3339),
			p.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, internal.NewInternalError("failed to write csv row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, internal.NewInternalError("failed to flush csv", err)
	}

	s.logger.Info("payments exported", "rows", len(rows))
	return buf.Bytes(), nil
}
