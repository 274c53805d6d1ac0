/**
 * @description
 * This package turns a raw page of transaction records plus the viewer's own
 * account number into a render-ready, filterable, summarized view. It is pure
 * computation: no I/O, no stored state, so every screen derives its rows from
 * the same rules instead of re-implementing them.
 *
 * Classification is relative to the viewer: a record is a credit iff its
 * receiver account equals the viewer's account, a debit iff its sender
 * account does. Records matching neither are Unknown and must be rendered
 * neutrally, never defaulted to debit styling.
 */

package txview

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vastrust/banking-client/internal/domain"
)

// Direction classifies a transaction relative to the viewer's account.
type Direction int

const (
	Unknown Direction = iota
	Credit
	Debit
)

func (d Direction) String() string {
	switch d {
	case Credit:
		return "credit"
	case Debit:
		return "debit"
	}
	return "unknown"
}

// Classify returns Credit iff the receiver account equals viewerAccount,
// otherwise Debit iff the sender account does, otherwise Unknown. An empty
// viewer account classifies nothing.
func Classify(tx domain.Transaction, viewerAccount string) Direction {
	if viewerAccount == "" {
		return Unknown
	}
	if tx.ReceiverAccount == viewerAccount {
		return Credit
	}
	if tx.SenderAccount == viewerAccount {
		return Debit
	}
	return Unknown
}

// FilterByText keeps transactions whose description, sender account or
// receiver account contains query, case-insensitively. An empty or
// whitespace-only query matches everything. Source order is preserved, so the
// filter is idempotent.
func FilterByText(transactions []domain.Transaction, query string) []domain.Transaction {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]domain.Transaction(nil), transactions...)
	}

	filtered := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if strings.Contains(strings.ToLower(tx.Description), query) ||
			strings.Contains(strings.ToLower(tx.SenderAccount), query) ||
			strings.Contains(strings.ToLower(tx.ReceiverAccount), query) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

// Window bounds a recency filter.
type Window int

const (
	AllTime Window = iota
	Last7Days
	Last30Days
)

// Duration returns the window's span; zero means unbounded.
func (w Window) Duration() time.Duration {
	switch w {
	case Last7Days:
		return 7 * 24 * time.Hour
	case Last30Days:
		return 30 * 24 * time.Hour
	}
	return 0
}

// createdAtFormats are the timestamp shapes the backend has been observed to
// emit.
var createdAtFormats = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func parseCreatedAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range createdAtFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FilterByRecency keeps transactions whose elapsed age at `now` is within the
// window. The semantic is elapsed time, not calendar-day boundaries: a record
// created 7 days and one second ago is outside Last7Days even if it falls on
// the seventh calendar day. Records with unparsable timestamps are excluded
// from bounded windows and kept by AllTime.
func FilterByRecency(transactions []domain.Transaction, window Window, now time.Time) []domain.Transaction {
	if window == AllTime {
		return append([]domain.Transaction(nil), transactions...)
	}

	max := window.Duration()
	filtered := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		createdAt, ok := parseCreatedAt(tx.CreatedAt)
		if !ok {
			continue
		}
		if now.Sub(createdAt) <= max {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

// Summary holds the aggregate totals over a classified transaction list.
type Summary struct {
	TotalCredits float64
	TotalDebits  float64
}

// MalformedAmountError reports a transaction whose amount string cannot be
// parsed. Malformed server data is a reportable error, never coerced to zero.
type MalformedAmountError struct {
	TransactionID string
	Amount        string
}

func (e *MalformedAmountError) Error() string {
	return fmt.Sprintf("transaction %s has malformed amount %q", e.TransactionID, e.Amount)
}

// Summarize sums the absolute amounts of the viewer's credits and debits.
// Permuting the input does not change the totals.
func Summarize(transactions []domain.Transaction, viewerAccount string) (Summary, error) {
	var summary Summary
	for _, tx := range transactions {
		direction := Classify(tx, viewerAccount)
		if direction == Unknown {
			continue
		}
		amount, err := parseAmount(tx.Amount)
		if err != nil {
			return Summary{}, &MalformedAmountError{TransactionID: tx.ID, Amount: tx.Amount}
		}
		if amount < 0 {
			amount = -amount
		}
		if direction == Credit {
			summary.TotalCredits += amount
		} else {
			summary.TotalDebits += amount
		}
	}
	return summary, nil
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
