/**
 * @description
 * This file defines the core domain models shared by the banking client.
 * These structs mirror the JSON payloads returned by the bank's HTTP API,
 * so field names follow the backend's snake_case contract.
 *
 * @notes
 * - Amounts arrive from the backend serialized as strings. They are kept as
 *   strings on the wire model and parsed exactly once, at the point where
 *   arithmetic is required (see internal/txview), so that malformed server
 *   data can be reported instead of silently coerced.
 */

package domain

// Transaction is a single ledger record as returned by the transactions
// endpoint. Records are immutable once fetched; submitting a transfer does not
// update any local list, a fresh fetch is required to observe the new record.
type Transaction struct {
	ID              string `json:"id"`
	SenderAccount   string `json:"sender_account"`
	ReceiverAccount string `json:"receiver_account"`
	Amount          string `json:"amount"`
	Description     string `json:"description"`
	Status          string `json:"status"`
	ExternalBank    string `json:"external_bank,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// TransactionPage is one page of the paginated transactions feed, in the
// order the server returned it. No client-side re-sort is applied.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page"`
}

// PendingTransfer is the DTO for a transfer form submission. It is ephemeral:
// it exists only for the duration of the request and is never persisted.
type PendingTransfer struct {
	FromAccount  string `json:"from_account"`
	ToAccount    string `json:"to_account"`
	Amount       string `json:"amount"`
	PIN          string `json:"pin"`
	ExternalBank string `json:"external_bank,omitempty"`
	Note         string `json:"note,omitempty"`
}
