package txview

import "github.com/vastrust/banking-client/internal/domain"

// Icon and tone names understood by the front ends. They mirror the feather
// icon set the mobile client renders with.
const (
	IconInbound  = "arrow-down-left"
	IconOutbound = "arrow-up-right"
	IconNeutral  = "repeat"

	ToneSuccess = "success"
	ToneError   = "error"
	ToneNeutral = "neutral"
)

// Row is the render-ready presentation of a single transaction. Everything is
// derived from Classify; a Credit renders with a positive sign and the
// inbound icon, a Debit with a negative sign and the outbound icon, and an
// Unknown record gets an explicit neutral rendering.
type Row struct {
	Direction    Direction
	Title        string
	Counterparty string
	Sign         string
	Icon         string
	Tone         string
	AmountLabel  string
	Status       string
	CreatedAt    string
}

// PresentationRow derives the row for tx as seen by viewerAccount.
func PresentationRow(tx domain.Transaction, viewerAccount string) Row {
	direction := Classify(tx, viewerAccount)

	row := Row{
		Direction: direction,
		Status:    tx.Status,
		CreatedAt: tx.CreatedAt,
	}

	switch direction {
	case Credit:
		row.Counterparty = tx.SenderAccount
		row.Sign = "+"
		row.Icon = IconInbound
		row.Tone = ToneSuccess
	case Debit:
		row.Counterparty = tx.ReceiverAccount
		row.Sign = "-"
		row.Icon = IconOutbound
		row.Tone = ToneError
	default:
		row.Sign = ""
		row.Icon = IconNeutral
		row.Tone = ToneNeutral
	}

	row.Title = tx.Description
	if row.Title == "" {
		switch direction {
		case Credit:
			row.Title = "From " + row.Counterparty
		case Debit:
			row.Title = "To " + row.Counterparty
		default:
			row.Title = "Transaction"
		}
	}

	row.AmountLabel = row.Sign + FormatNaira(tx.Amount)
	return row
}

// ViewState distinguishes the transaction list's render states. Empty and
// Failed are distinct: "no transactions" is not "error fetching".
type ViewState int

const (
	StateLoading ViewState = iota
	StateFailed
	StateEmpty
	StateReady
)

func (s ViewState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateFailed:
		return "failed"
	case StateEmpty:
		return "empty"
	}
	return "ready"
}

// StateFor maps a completed fetch to its view state.
func StateFor(err error, transactions []domain.Transaction) ViewState {
	if err != nil {
		return StateFailed
	}
	if len(transactions) == 0 {
		return StateEmpty
	}
	return StateReady
}
