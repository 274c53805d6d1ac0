package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingTransferValidate(t *testing.T) {
	valid := PendingTransfer{
		FromAccount: "1188036538",
		ToAccount:   "9990001111",
		Amount:      "1200.00",
		PIN:         "1234",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*PendingTransfer)
		want   error
	}{
		{"missing from account", func(p *PendingTransfer) { p.FromAccount = " " }, ErrTransferFieldsRequired},
		{"missing to account", func(p *PendingTransfer) { p.ToAccount = "" }, ErrTransferFieldsRequired},
		{"missing amount", func(p *PendingTransfer) { p.Amount = "" }, ErrTransferFieldsRequired},
		{"short pin", func(p *PendingTransfer) { p.PIN = "123" }, ErrTransferPINFormat},
		{"alpha pin", func(p *PendingTransfer) { p.PIN = "12a4" }, ErrTransferPINFormat},
		{"zero amount", func(p *PendingTransfer) { p.Amount = "0" }, ErrTransferAmountInvalid},
		{"negative amount", func(p *PendingTransfer) { p.Amount = "-5" }, ErrTransferAmountInvalid},
		{"non-numeric amount", func(p *PendingTransfer) { p.Amount = "ten" }, ErrTransferAmountInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), tt.want)
		})
	}
}
