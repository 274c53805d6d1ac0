package domain

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Local validation failures for the transfer form. They are raised before
// any network call and displayed inline.
var (
	ErrTransferFieldsRequired = errors.New("domain: all transfer fields are required")
	ErrTransferPINFormat      = errors.New("domain: PIN must be exactly 4 digits")
	ErrTransferAmountInvalid  = errors.New("domain: amount must be a positive number")
)

var transferPINPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Validate applies the client-side checks the transfer form runs before
// submitting: all fields present, a well-formed 4-digit PIN, and a positive
// numeric amount.
func (t PendingTransfer) Validate() error {
	if strings.TrimSpace(t.FromAccount) == "" ||
		strings.TrimSpace(t.ToAccount) == "" ||
		strings.TrimSpace(t.Amount) == "" {
		return ErrTransferFieldsRequired
	}
	if !transferPINPattern.MatchString(strings.TrimSpace(t.PIN)) {
		return ErrTransferPINFormat
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(t.Amount), 64)
	if err != nil || amount <= 0 {
		return ErrTransferAmountInvalid
	}
	return nil
}
