package flow

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Local validation failures. These are raised before any network call and
// displayed inline; they never reach the server.
var (
	ErrOTPFormat         = errors.New("flow: code must be 6 digits")
	ErrPINFormat         = errors.New("flow: PIN must be exactly 4 digits")
	ErrSecretRequired    = errors.New("flow: new value is required")
	ErrSecretMismatch    = errors.New("flow: values do not match")
	ErrInvalidTransition = errors.New("flow: invalid transition")
)

var (
	otpPattern = regexp.MustCompile(`^[0-9]{6}$`)
	pinPattern = regexp.MustCompile(`^[0-9]{4}$`)
)

// ValidateOTP checks the 6-digit code format.
func ValidateOTP(otp string) error {
	if !otpPattern.MatchString(strings.TrimSpace(otp)) {
		return ErrOTPFormat
	}
	return nil
}

// ValidatePIN checks the 4-digit transaction PIN format.
func ValidatePIN(pin string) error {
	if !pinPattern.MatchString(strings.TrimSpace(pin)) {
		return ErrPINFormat
	}
	return nil
}

// State is the explicit position of a multi-step secret reset. The modal
// flows (password reset, PIN reset) previously tracked this with ad hoc
// boolean flags; the tagged state makes illegal jumps impossible.
type State int

const (
	StateCollectingOTP State = iota
	StateCollectingNewSecret
	StateSubmitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCollectingOTP:
		return "collecting_otp"
	case StateCollectingNewSecret:
		return "collecting_new_secret"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	}
	return "failed"
}

// SecretKind selects the validation rules for the new secret.
type SecretKind int

const (
	SecretPassword SecretKind = iota
	SecretPIN
)

// ResetFlow drives a multi-step secret reset: collect the emailed OTP,
// collect the replacement secret, submit, then land on Done or Failed.
type ResetFlow struct {
	kind  SecretKind
	state State

	otp     string
	secret  string
	lastErr error
}

// NewPasswordReset starts a password reset at the OTP step.
func NewPasswordReset() *ResetFlow {
	return &ResetFlow{kind: SecretPassword, state: StateCollectingOTP}
}

// NewPINReset starts a PIN reset at the OTP step.
func NewPINReset() *ResetFlow {
	return &ResetFlow{kind: SecretPIN, state: StateCollectingOTP}
}

// State returns the current position.
func (f *ResetFlow) State() State { return f.state }

// OTP returns the collected code for the final submit call.
func (f *ResetFlow) OTP() string { return f.otp }

// Secret returns the collected replacement secret for the final submit call.
func (f *ResetFlow) Secret() string { return f.secret }

// Err returns the failure recorded by Fail.
func (f *ResetFlow) Err() error { return f.lastErr }

// SubmitOTP validates the code and advances to collecting the new secret.
func (f *ResetFlow) SubmitOTP(otp string) error {
	if f.state != StateCollectingOTP {
		return fmt.Errorf("%w: submit otp in %s", ErrInvalidTransition, f.state)
	}
	if err := ValidateOTP(otp); err != nil {
		return err
	}
	f.otp = strings.TrimSpace(otp)
	f.state = StateCollectingNewSecret
	return nil
}

// SubmitNewSecret validates the replacement secret and its confirmation and
// advances to Submitting. The caller then performs the network call and
// finishes with Complete or Fail.
func (f *ResetFlow) SubmitNewSecret(secret, confirm string) error {
	if f.state != StateCollectingNewSecret {
		return fmt.Errorf("%w: submit secret in %s", ErrInvalidTransition, f.state)
	}
	switch f.kind {
	case SecretPIN:
		if err := ValidatePIN(secret); err != nil {
			return err
		}
	default:
		if strings.TrimSpace(secret) == "" {
			return ErrSecretRequired
		}
	}
	if secret != confirm {
		return ErrSecretMismatch
	}
	f.secret = secret
	f.state = StateSubmitting
	return nil
}

// Complete marks the submission as accepted.
func (f *ResetFlow) Complete() error {
	if f.state != StateSubmitting {
		return fmt.Errorf("%w: complete in %s", ErrInvalidTransition, f.state)
	}
	f.state = StateDone
	return nil
}

// Fail records the submission failure.
func (f *ResetFlow) Fail(err error) error {
	if f.state != StateSubmitting {
		return fmt.Errorf("%w: fail in %s", ErrInvalidTransition, f.state)
	}
	f.lastErr = err
	f.state = StateFailed
	return nil
}

// Retry returns a failed flow to the new-secret step for another attempt.
// The already-validated OTP is kept.
func (f *ResetFlow) Retry() error {
	if f.state != StateFailed {
		return fmt.Errorf("%w: retry in %s", ErrInvalidTransition, f.state)
	}
	f.lastErr = nil
	f.secret = ""
	f.state = StateCollectingNewSecret
	return nil
}
