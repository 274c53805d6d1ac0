package bankclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/vastrust/banking-client/internal/domain"
)

// loginData tolerates the backend's shifting login payload: the user id has
// been observed under data.user_id, data.id and data.user.id.
type loginData struct {
	UserID flexString `json:"user_id"`
	ID     flexString `json:"id"`
	User   struct {
		ID flexString `json:"id"`
	} `json:"user"`
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Login authenticates with email and password and returns the user id.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	data, err := c.do(ctx, "POST", "/login", "login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	var parsed loginData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode login data: %w", err)
	}
	switch {
	case parsed.UserID != "":
		return string(parsed.UserID), nil
	case parsed.ID != "":
		return string(parsed.ID), nil
	case parsed.User.ID != "":
		return string(parsed.User.ID), nil
	}
	return "", fmt.Errorf("login response carried no user id")
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	PhoneNumber     string `json:"phone_number"`
	BVN             string `json:"bvn"`
	Age             int    `json:"age,omitempty"`
	Occupation      string `json:"occupation,omitempty"`
	Address         string `json:"address,omitempty"`
	NOKFirstName    string `json:"nok_first_name,omitempty"`
	NOKLastName     string `json:"nok_last_name,omitempty"`
	NOKPhone        string `json:"nok_phone_number,omitempty"`
	NOKAddress      string `json:"nok_address,omitempty"`
}

// Register creates a new account and returns the new user id.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	data, err := c.do(ctx, "POST", "/register", "register", req)
	if err != nil {
		return "", err
	}
	var parsed loginData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode register data: %w", err)
	}
	if parsed.UserID != "" {
		return string(parsed.UserID), nil
	}
	return string(parsed.ID), nil
}

// ResendCode asks the backend to resend the email verification code.
func (c *Client) ResendCode(ctx context.Context, email string) error {
	_, err := c.do(ctx, "POST", "/resend-code", "resend_code", map[string]string{"email": email})
	return err
}

// VerifyEmail submits the 6-digit verification code for an email address.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	_, err := c.do(ctx, "POST", "/register-verify", "verify_email", map[string]string{
		"email": email,
		"code":  code,
	})
	return err
}

// RequestPasswordReset asks the backend to email a password-reset OTP.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := c.do(ctx, "POST", "/reset-password", "request_password_reset", map[string]string{"email": email})
	return err
}

// ConfirmPasswordReset completes a password reset with the emailed OTP.
func (c *Client) ConfirmPasswordReset(ctx context.Context, email, otp, newPassword, confirmPassword string) error {
	_, err := c.do(ctx, "POST", "/update-reset-password", "confirm_password_reset", map[string]string{
		"email":            email,
		"otp":              otp,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	})
	return err
}

// Profile fetches the profile snapshot for a user id.
func (c *Client) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	data, err := c.do(ctx, "GET", "/profile/"+url.PathEscape(userID), "profile", nil)
	if err != nil {
		return nil, err
	}
	var profile domain.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

type balanceData struct {
	Balance string `json:"balance"`
}

// Balance fetches the current balance for an account number. The balance is
// returned as the backend's raw string; formatting happens in txview.
func (c *Client) Balance(ctx context.Context, accountNumber string) (string, error) {
	data, err := c.do(ctx, "GET", "/balance/"+url.PathEscape(accountNumber), "balance", nil)
	if err != nil {
		return "", err
	}
	var parsed balanceData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode balance: %w", err)
	}
	return parsed.Balance, nil
}

// Transactions fetches one page of the account's transaction feed, preserving
// server order.
func (c *Client) Transactions(ctx context.Context, accountNumber string, page int) (*domain.TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	path := "/transactions/" + url.PathEscape(accountNumber) + "?page=" + strconv.Itoa(page)
	data, err := c.do(ctx, "GET", path, "transactions", nil)
	if err != nil {
		return nil, err
	}
	var parsed domain.TransactionPage
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	if parsed.Page == 0 {
		parsed.Page = page
	}
	return &parsed, nil
}

// Transfer submits a transfer on behalf of userID and returns the backend's
// success message. The transaction list is not updated optimistically; a
// fresh Transactions fetch is required to observe the new record.
func (c *Client) Transfer(ctx context.Context, userID string, transfer domain.PendingTransfer) (string, error) {
	payload := map[string]string{
		"user_id":      userID,
		"from_account": transfer.FromAccount,
		"to_account":   transfer.ToAccount,
		"amount":       transfer.Amount,
		"pin":          transfer.PIN,
	}
	if transfer.ExternalBank != "" {
		payload["external_bank"] = transfer.ExternalBank
	}
	if transfer.Note != "" {
		payload["note"] = transfer.Note
	}

	data, err := c.do(ctx, "POST", "/transfer/"+url.PathEscape(userID), "transfer", payload)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Message string `json:"message"`
	}
	// The success message may live on the data object or only on the envelope;
	// either way an empty message is fine.
	_ = json.Unmarshal(data, &parsed)
	if parsed.Message == "" {
		parsed.Message = "Transfer successful!"
	}
	return parsed.Message, nil
}

// SetupPIN sets the initial transaction PIN.
func (c *Client) SetupPIN(ctx context.Context, userID, pin, confirmPIN string) error {
	_, err := c.do(ctx, "POST", "/setup-pin/"+url.PathEscape(userID), "setup_pin", map[string]string{
		"pin":         pin,
		"confirm_pin": confirmPIN,
	})
	return err
}

// ChangePIN replaces the transaction PIN, authorized by the old one.
func (c *Client) ChangePIN(ctx context.Context, userID, oldPIN, newPIN, confirmPIN string) error {
	_, err := c.do(ctx, "POST", "/change-pin/"+url.PathEscape(userID), "change_pin", map[string]string{
		"old_pin":     oldPIN,
		"new_pin":     newPIN,
		"confirm_pin": confirmPIN,
	})
	return err
}

// RequestPINReset asks the backend to email a PIN-reset OTP.
func (c *Client) RequestPINReset(ctx context.Context, userID, email string) error {
	_, err := c.do(ctx, "POST", "/reset-pin/"+url.PathEscape(userID), "request_pin_reset", map[string]string{
		"email": email,
	})
	return err
}

// ConfirmPINReset completes a PIN reset with the emailed OTP.
func (c *Client) ConfirmPINReset(ctx context.Context, userID, otp, newPIN, confirmPIN string) error {
	_, err := c.do(ctx, "POST", "/update-reset-pin/"+url.PathEscape(userID), "confirm_pin_reset", map[string]string{
		"otp":         otp,
		"new_pin":     newPIN,
		"confirm_pin": confirmPIN,
	})
	return err
}

// ChangePassword replaces the login password, authorized by the old one.
func (c *Client) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	_, err := c.do(ctx, "PUT", "/change-password/"+url.PathEscape(userID), "change_password", map[string]string{
		"old_password":     oldPassword,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	})
	return err
}

// StepUpProof is a short-lived server-issued confirmation of the user's
// identity, used to unlock sensitive views without comparing secrets held in
// local storage.
type StepUpProof struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Reauthenticate performs a step-up authentication check: the backend
// verifies the password and returns a short-lived signed proof.
func (c *Client) Reauthenticate(ctx context.Context, userID, password string) (*StepUpProof, error) {
	data, err := c.do(ctx, "POST", "/reauth/"+url.PathEscape(userID), "reauthenticate", map[string]string{
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var proof StepUpProof
	if err := json.Unmarshal(data, &proof); err != nil {
		return nil, fmt.Errorf("failed to decode step-up proof: %w", err)
	}
	return &proof, nil
}
