/**
 * @description
 * This file contains the HTTP handlers for the mock bank backend. Every
 * response uses the backend's envelope: `{"status": "success"|"error",
 * "message": ..., "errors": {...}, "data": ...}` with field-level errors keyed
 * by form field name.
 */

package mockbank

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vastrust/banking-client/internal/domain"
)

type envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Data    any                 `json:"data,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, code int, status, message string, errs map[string][]string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{
		Status:  status,
		Message: message,
		Errors:  errs,
		Data:    data,
	})
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeEnvelope(w, http.StatusOK, "success", message, nil, data)
}

func writeError(w http.ResponseWriter, code int, message string, errs map[string][]string) {
	writeEnvelope(w, code, "error", message, errs, nil)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return false
	}
	return true
}

func newTransactionID() string {
	return uuid.NewString()
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	acct, ok := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.password, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.", nil)
		return
	}
	if !acct.verified {
		writeError(w, http.StatusForbidden, "Email not verified.", map[string][]string{
			"email": {"Verify your email before logging in."},
		})
		return
	}

	s.logger.Info("user logged in", zap.String("user_id", acct.profile.ID))
	writeSuccess(w, "Login successful.", map[string]string{"user_id": acct.profile.ID})
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		PhoneNumber     string `json:"phone_number"`
		BVN             string `json:"bvn"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	errs := map[string][]string{}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		errs["email"] = append(errs["email"], "A valid email is required.")
	}
	if len(req.Password) < 8 {
		errs["password"] = append(errs["password"], "Password must be at least 8 characters.")
	}
	if req.Password != req.ConfirmPassword {
		errs["confirm_password"] = append(errs["confirm_password"], "Passwords do not match.")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		errs["first_name"] = append(errs["first_name"], "First name is required.")
	}
	if strings.TrimSpace(req.LastName) == "" {
		errs["last_name"] = append(errs["last_name"], "Last name is required.")
	}
	if len(errs) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "Registration failed.", errs)
		return
	}

	s.mu.Lock()
	if _, exists := s.byEmail[req.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Registration failed.", map[string][]string{
			"email": {"Email already registered."},
		})
		return
	}
	s.mu.Unlock()

	userID, _, err := s.SeedUser(SeedUserSpec{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.PhoneNumber,
		BVN:       req.BVN,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account.", nil)
		return
	}

	s.logger.Info("user registered", zap.String("user_id", userID), zap.String("email", req.Email))
	writeEnvelope(w, http.StatusCreated, "success",
		"Registration successful. Check your email for a verification code.",
		nil, map[string]string{"user_id": userID})
}

func (s *Server) resendCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	_, ok := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "No account found for that email.", nil)
		return
	}
	writeSuccess(w, "A new verification code has been sent to your email.", nil)
}

func (s *Server) verifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok {
		writeError(w, http.StatusNotFound, "No account found for that email.", nil)
		return
	}
	if strings.TrimSpace(req.Code) != s.cfg.FixedOTP {
		writeError(w, http.StatusBadRequest, "Verification failed.", map[string][]string{
			"code": {"Invalid or expired code."},
		})
		return
	}
	acct.verified = true
	writeSuccess(w, "Email verified successfully.", nil)
}

func (s *Server) requestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	_, ok := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "No account found for that email.", nil)
		return
	}
	writeSuccess(w, "A password reset code has been sent to your email.", nil)
}

func (s *Server) confirmPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		OTP             string `json:"otp"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok {
		writeError(w, http.StatusNotFound, "No account found for that email.", nil)
		return
	}
	if strings.TrimSpace(req.OTP) != s.cfg.FixedOTP {
		writeError(w, http.StatusBadRequest, "Password reset failed.", map[string][]string{
			"otp": {"Invalid or expired OTP."},
		})
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "Password reset failed.", map[string][]string{
			"new_password": {"Password must be at least 8 characters."},
		})
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusUnprocessableEntity, "Password reset failed.", map[string][]string{
			"confirm_password": {"Passwords do not match."},
		})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update password.", nil)
		return
	}
	acct.password = hash
	writeSuccess(w, "Password reset successfully.", nil)
}

func (s *Server) lookupUser(w http.ResponseWriter, r *http.Request) (*account, bool) {
	userID := chi.URLParam(r, "userID")
	s.mu.Lock()
	acct, ok := s.byID[userID]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "User not found.", nil)
		return nil, false
	}
	return acct, true
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	profile := acct.profile
	profile.Balance = formatBalance(acct.balance)
	s.mu.Unlock()
	writeSuccess(w, "", profile)
}

func (s *Server) balanceHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")
	s.mu.Lock()
	acct, ok := s.byAccountNum[accountNumber]
	var balance string
	if ok {
		balance = formatBalance(acct.balance)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found.", nil)
		return
	}
	writeSuccess(w, "", map[string]string{"balance": balance})
}

func (s *Server) transactionsHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	s.mu.Lock()
	if _, ok := s.byAccountNum[accountNumber]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Account not found.", nil)
		return
	}
	all := s.transactions[accountNumber]
	// Newest first, as the backend serves the feed.
	ordered := make([]domain.Transaction, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		ordered = append(ordered, all[i])
	}
	s.mu.Unlock()

	start := (page - 1) * transactionsPageSize
	if start > len(ordered) {
		start = len(ordered)
	}
	end := start + transactionsPageSize
	if end > len(ordered) {
		end = len(ordered)
	}

	writeSuccess(w, "", domain.TransactionPage{
		Transactions: ordered[start:end],
		Page:         page,
	})
}

func (s *Server) transferHandler(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	var req struct {
		FromAccount  string `json:"from_account"`
		ToAccount    string `json:"to_account"`
		Amount       string `json:"amount"`
		PIN          string `json:"pin"`
		ExternalBank string `json:"external_bank"`
		Note         string `json:"note"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(req.Amount), 64)
	if err != nil || amount <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "Transfer failed.", map[string][]string{
			"amount": {"Amount must be a positive number."},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.FromAccount != acct.profile.AccountNumber {
		writeError(w, http.StatusForbidden, "Transfer failed.", map[string][]string{
			"from_account": {"Account does not belong to this user."},
		})
		return
	}
	if acct.pin == "" {
		writeError(w, http.StatusBadRequest, "Transfer failed.", map[string][]string{
			"pin": {"Set up a transaction PIN first."},
		})
		return
	}
	if req.PIN != acct.pin {
		writeError(w, http.StatusForbidden, "Transfer failed.", map[string][]string{
			"pin": {"Incorrect PIN."},
		})
		return
	}
	if amount > acct.balance {
		writeError(w, http.StatusUnprocessableEntity, "Transfer failed.", map[string][]string{
			"amount": {"Insufficient funds."},
		})
		return
	}

	receiver, internal := s.byAccountNum[req.ToAccount]
	if req.ExternalBank == "" && !internal {
		writeError(w, http.StatusNotFound, "Transfer failed.", map[string][]string{
			"to_account": {"Receiver account not found."},
		})
		return
	}

	acct.balance -= amount
	if internal {
		receiver.balance += amount
	}

	tx := domain.Transaction{
		ID:              newTransactionID(),
		SenderAccount:   req.FromAccount,
		ReceiverAccount: req.ToAccount,
		Amount:          formatBalance(amount),
		Description:     req.Note,
		Status:          "success",
		ExternalBank:    req.ExternalBank,
		CreatedAt:       s.now().Format(createdAtLayout),
	}
	s.appendTransactionLocked(tx)

	s.logger.Info("transfer completed",
		zap.String("transaction_id", tx.ID),
		zap.String("sender_account", tx.SenderAccount),
		zap.String("receiver_account", tx.ReceiverAccount),
	)
	writeSuccess(w, "Transfer successful!", tx)
}

func (s *Server) setupPINHandler(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	var req struct {
		PIN        string `json:"pin"`
		ConfirmPIN string `json:"confirm_pin"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validatePINPair(req.PIN, req.ConfirmPIN); errs != nil {
		writeError(w, http.StatusUnprocessableEntity, "PIN setup failed.", errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if acct.pin != "" {
		writeError(w, http.StatusConflict, "A transaction PIN is already set.", nil)
		return
	}
	acct.pin = req.PIN
	writeSuccess(w, "Transaction PIN set successfully.", nil)
}

func (s *Server) changePINHandler(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	var req struct {
		OldPIN     string `json:"old_pin"`
		NewPIN     string `json:"new_pin"`
		ConfirmPIN string `json:"confirm_pin"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validatePINPair(req.NewPIN, req.ConfirmPIN); errs != nil {
		writeError(w, http.StatusUnprocessableEntity, "PIN change failed.", errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if req.OldPIN != acct.pin {
		writeError(w, http.StatusForbidden, "PIN change failed.", map[string][]string{
			"old_pin": {"Incorrect PIN."},
		})
		return
	}
	acct.pin = req.NewPIN
	writeSuccess(w, "Transaction PIN changed successfully.", nil)
}

func (s *Server) requestPINResetHandler(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !strings.EqualFold(strings.TrimSpace(req.Email), acct.profile.Email) {
		writeError(w, http.StatusForbidden, "Email does not match this account.", nil)
		return
	}
	writeSuccess(w, "A PIN reset code has been sent to your email.", nil)
}

func (s *Server) confirmPINResetHandler(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	var req struct {
		OTP        string `json:"otp"`
		NewPIN     string `json:"new_pin"`
		ConfirmPIN string `json:"confirm_pin"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OTP) != s.cfg.FixedOTP {
		writeError(w, http.StatusBadRequest, "PIN reset failed.", map[string][]string{
			"otp": {"Invalid or expired OTP."},
		})
		return
	}
	if errs := validatePINPair(req.NewPIN, req.ConfirmPIN); errs != nil {
		writeError(w, http.StatusUnprocessableEntity, "PIN reset failed.", errs)
		return
	}

	s.mu.Lock()
	acct.pin = req.NewPIN
	s.mu.Unlock()
	writeSuccess(w, "Transaction PIN reset successfully.", nil)
}

func (s *Server) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	var req struct {
		OldPassword     string `json:"old_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bcrypt.CompareHashAndPassword(acct.password, []byte(req.OldPassword)) != nil {
		writeError(w, http.StatusForbidden, "Password change failed.", map[string][]string{
			"old_password": {"Incorrect password."},
		})
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "Password change failed.", map[string][]string{
			"new_password": {"Password must be at least 8 characters."},
		})
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusUnprocessableEntity, "Password change failed.", map[string][]string{
			"confirm_password": {"Passwords do not match."},
		})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update password.", nil)
		return
	}
	acct.password = hash
	writeSuccess(w, "Password changed successfully.", nil)
}

func (s *Server) reauthHandler(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if bcrypt.CompareHashAndPassword(acct.password, []byte(req.Password)) != nil {
		writeError(w, http.StatusForbidden, "Reauthentication failed.", map[string][]string{
			"password": {"Incorrect password."},
		})
		return
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.ProofTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   acct.profile.ID,
		"scope": "step-up",
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	})
	signed, err := token.SignedString(s.cfg.ProofSecret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue proof.", nil)
		return
	}

	writeSuccess(w, "Reauthentication successful.", map[string]any{
		"token":      signed,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

const pinDigits = "0123456789"

func validatePINPair(pin, confirm string) map[string][]string {
	if len(pin) != 4 || strings.Trim(pin, pinDigits) != "" {
		return map[string][]string{"pin": {"PIN must be exactly 4 digits."}}
	}
	if pin != confirm {
		return map[string][]string{"confirm_pin": {"PINs do not match."}}
	}
	return nil
}
