/**
 * @description
 * This package implements the bank backend's HTTP contract in-process, for
 * development and end-to-end tests. It mirrors the production API surface:
 * Basic-Auth protected endpoints returning `{status, message, errors, data}`
 * envelopes, with account state held in memory behind a mutex.
 *
 * Key features:
 * - bcrypt-hashed passwords; the fixed OTP code makes verification flows
 *   deterministic in tests.
 * - Transfers debit and credit balances atomically and append immutable
 *   transaction records.
 * - Step-up reauthentication mints short-lived HMAC-signed JWT proofs.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: HTTP routing.
 * - github.com/golang-jwt/jwt/v5: Step-up proof tokens.
 * - github.com/google/uuid: Transaction ids.
 * - golang.org/x/crypto/bcrypt: Password hashing.
 */

package mockbank

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/vastrust/banking-client/internal/domain"
	"github.com/vastrust/banking-client/internal/logging"
)

const createdAtLayout = "2006-01-02 15:04:05"

// transactionsPageSize matches the backend's pagination.
const transactionsPageSize = 10

// Config holds the mock backend settings.
type Config struct {
	// BasicUser and BasicPass guard every endpoint, mirroring the shared
	// Basic-Auth credential the real backend expects.
	BasicUser string
	BasicPass string

	// ProofSecret signs step-up proof tokens.
	ProofSecret []byte
	// ProofTTL bounds the life of a step-up proof. Zero uses 5 minutes.
	ProofTTL time.Duration

	// FixedOTP is accepted for every verification and reset flow. Zero value
	// uses "123456".
	FixedOTP string
}

type account struct {
	profile  domain.Profile
	password []byte
	pin      string
	verified bool
	balance  float64
}

// Server is the in-memory bank backend.
type Server struct {
	cfg    Config
	logger *logging.Logger
	now    func() time.Time

	mu           sync.Mutex
	byID         map[string]*account
	byEmail      map[string]*account
	byAccountNum map[string]*account
	transactions map[string][]domain.Transaction
	nextID       int
	nextAccount  int64
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = l.Named("mockbank") }
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates an empty mock backend.
func NewServer(cfg Config, opts ...Option) *Server {
	if cfg.ProofTTL == 0 {
		cfg.ProofTTL = 5 * time.Minute
	}
	if cfg.FixedOTP == "" {
		cfg.FixedOTP = "123456"
	}
	if len(cfg.ProofSecret) == 0 {
		cfg.ProofSecret = []byte("mockbank-dev-secret")
	}

	s := &Server{
		cfg:          cfg,
		logger:       logging.NewNoOpLogger(),
		now:          time.Now,
		byID:         make(map[string]*account),
		byEmail:      make(map[string]*account),
		byAccountNum: make(map[string]*account),
		transactions: make(map[string][]domain.Transaction),
		nextID:       41,
		nextAccount:  1188036538,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler with the full endpoint surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.basicAuthMiddleware)

		r.Post("/login", s.loginHandler)
		r.Post("/register", s.registerHandler)
		r.Post("/resend-code", s.resendCodeHandler)
		r.Post("/register-verify", s.verifyEmailHandler)
		r.Post("/reset-password", s.requestPasswordResetHandler)
		r.Post("/update-reset-password", s.confirmPasswordResetHandler)

		r.Get("/profile/{userID}", s.profileHandler)
		r.Get("/balance/{accountNumber}", s.balanceHandler)
		r.Get("/transactions/{accountNumber}", s.transactionsHandler)
		r.Post("/transfer/{userID}", s.transferHandler)

		r.Post("/setup-pin/{userID}", s.setupPINHandler)
		r.Post("/change-pin/{userID}", s.changePINHandler)
		r.Post("/reset-pin/{userID}", s.requestPINResetHandler)
		r.Post("/update-reset-pin/{userID}", s.confirmPINResetHandler)
		r.Put("/change-password/{userID}", s.changePasswordHandler)

		r.Post("/reauth/{userID}", s.reauthHandler)
	})

	return r
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.cfg.BasicUser || pass != s.cfg.BasicPass {
			writeEnvelope(w, http.StatusUnauthorized, "error", "Invalid API credentials.", nil, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SeedUserSpec describes an account to create directly, bypassing the
// registration flow. Used by tests and the dev server.
type SeedUserSpec struct {
	Email     string
	Password  string
	PIN       string
	FirstName string
	LastName  string
	Phone     string
	BVN       string
	Balance   float64
	Verified  bool
}

// SeedUser creates an account and returns its user id and account number.
func (s *Server) SeedUser(spec SeedUserSpec) (userID, accountNumber string, err error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(spec.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash seed password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[spec.Email]; exists {
		return "", "", fmt.Errorf("email %s already seeded", spec.Email)
	}

	userID = strconv.Itoa(s.nextID)
	s.nextID++
	accountNumber = strconv.FormatInt(s.nextAccount, 10)
	s.nextAccount++

	acct := &account{
		profile: domain.Profile{
			ID:            userID,
			Email:         spec.Email,
			FirstName:     spec.FirstName,
			LastName:      spec.LastName,
			AccountNumber: accountNumber,
			PhoneNumber:   spec.Phone,
			BVN:           spec.BVN,
			Role:          "customer",
			CreatedAt:     s.now().Format(createdAtLayout),
		},
		password: hash,
		pin:      spec.PIN,
		verified: spec.Verified,
		balance:  spec.Balance,
	}
	acct.profile.Balance = formatBalance(acct.balance)

	s.byID[userID] = acct
	s.byEmail[spec.Email] = acct
	s.byAccountNum[accountNumber] = acct
	return userID, accountNumber, nil
}

// SeedTransaction appends a transaction record visible to both accounts.
func (s *Server) SeedTransaction(tx domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = newTransactionID()
	}
	if tx.CreatedAt == "" {
		tx.CreatedAt = s.now().Format(createdAtLayout)
	}
	s.appendTransactionLocked(tx)
}

func (s *Server) appendTransactionLocked(tx domain.Transaction) {
	for _, acctNum := range []string{tx.SenderAccount, tx.ReceiverAccount} {
		if acctNum == "" {
			continue
		}
		s.transactions[acctNum] = append(s.transactions[acctNum], tx)
	}
}

func formatBalance(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
