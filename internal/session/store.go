/**
 * @description
 * This file contains the session store: the single source of truth for "who
 * is logged in" and "their last known profile", surviving app restarts via an
 * injected KeyValueStore.
 *
 * Key features:
 * - One refresh entry point replaces the per-screen fetch-and-overwrite
 *   pattern; concurrent refreshes cannot interleave destructively because
 *   every commit is guarded by a generation counter (a response that raced
 *   with a newer committed write is discarded rather than applied).
 * - The offline-tolerant read path: Snapshot serves the cached profile with a
 *   stale marker when the network fetch fails, instead of a blank screen.
 * - Screens subscribe to the store and re-render on committed writes instead
 *   of racing private fetches.
 *
 * @dependencies
 * - internal/store: Injected persistence capability.
 * - internal/logging, internal/metrics: Observability.
 */

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vastrust/banking-client/internal/domain"
	"github.com/vastrust/banking-client/internal/logging"
	"github.com/vastrust/banking-client/internal/metrics"
	"github.com/vastrust/banking-client/internal/store"
)

// ErrNotAuthenticated is returned when no user id is cached. It is fatal for
// the current screen only; callers surface it inline and instruct re-login.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// ErrNoSnapshot is returned when no profile snapshot has ever been cached.
var ErrNoSnapshot = errors.New("session: no cached profile")

// ProfileFetcher is the slice of the bank client the session store needs.
type ProfileFetcher interface {
	Profile(ctx context.Context, userID string) (*domain.Profile, error)
}

// Snapshot is the result of a profile read. Stale is true when the profile
// came from the local cache because the network fetch failed; FetchErr then
// carries the failure for the "offline, showing last saved data" indicator.
type Snapshot struct {
	Profile  *domain.Profile
	Stale    bool
	FetchErr error
}

// Store is the process-wide session slot.
type Store struct {
	kv      store.KeyValueStore
	fetcher ProfileFetcher
	logger  *logging.Logger
	metrics *metrics.Collector

	mu         sync.Mutex
	generation uint64

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.logger = l.Named("session") }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a session store over the given persistence and fetcher.
func NewStore(kv store.KeyValueStore, fetcher ProfileFetcher, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		fetcher: fetcher,
		logger:  logging.NewNoOpLogger(),
		subs:    make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserID returns the cached user id, or ErrNotAuthenticated.
func (s *Store) UserID(ctx context.Context) (string, error) {
	id, err := s.kv.Get(ctx, store.KeyUserID)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.CacheMiss(store.KeyUserID)
		return "", ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("failed to read user id: %w", err)
	}
	s.metrics.CacheHit(store.KeyUserID)
	return id, nil
}

// SetUserID persists the user id, unconditionally overwriting any prior value.
func (s *Store) SetUserID(ctx context.Context, id string) error {
	if err := s.kv.Set(ctx, store.KeyUserID, id); err != nil {
		return fmt.Errorf("failed to persist user id: %w", err)
	}
	s.notify()
	return nil
}

// Profile returns the last persisted profile snapshot, or ErrNoSnapshot.
func (s *Store) Profile(ctx context.Context) (*domain.Profile, error) {
	raw, err := s.kv.Get(ctx, store.KeyProfile)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.CacheMiss(store.KeyProfile)
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile snapshot: %w", err)
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		// A corrupt snapshot is treated as absent rather than poisoning every
		// screen that reads it.
		s.logger.Warn("discarding corrupt profile snapshot", zap.Error(err))
		s.metrics.CacheMiss(store.KeyProfile)
		return nil, ErrNoSnapshot
	}
	s.metrics.CacheHit(store.KeyProfile)
	return &profile, nil
}

// SetProfile serializes and persists the full profile snapshot, overwriting
// the prior one.
func (s *Store) SetProfile(ctx context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitProfile(ctx, profile)
}

// commitProfile persists the snapshot and bumps the generation. Callers hold mu.
func (s *Store) commitProfile(ctx context.Context, profile *domain.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyProfile, string(raw)); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	s.generation++
	s.notify()
	return nil
}

// Password returns the cached login password. Retained for compatibility with
// the legacy storage layout; the reveal gate no longer reads it.
func (s *Store) Password(ctx context.Context) (string, error) {
	pw, err := s.kv.Get(ctx, store.KeyPassword)
	if errors.Is(err, store.ErrNotFound) {
		return "", store.ErrNotFound
	}
	return pw, err
}

// SetPassword caches the login password.
func (s *Store) SetPassword(ctx context.Context, password string) error {
	return s.kv.Set(ctx, store.KeyPassword, password)
}

// VerifyEmail returns the email address pending verification.
func (s *Store) VerifyEmail(ctx context.Context) (string, error) {
	return s.kv.Get(ctx, store.KeyVerifyEmail)
}

// SetVerifyEmail records the email address pending verification.
func (s *Store) SetVerifyEmail(ctx context.Context, email string) error {
	return s.kv.Set(ctx, store.KeyVerifyEmail, email)
}

// Refresh is the single profile-refresh entry point: it fetches the profile
// for the cached user id and commits it. If a newer snapshot was committed
// while the fetch was in flight, the fetched (now stale) response is
// discarded and the newer snapshot is returned instead.
func (s *Store) Refresh(ctx context.Context) (*domain.Profile, error) {
	userID, err := s.UserID(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	startGen := s.generation
	s.mu.Unlock()

	profile, err := s.fetcher.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != startGen {
		s.logger.Debug("discarding refresh that lost the race",
			zap.Uint64("fetched_at_generation", startGen),
			zap.Uint64("current_generation", s.generation),
		)
		return s.lockedCachedProfile(ctx, profile)
	}
	if err := s.commitProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// lockedCachedProfile re-reads the committed snapshot; on any failure it falls
// back to the fetched profile so the caller still gets data. Callers hold mu.
func (s *Store) lockedCachedProfile(ctx context.Context, fallback *domain.Profile) (*domain.Profile, error) {
	raw, err := s.kv.Get(ctx, store.KeyProfile)
	if err != nil {
		return fallback, nil
	}
	var profile domain.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return fallback, nil
	}
	return &profile, nil
}

// Snapshot reads the profile with the offline-tolerant policy: a successful
// refresh yields fresh data; a failed refresh falls back to the cached
// snapshot marked stale; no user id is ErrNotAuthenticated; no snapshot and
// no network is the fetch error.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	profile, err := s.Refresh(ctx)
	if err == nil {
		return Snapshot{Profile: profile}, nil
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return Snapshot{}, err
	}

	cached, cacheErr := s.Profile(ctx)
	if cacheErr != nil {
		return Snapshot{}, err
	}

	s.metrics.StaleRead()
	s.logger.Info("serving cached profile after failed refresh", zap.Error(err))
	return Snapshot{Profile: cached, Stale: true, FetchErr: err}, nil
}

// Clear wipes the session: user id, profile snapshot, cached password and the
// pending verification email. Logout must call this rather than merely
// navigating away.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range []string{store.KeyUserID, store.KeyProfile, store.KeyPassword, store.KeyVerifyEmail} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	s.generation++
	s.notify()
	return nil
}

// Subscribe returns a channel that receives a signal after every committed
// write, and a cancel function that must be called to release it. The channel
// is buffered and notifications are dropped, not queued, when the subscriber
// lags.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
