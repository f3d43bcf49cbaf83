package authflowrepo

import (
	"errors"
	"sync"
	"time"
)

var ErrStateNotFound = errors.New("state not found")

// DefaultTTL is how long a user has to complete the provider login.
const DefaultTTL = 10 * time.Minute

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.RWMutex
	states  map[string]*AuthFlowState
	ttl     time.Duration
	nowFunc func() time.Time
}

type Option func(*InMemoryRepo)

func WithTTL(ttl time.Duration) Option {
	return func(r *InMemoryRepo) {
		r.ttl = ttl
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(r *InMemoryRepo) {
		r.nowFunc = now
	}
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo(options ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		states:  make(map[string]*AuthFlowState),
		ttl:     DefaultTTL,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Upsert stores or updates an auth flow state
func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to prevent external modifications
	stored := *authState
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.nowFunc()
	}
	r.states[state] = &stored
	return nil
}

// Get retrieves an auth flow state by state parameter
func (r *InMemoryRepo) Get(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	authState, exists := r.states[state]
	if !exists || r.expired(authState) {
		return nil, ErrStateNotFound
	}

	// Return a copy to prevent external modifications
	found := *authState
	return &found, nil
}

// Take retrieves and removes an auth flow state
func (r *InMemoryRepo) Take(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authState, exists := r.states[state]
	if !exists {
		return nil, ErrStateNotFound
	}
	delete(r.states, state)

	if r.expired(authState) {
		return nil, ErrStateNotFound
	}
	return authState, nil
}

// Delete removes an auth flow state
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

func (r *InMemoryRepo) DeleteExpired(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for state, authState := range r.states {
		if authState.CreatedAt.Before(cutoff) {
			delete(r.states, state)
			removed++
		}
	}
	return removed
}

// TTL returns how long a state stays valid.
func (r *InMemoryRepo) TTL() time.Duration {
	return r.ttl
}

func (r *InMemoryRepo) expired(authState *AuthFlowState) bool {
	return r.nowFunc().Sub(authState.CreatedAt) > r.ttl
}
