package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/prune/internal/shared"
)

// DefaultStateTTL bounds how long a user has to finish the Spotify consent screen.
const DefaultStateTTL = 10 * time.Minute

type pendingState struct {
	userID  string
	expires time.Time
}

// StateStore holds single-use OAuth state tokens, each bound to the user who started the flow.
type StateStore struct {
	mu      sync.Mutex
	pending map[string]pendingState
	ttl     time.Duration
	now     func() time.Time
}

// NewStateStore creates an empty StateStore whose tokens live for ttl.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{pending: map[string]pendingState{}, ttl: ttl, now: time.Now}
}

// Issue creates a state token for userID. Expired tokens are dropped as a side effect.
func (s *StateStore) Issue(userID string) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, p := range s.pending {
		if !now.Before(p.expires) {
			delete(s.pending, k)
		}
	}
	s.pending[state] = pendingState{userID: userID, expires: now.Add(s.ttl)}
	return state, nil
}

// Consume validates state for userID and invalidates it. Unknown, expired, or foreign tokens
// fail with [shared.ErrStateMismatch].
func (s *StateStore) Consume(state, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[state]
	if !ok || state == "" {
		return fmt.Errorf("%w: unknown state", shared.ErrStateMismatch)
	}
	delete(s.pending, state)

	if !s.now().Before(p.expires) {
		return fmt.Errorf("%w: state expired", shared.ErrStateMismatch)
	}
	if p.userID != userID {
		return fmt.Errorf("%w: state issued to another session", shared.ErrStateMismatch)
	}
	return nil
}

// Len returns the number of outstanding tokens.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
