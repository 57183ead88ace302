package testutil

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/AnshRaj112/astravedam-backend/internal/services"
)

// Provider is a fake services.IdentityProvider.
type Provider struct {
	Profile services.GoogleProfile
	Err     error
	Codes   []string
}

func (p *Provider) AuthURL(state string) string {
	return "https://accounts.example.test/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (p *Provider) Exchange(ctx context.Context, code string) (*services.GoogleProfile, error) {
	p.Codes = append(p.Codes, code)
	if p.Err != nil {
		return nil, p.Err
	}
	profile := p.Profile
	return &profile, nil
}

// StateStore is an in-memory single-use state store.
type StateStore struct {
	mu     sync.Mutex
	states map[string]bool
	n      int
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]bool)}
}

func (s *StateStore) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	state := fmt.Sprintf("state-%d", s.n)
	s.states[state] = true
	return state, nil
}

func (s *StateStore) Consume(ctx context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.states[state] {
		return services.ErrInvalidState
	}
	delete(s.states, state)
	return nil
}
