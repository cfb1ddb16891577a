// Package handoff holds the single quote a client session passes from the
// calculator to the application form. Each session has one slot; saving
// overwrites it.
package handoff

import (
	"context"
	"errors"
	"sync"

	"github.com/iwvelando/loan-origination/pkg/loans"
)

// ErrNotFound is returned when a session has no stored quote.
var ErrNotFound = errors.New("no quote stored for session")

// ErrEmptySession is returned when the session key is blank.
var ErrEmptySession = errors.New("session must not be empty")

// Store keeps the latest quote per session.
type Store interface {
	Save(ctx context.Context, session string, quote loans.Quote) error
	Load(ctx context.Context, session string) (loans.Quote, error)
	Clear(ctx context.Context, session string) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	quotes map[string]loans.Quote
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quotes: make(map[string]loans.Quote)}
}

func (s *MemoryStore) Save(_ context.Context, session string, quote loans.Quote) error {
	if session == "" {
		return ErrEmptySession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[session] = quote
	return nil
}

func (s *MemoryStore) Load(_ context.Context, session string) (loans.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quote, ok := s.quotes[session]
	if !ok {
		return loans.Quote{}, ErrNotFound
	}
	return quote, nil
}

// Clear removes the session's quote. Clearing an empty slot is not an error.
func (s *MemoryStore) Clear(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quotes, session)
	return nil
}
