package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/reorder"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/session"
)

// SessionService loads and saves working sessions.
type SessionService struct {
	store    session.Store
	defaults reorder.Params
	now      func() time.Time
}

func NewSessionService(store session.Store, defaults reorder.Params) *SessionService {
	return &SessionService{store: store, defaults: defaults, now: time.Now}
}

// Load returns the stored session, or a fresh one with default inputs when
// none exists.
func (s *SessionService) Load(ctx context.Context, id string) (session.State, error) {
	state, err := s.store.Load(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return session.New(id, s.defaults, s.now()), nil
	}
	return state, err
}

// Save validates and stores the session.
func (s *SessionService) Save(ctx context.Context, state session.State) (session.State, error) {
	if err := state.Validate(); err != nil {
		return state, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	state.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
