package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neexbeast/relocation/internal/cache"
	"github.com/neexbeast/relocation/internal/view"
	"github.com/neexbeast/relocation/internal/voice"
)

// SessionTTL is how long an untouched session survives.
const SessionTTL = 24 * time.Hour

// Preferences are the relocation criteria the user has mentioned.
type Preferences struct {
	Budget  string `json:"budget,omitempty"`
	Climate string `json:"climate,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

// Merge overwrites fields that are set in p.
func (prefs *Preferences) Merge(p Preferences) {
	if p.Budget != "" {
		prefs.Budget = p.Budget
	}
	if p.Climate != "" {
		prefs.Climate = p.Climate
	}
	if p.Purpose != "" {
		prefs.Purpose = p.Purpose
	}
}

// State is the per-session UI state. Concurrent writers race; the last save wins.
type State struct {
	ID          string       `json:"id"`
	CurrentView *view.View   `json:"current_view,omitempty"`
	Preferences Preferences  `json:"preferences"`
	VoiceStatus voice.Status `json:"voice_status"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// SessionStore persists session state in a cache.
type SessionStore struct {
	cache *cache.Cache
	now   func() time.Time
}

// NewSessionStore constructs a SessionStore over store.
func NewSessionStore(store cache.Store) *SessionStore {
	return &SessionStore{
		cache: cache.New(store, "session", SessionTTL),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a new idle session.
func (s *SessionStore) Create(ctx context.Context) (*State, error) {
	st := &State{
		ID:          uuid.NewString(),
		VoiceStatus: voice.StatusIdle,
	}
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Get loads a session. Returns nil, nil for unknown, expired or malformed ids.
func (s *SessionStore) Get(ctx context.Context, id string) (*State, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var st State
	ok, err := s.cache.Get(ctx, id, &st)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// Save stamps and writes st, refreshing its TTL.
func (s *SessionStore) Save(ctx context.Context, st *State) error {
	st.UpdatedAt = s.now()
	if err := s.cache.Set(ctx, st.ID, st); err != nil {
		return fmt.Errorf("saving session %s: %w", st.ID, err)
	}
	return nil
}
