package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
)

// Status is the connection state of a voice session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
)

// ErrBusy is returned when Toggle is called while a connect is in flight.
var ErrBusy = errors.New("voice session is connecting")

const chatURL = "wss://api.hume.ai/v0/evi/chat"

// TokenSource issues access tokens for the speech service.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Connection is what a client needs to open the voice socket.
type Connection struct {
	URL      string `json:"url"`
	ConfigID string `json:"config_id,omitempty"`
}

// Session drives the idle -> connecting -> connected -> idle cycle.
// There is no automatic reconnect.
type Session struct {
	mu       sync.Mutex
	status   Status
	tokens   TokenSource
	configID string
	log      *slog.Logger
}

// NewSession resumes a session at status. A persisted connecting status
// belongs to an interrupted attempt and resumes as idle.
func NewSession(tokens TokenSource, configID string, status Status, log *slog.Logger) *Session {
	if status != StatusConnected {
		status = StatusIdle
	}
	return &Session{status: status, tokens: tokens, configID: configID, log: log}
}

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Toggle disconnects a connected session, or connects an idle one.
// A successful connect returns the socket details; a disconnect returns nil.
// Any connect failure leaves the session idle.
func (s *Session) Toggle(ctx context.Context) (*Connection, error) {
	s.mu.Lock()
	switch s.status {
	case StatusConnected:
		s.status = StatusIdle
		s.mu.Unlock()
		s.log.Info("voice session disconnected")
		return nil, nil
	case StatusConnecting:
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.status = StatusConnecting
	s.mu.Unlock()

	conn, err := s.connect(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusIdle
		s.log.Error("voice connect failed", "err", err)
		return nil, err
	}
	s.status = StatusConnected
	s.log.Info("voice session connected")
	return conn, nil
}

func (s *Session) connect(ctx context.Context) (*Connection, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("access_token", token)
	if s.configID != "" {
		q.Set("config_id", s.configID)
	}

	u, err := url.Parse(chatURL)
	if err != nil {
		return nil, fmt.Errorf("parsing voice URL: %w", err)
	}
	u.RawQuery = q.Encode()

	return &Connection{URL: u.String(), ConfigID: s.configID}, nil
}
