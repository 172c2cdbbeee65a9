package booking

import (
	"errors"
	"sync"
	"time"

	"clinicbook/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("booking session not found or expired")

// ControllerFactory builds a controller for a new session. The session id is
// passed so per-session sinks (e.g. the Redis progress channel) can be wired.
type ControllerFactory func(sessionID string, actor models.Actor) *Controller

// SessionManager keeps the live booking sessions in memory, keyed by uuid.
// Sessions idle past the TTL are swept and their sagas closed; nothing is
// persisted across restarts.
type SessionManager struct {
	factory ControllerFactory
	ttl     time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
	stop     chan struct{}
	stopOnce sync.Once
}

type session struct {
	controller *Controller
	lastAccess time.Time
}

// NewSessionManager creates a manager and starts its sweep loop.
func NewSessionManager(factory ControllerFactory, ttl time.Duration, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SessionManager{
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*session),
		stop:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Open starts a new booking session for the actor and returns its id.
func (m *SessionManager) Open(actor models.Actor) (string, *Controller) {
	id := uuid.New().String()
	ctrl := m.factory(id, actor)

	m.mu.Lock()
	m.sessions[id] = &session{controller: ctrl, lastAccess: time.Now()}
	m.mu.Unlock()

	m.logger.Info("booking session opened",
		zap.String("sessionId", id),
		zap.Bool("authenticated", actor.Authenticated()))
	return id, ctrl
}

// Get returns the controller for a session id and refreshes its TTL.
func (m *SessionManager) Get(id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastAccess = time.Now()
	return s.controller, nil
}

// Close tears a session down, cancelling its in-flight remote calls.
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.controller.Close()
	m.logger.Info("booking session closed", zap.String("sessionId", id))
	return nil
}

// Shutdown stops the sweep loop and closes every live session.
func (m *SessionManager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.mu.Lock()
	for id, s := range m.sessions {
		s.controller.Close()
		delete(m.sessions, id)
	}
	m.mu.Unlock()
}

func (m *SessionManager) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-m.ttl)
			m.mu.Lock()
			for id, s := range m.sessions {
				if s.lastAccess.Before(cutoff) {
					s.controller.Close()
					delete(m.sessions, id)
					m.logger.Info("booking session expired", zap.String("sessionId", id))
				}
			}
			m.mu.Unlock()
		}
	}
}
