package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/authcore/credential"
)

// Error codes for session operations.
const (
	CodeLimitExceeded = "SESSION_LIMIT_EXCEEDED"
	CodeClosed        = "SESSION_MANAGER_CLOSED"
)

// Error is a typed session failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("session: %s: %s", e.Code, e.Message)
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// ErrLimitExceeded is returned by Create when the user is at the configured
// concurrent-session cap.
var ErrLimitExceeded = &Error{Code: CodeLimitExceeded, Message: "concurrent session limit reached"}

// ErrClosed is returned by Create after the manager has been closed.
var ErrClosed = &Error{Code: CodeClosed, Message: "session manager is closed"}

// Binding pins a session to the client it was created for.
type Binding struct {
	Agent   string
	Address string
}

// Session is a server-held session record. Values returned by the Manager
// are copies; the stored records are owned exclusively by the Manager.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	Binding   *Binding
}

// Config configures the session manager.
type Config struct {
	// Timeout is the session TTL. Default: 30 minutes.
	Timeout time.Duration

	// MaxConcurrent is the per-user active session cap. Default: 5.
	MaxConcurrent int

	// SweepInterval is how often expired sessions are reaped.
	// Default: Timeout / 4, at least one second.
	SweepInterval time.Duration

	// EnableAudit turns on audit event emission.
	EnableAudit bool

	// Sink receives audit events when EnableAudit is true.
	Sink AuditSink

	// Metrics, when set, records session operations.
	Metrics OpRecorder
}

// OpRecorder receives the outcome of each session operation.
type OpRecorder interface {
	RecordSessionOp(ctx context.Context, op string, err error)
}

// Stats is a point-in-time view of the store for health reporting.
type Stats struct {
	// Active is the number of live sessions.
	Active int

	// Users is the number of distinct users holding sessions.
	Users int

	// UsersAtCap is the number of users at the concurrency limit.
	UsersAtCap int

	// Capacity is the per-user session cap.
	Capacity int

	// Closed reports whether the manager has been shut down.
	Closed bool
}

// Manager creates, validates, extends and destroys sessions.
//
// Contract:
// - Concurrency: safe for concurrent use; all mutations are serialized on
//   one mutex, so limit checks and evictions are atomic.
// - Lifecycle: Close must be called exactly once when the manager is
//   retired; it is idempotent, and no operation is valid afterwards.
type Manager struct {
	config Config

	mu       sync.Mutex
	sessions map[string]*Session
	perUser  map[string]int
	closed   bool

	done      chan struct{}
	sweepDone chan struct{}
	closeOnce sync.Once

	now func() time.Time
}

// NewManager creates a session manager and starts its expiry sweep.
func NewManager(config Config) *Manager {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Minute
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 5
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = config.Timeout / 4
		if config.SweepInterval < time.Second {
			config.SweepInterval = time.Second
		}
	}

	m := &Manager{
		config:    config,
		sessions:  make(map[string]*Session),
		perUser:   make(map[string]int),
		done:      make(chan struct{}),
		sweepDone: make(chan struct{}),
		now:       time.Now,
	}
	go m.sweep()
	return m
}

// Create opens a session for userID, optionally bound to a client agent and
// address. It fails with ErrLimitExceeded when the user is at the cap; a
// failed create has no side effects.
func (m *Manager) Create(ctx context.Context, userID, agent, address string) (*Session, error) {
	session, err := m.create(userID, agent, address)
	m.record(ctx, "create", err)
	if err != nil {
		m.audit(ctx, "session_create", "", userID, "denied")
		return nil, err
	}
	m.audit(ctx, "session_create", session.ID, userID, "success")
	return session, nil
}

func (m *Manager) create(userID, agent, address string) (*Session, error) {
	id, err := credential.RandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("session: generating id: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	// The limit counts Active sessions only; expired records for this user
	// are evicted first so reclaimed capacity is visible to this check.
	m.evictExpiredLocked(userID)
	if m.perUser[userID] >= m.config.MaxConcurrent {
		return nil, ErrLimitExceeded
	}

	now := m.now()
	record := &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.Timeout),
	}
	if agent != "" || address != "" {
		record.Binding = &Binding{Agent: agent, Address: address}
	}

	m.sessions[id] = record
	m.perUser[userID]++
	return copySession(record), nil
}

// Validate returns the session if it is Active, or nil if it is absent or
// expired. An expired record encountered here is evicted as a side effect.
func (m *Manager) Validate(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	record := m.activeLocked(sessionID)
	session := copySession(record)
	m.mu.Unlock()

	m.record(ctx, "validate", nil)
	if session == nil {
		m.audit(ctx, "session_validate", sessionID, "", "miss")
		return nil, nil
	}
	m.audit(ctx, "session_validate", sessionID, session.UserID, "success")
	return session, nil
}

// Extend resets the session's expiry to now + Timeout. It returns false if
// the session does not exist or is no longer Active.
func (m *Manager) Extend(ctx context.Context, sessionID string) bool {
	m.mu.Lock()
	record := m.activeLocked(sessionID)
	extended := record != nil
	if extended {
		record.ExpiresAt = m.now().Add(m.config.Timeout)
	}
	m.mu.Unlock()

	m.record(ctx, "extend", nil)
	outcome := "success"
	if !extended {
		outcome = "miss"
	}
	m.audit(ctx, "session_extend", sessionID, "", outcome)
	return extended
}

// ValidateBinding reports whether the session exists, is Active, and was
// created with exactly the supplied client agent and address.
func (m *Manager) ValidateBinding(ctx context.Context, sessionID, agent, address string) bool {
	m.mu.Lock()
	record := m.activeLocked(sessionID)
	bound := record != nil && record.Binding != nil &&
		record.Binding.Agent == agent && record.Binding.Address == address
	m.mu.Unlock()

	outcome := "success"
	if !bound {
		outcome = "mismatch"
	}
	m.audit(ctx, "session_binding", sessionID, "", outcome)
	return bound
}

// Destroy removes the session unconditionally. It is idempotent.
func (m *Manager) Destroy(ctx context.Context, sessionID string) {
	m.mu.Lock()
	m.removeLocked(sessionID)
	m.mu.Unlock()

	m.record(ctx, "destroy", nil)
	m.audit(ctx, "session_destroy", sessionID, "", "success")
}

// Close stops the background sweep and clears the store. It is safe to call
// more than once; only the first call does any work. No session operation is
// valid after Close.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		<-m.sweepDone

		m.mu.Lock()
		m.sessions = make(map[string]*Session)
		m.perUser = make(map[string]int)
		m.closed = true
		m.mu.Unlock()
	})
}

// Stats returns a point-in-time view of the store.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	atCap := 0
	for _, count := range m.perUser {
		if count >= m.config.MaxConcurrent {
			atCap++
		}
	}
	return Stats{
		Active:     len(m.sessions),
		Users:      len(m.perUser),
		UsersAtCap: atCap,
		Capacity:   m.config.MaxConcurrent,
		Closed:     m.closed,
	}
}

// activeLocked returns the stored record if it is Active, evicting it if it
// has expired. Caller holds m.mu.
func (m *Manager) activeLocked(sessionID string) *Session {
	record, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	if !m.now().Before(record.ExpiresAt) {
		m.removeLocked(sessionID)
		return nil
	}
	return record
}

// removeLocked deletes a record and releases its per-user slot. Caller holds
// m.mu.
func (m *Manager) removeLocked(sessionID string) {
	record, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	delete(m.sessions, sessionID)
	if m.perUser[record.UserID] <= 1 {
		delete(m.perUser, record.UserID)
	} else {
		m.perUser[record.UserID]--
	}
}

// evictExpiredLocked reaps expired sessions, optionally restricted to one
// user ("" means all). Caller holds m.mu.
func (m *Manager) evictExpiredLocked(userID string) {
	now := m.now()
	for id, record := range m.sessions {
		if userID != "" && record.UserID != userID {
			continue
		}
		if !now.Before(record.ExpiresAt) {
			m.removeLocked(id)
		}
	}
}

// sweep periodically reaps expired sessions until Close.
func (m *Manager) sweep() {
	defer close(m.sweepDone)

	ticker := time.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.evictExpiredLocked("")
			m.mu.Unlock()
		}
	}
}

func (m *Manager) record(ctx context.Context, op string, err error) {
	if m.config.Metrics != nil {
		m.config.Metrics.RecordSessionOp(ctx, op, err)
	}
}

func copySession(record *Session) *Session {
	if record == nil {
		return nil
	}
	out := *record
	if record.Binding != nil {
		binding := *record.Binding
		out.Binding = &binding
	}
	return &out
}
