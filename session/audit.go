package session

import (
	"context"
	"time"

	"github.com/jonwraymond/authcore/credential"
	"github.com/jonwraymond/authcore/observe"
)

// Event is a structured audit record for a session lifecycle operation.
type Event struct {
	// Event names the operation, e.g. "session_create".
	Event string

	// SessionID is the sanitized session identifier, if known.
	SessionID string

	// Subject is the user the operation concerns, if known.
	Subject string

	// Timestamp is when the operation completed.
	Timestamp time.Time

	// Outcome is "success", "denied", "miss" or "mismatch".
	Outcome string
}

// AuditSink receives audit events. Implementations must return quickly; a
// slow or failing sink degrades auditing, never the session operation.
type AuditSink interface {
	Emit(ctx context.Context, event Event) error
}

// audit emits an event when audit logging is enabled. Emission is
// best-effort: sink errors are discarded and panics recovered, so the
// primary operation never fails or blocks on the sink.
func (m *Manager) audit(ctx context.Context, name, sessionID, subject, outcome string) {
	if !m.config.EnableAudit || m.config.Sink == nil {
		return
	}

	defer func() {
		_ = recover()
	}()

	event := Event{
		Event:     name,
		Subject:   subject,
		Timestamp: m.now(),
		Outcome:   outcome,
	}
	if sessionID != "" {
		event.SessionID = credential.SanitizeForLogging(sessionID)
	}
	_ = m.config.Sink.Emit(ctx, event)
}

// LoggerSink adapts a structured logger into an AuditSink.
type LoggerSink struct {
	Logger observe.Logger
}

// Emit writes the event as a structured log line.
func (s *LoggerSink) Emit(ctx context.Context, event Event) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Info(ctx, "audit",
		observe.Field{Key: "event", Value: event.Event},
		observe.Field{Key: "session_id", Value: event.SessionID},
		observe.Field{Key: "subject", Value: event.Subject},
		observe.Field{Key: "outcome", Value: event.Outcome},
		observe.Field{Key: "at", Value: event.Timestamp.UTC().Format(time.RFC3339Nano)},
	)
	return nil
}

var _ AuditSink = (*LoggerSink)(nil)
