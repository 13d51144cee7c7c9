package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/authcore/session"
)

// SessionStatser reports session store statistics. *session.Manager
// satisfies it.
type SessionStatser interface {
	Stats() session.Stats
}

// SessionChecker reports the health of the session store. The store is
// degraded when any user is pinned at the concurrency cap and unhealthy
// once the manager has been closed.
type SessionChecker struct {
	store SessionStatser
}

// NewSessionChecker creates a checker over a session store.
func NewSessionChecker(store SessionStatser) *SessionChecker {
	return &SessionChecker{store: store}
}

// Name returns the checker name.
func (c *SessionChecker) Name() string {
	return "sessions"
}

// Check reports the current session store health.
func (c *SessionChecker) Check(_ context.Context) Result {
	stats := c.store.Stats()

	details := map[string]any{
		"active_sessions": stats.Active,
		"users":           stats.Users,
		"users_at_cap":    stats.UsersAtCap,
		"capacity":        stats.Capacity,
	}

	if stats.Closed {
		return Unhealthy("session manager closed", errors.New("manager closed")).WithDetails(details)
	}
	if stats.UsersAtCap > 0 {
		msg := fmt.Sprintf("%d user(s) at the session cap", stats.UsersAtCap)
		return Degraded(msg).WithDetails(details)
	}
	return Healthy("session store operational").WithDetails(details)
}
