package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func testManager(t *testing.T, config Config) *Manager {
	t.Helper()
	if config.Timeout == 0 {
		config.Timeout = time.Minute
	}
	m := NewManager(config)
	t.Cleanup(m.Close)
	return m
}

func TestManager_ConcurrentSessionLimit(t *testing.T) {
	m := testManager(t, Config{MaxConcurrent: 2})
	ctx := context.Background()

	first, err := m.Create(ctx, "user-1", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID == "" {
		t.Error("Create() returned a session without an ID")
	}
	if _, err := m.Create(ctx, "user-1", "", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Third session for the same user hits the cap.
	if _, err := m.Create(ctx, "user-1", "", ""); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("Create() error = %v, want ErrLimitExceeded", err)
	}

	// Other users are unaffected.
	if _, err := m.Create(ctx, "user-2", "", ""); err != nil {
		t.Errorf("Create() for another user error = %v", err)
	}

	// Destroying a session reclaims capacity.
	m.Destroy(ctx, first.ID)
	if _, err := m.Create(ctx, "user-1", "", ""); err != nil {
		t.Errorf("Create() after destroy error = %v", err)
	}
}

func TestManager_ValidateExtendDestroy(t *testing.T) {
	m := testManager(t, Config{MaxConcurrent: 2})
	ctx := context.Background()

	session, err := m.Create(ctx, "user-2", "agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	validated, err := m.Validate(ctx, session.ID)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if validated == nil || validated.UserID != "user-2" {
		t.Fatalf("Validate() = %+v, want session for user-2", validated)
	}

	if !m.Extend(ctx, session.ID) {
		t.Error("Extend() = false for an active session")
	}
	if !m.ValidateBinding(ctx, session.ID, "agent", "127.0.0.1") {
		t.Error("ValidateBinding() = false for the recorded binding")
	}

	m.Destroy(ctx, session.ID)
	if after, _ := m.Validate(ctx, session.ID); after != nil {
		t.Error("Validate() returned a destroyed session")
	}
	if m.Extend(ctx, session.ID) {
		t.Error("Extend() = true for a destroyed session")
	}

	// Destroy is idempotent.
	m.Destroy(ctx, session.ID)
}

func TestManager_Expiry(t *testing.T) {
	m := testManager(t, Config{Timeout: time.Minute, MaxConcurrent: 1})
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	session, err := m.Create(ctx, "user-3", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Extension pushes expiry beyond the original TTL.
	now = now.Add(50 * time.Second)
	if !m.Extend(ctx, session.ID) {
		t.Fatal("Extend() = false before expiry")
	}
	now = now.Add(50 * time.Second)
	if v, _ := m.Validate(ctx, session.ID); v == nil {
		t.Fatal("Validate() = nil for an extended session")
	}

	// Once the TTL elapses the session is gone and capacity is reclaimed.
	now = now.Add(2 * time.Minute)
	if v, _ := m.Validate(ctx, session.ID); v != nil {
		t.Error("Validate() returned an expired session")
	}
	if m.Extend(ctx, session.ID) {
		t.Error("Extend() = true for an expired session")
	}
	if _, err := m.Create(ctx, "user-3", "", ""); err != nil {
		t.Errorf("Create() after expiry error = %v, want reclaimed capacity", err)
	}
}

func TestManager_ValidateBinding(t *testing.T) {
	m := testManager(t, Config{MaxConcurrent: 2})
	ctx := context.Background()

	bound, err := m.Create(ctx, "user-4", "agent-a", "10.0.0.1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	unbound, err := m.Create(ctx, "user-4", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name    string
		id      string
		agent   string
		address string
		want    bool
	}{
		{name: "exact match", id: bound.ID, agent: "agent-a", address: "10.0.0.1", want: true},
		{name: "wrong agent", id: bound.ID, agent: "agent-b", address: "10.0.0.1", want: false},
		{name: "wrong address", id: bound.ID, agent: "agent-a", address: "10.0.0.2", want: false},
		{name: "no recorded binding", id: unbound.ID, agent: "agent-a", address: "10.0.0.1", want: false},
		{name: "unknown session", id: "no-such-session", agent: "agent-a", address: "10.0.0.1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.ValidateBinding(ctx, tt.id, tt.agent, tt.address); got != tt.want {
				t.Errorf("ValidateBinding() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_ReturnsCopies(t *testing.T) {
	m := testManager(t, Config{MaxConcurrent: 1})
	ctx := context.Background()

	session, err := m.Create(ctx, "user-5", "agent", "addr")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	session.UserID = "tampered"
	session.Binding.Agent = "tampered"

	validated, _ := m.Validate(ctx, session.ID)
	if validated.UserID != "user-5" || validated.Binding.Agent != "agent" {
		t.Error("mutating a returned session changed the stored record")
	}
}

func TestManager_ConcurrentCreateRespectsLimit(t *testing.T) {
	m := testManager(t, Config{MaxConcurrent: 5})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Create(ctx, "user-racy", "", ""); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 5 {
		t.Errorf("%d concurrent creates succeeded, want exactly 5", created)
	}
}

func TestManager_Close(t *testing.T) {
	m := NewManager(Config{Timeout: time.Minute, MaxConcurrent: 1})
	ctx := context.Background()

	if _, err := m.Create(ctx, "user-6", "", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	m.Close()
	m.Close() // second call is a no-op

	if _, err := m.Create(ctx, "user-6", "", ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Create() after Close error = %v, want ErrClosed", err)
	}
	if stats := m.Stats(); !stats.Closed || stats.Active != 0 {
		t.Errorf("Stats() after Close = %+v, want closed and empty", stats)
	}
}

func TestManager_Sweep(t *testing.T) {
	m := NewManager(Config{Timeout: 20 * time.Millisecond, SweepInterval: 10 * time.Millisecond, MaxConcurrent: 3})
	defer m.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := m.Create(ctx, "user-7", "", ""); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.Stats().Active == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("sweep did not evict expired sessions, stats = %+v", m.Stats())
}

func TestManager_Stats(t *testing.T) {
	m := testManager(t, Config{MaxConcurrent: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := m.Create(ctx, "capped-user", "", ""); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if _, err := m.Create(ctx, "light-user", "", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stats := m.Stats()
	if stats.Active != 3 || stats.Users != 2 || stats.UsersAtCap != 1 {
		t.Errorf("Stats() = %+v, want 3 active, 2 users, 1 at cap", stats)
	}
}

type flakySink struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (s *flakySink) Emit(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if s.fail {
		return fmt.Errorf("sink unavailable")
	}
	return nil
}

func TestManager_AuditEvents(t *testing.T) {
	sink := &flakySink{}
	m := testManager(t, Config{MaxConcurrent: 1, EnableAudit: true, Sink: sink})
	ctx := context.Background()

	session, err := m.Create(ctx, "user-8", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	m.Validate(ctx, session.ID)
	m.Extend(ctx, session.ID)
	m.Destroy(ctx, session.ID)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	wantEvents := []string{"session_create", "session_validate", "session_extend", "session_destroy"}
	if len(sink.events) != len(wantEvents) {
		t.Fatalf("got %d audit events, want %d", len(sink.events), len(wantEvents))
	}
	for i, want := range wantEvents {
		if sink.events[i].Event != want {
			t.Errorf("event[%d] = %q, want %q", i, sink.events[i].Event, want)
		}
	}

	// The raw session ID never appears in audit output.
	if got := sink.events[0].SessionID; strings.Contains(got, session.ID) {
		t.Errorf("audit event leaked the raw session ID: %q", got)
	}
	if sink.events[0].Subject != "user-8" {
		t.Errorf("create event subject = %q, want user-8", sink.events[0].Subject)
	}
}

func TestManager_AuditSinkFailureDoesNotFailOperations(t *testing.T) {
	sink := &flakySink{fail: true}
	m := testManager(t, Config{MaxConcurrent: 1, EnableAudit: true, Sink: sink})

	session, err := m.Create(context.Background(), "user-9", "", "")
	if err != nil {
		t.Fatalf("Create() with failing sink error = %v", err)
	}
	if v, _ := m.Validate(context.Background(), session.ID); v == nil {
		t.Error("Validate() with failing sink returned nil")
	}
}
