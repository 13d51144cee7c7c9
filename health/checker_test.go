package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/authcore/session"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register(NewCheckerFunc("ok", func(context.Context) Result {
		return Healthy("fine")
	}))
	agg.Register(NewCheckerFunc("slow", func(context.Context) Result {
		return Degraded("backlog")
	}))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results["ok"].Status != StatusHealthy {
		t.Errorf("ok status = %v", results["ok"].Status)
	}
	if got := OverallStatus(results); got != StatusDegraded {
		t.Errorf("overall = %v, want degraded", got)
	}
}

func TestAggregator_UnhealthyWins(t *testing.T) {
	results := map[string]Result{
		"a": Healthy("ok"),
		"b": Degraded("meh"),
		"c": Unhealthy("down", errors.New("boom")),
	}
	if got := OverallStatus(results); got != StatusUnhealthy {
		t.Errorf("overall = %v, want unhealthy", got)
	}
}

func TestAggregator_EmptyIsHealthy(t *testing.T) {
	if got := OverallStatus(nil); got != StatusHealthy {
		t.Errorf("overall = %v, want healthy", got)
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(20 * time.Millisecond)
	agg.Register(NewCheckerFunc("stuck", func(ctx context.Context) Result {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return Healthy("too late")
	}))

	results := agg.CheckAll(context.Background())
	got := results["stuck"]
	if got.Status != StatusUnhealthy {
		t.Errorf("status = %v, want unhealthy", got.Status)
	}
	if !errors.Is(got.Error, ErrCheckTimeout) {
		t.Errorf("error = %v, want ErrCheckTimeout", got.Error)
	}
}

func TestAggregator_UnknownChecker(t *testing.T) {
	agg := NewAggregator(time.Second)
	if _, err := agg.Check(context.Background(), "nope"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("err = %v, want ErrCheckerNotFound", err)
	}
}

type fakeStatser struct {
	stats session.Stats
}

func (f fakeStatser) Stats() session.Stats { return f.stats }

func TestSessionChecker(t *testing.T) {
	tests := []struct {
		name  string
		stats session.Stats
		want  Status
	}{
		{
			name:  "operational",
			stats: session.Stats{Active: 3, Users: 2, Capacity: 5},
			want:  StatusHealthy,
		},
		{
			name:  "users at cap",
			stats: session.Stats{Active: 10, Users: 2, UsersAtCap: 2, Capacity: 5},
			want:  StatusDegraded,
		},
		{
			name:  "closed",
			stats: session.Stats{Closed: true},
			want:  StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewSessionChecker(fakeStatser{stats: tt.stats})
			result := checker.Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
			if result.Details["active_sessions"] != tt.stats.Active {
				t.Errorf("details = %v", result.Details)
			}
		})
	}
}

func TestSessionChecker_LiveManager(t *testing.T) {
	mgr := session.NewManager(session.Config{MaxConcurrent: 1})
	defer mgr.Close()

	checker := NewSessionChecker(mgr)
	if got := checker.Check(context.Background()); got.Status != StatusHealthy {
		t.Fatalf("fresh manager status = %v, want healthy", got.Status)
	}

	if _, err := mgr.Create(context.Background(), "user-1", "agent", "127.0.0.1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := checker.Check(context.Background()); got.Status != StatusDegraded {
		t.Errorf("at-cap status = %v, want degraded", got.Status)
	}
}
