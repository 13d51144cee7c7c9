package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFailureThrottle_BudgetAndRecovery(t *testing.T) {
	throttle := NewFailureThrottle(ThrottleConfig{Rate: 1, Burst: 3})
	now := time.Now()
	throttle.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !throttle.Allow("caller") {
			t.Fatalf("Allow() = false after %d failures, want true", i)
		}
		throttle.RecordFailure("caller")
	}
	if throttle.Allow("caller") {
		t.Error("Allow() = true with failure budget exhausted")
	}

	// Other keys are unaffected.
	if !throttle.Allow("someone-else") {
		t.Error("Allow() throttled an unrelated key")
	}

	// Credit refills over time.
	now = now.Add(2 * time.Second)
	if !throttle.Allow("caller") {
		t.Error("Allow() = false after refill window")
	}
}

func TestValidator_ThrottlesRepeatedFailures(t *testing.T) {
	throttle := NewFailureThrottle(ThrottleConfig{Rate: 0.001, Burst: 2})
	v := testValidator(func(c *ValidatorConfig) { c.Throttle = throttle })

	badToken := mintToken(t, []byte("wrong-secret-material"), baseClaims(time.Now()))

	for i := 0; i < 2; i++ {
		_, err := v.Validate(context.Background(), badToken)
		if got := CodeOf(err); got != CodeInvalidSignature {
			t.Fatalf("attempt %d code = %q, want %q", i, got, CodeInvalidSignature)
		}
	}

	_, err := v.Validate(context.Background(), badToken)
	if !errors.Is(err, &Error{Code: CodeRateLimited}) {
		t.Errorf("Validate() error = %v, want rate limited", err)
	}
}
