// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"testing"
	"time"
)

func testBreakerConfig() CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig("test")
	cfg.FailureThreshold = 3
	cfg.SuccessThreshold = 2
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxRequests = 2
	return cfg
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	fail := func(ctx context.Context) error { return NewTransientError("down", nil) }

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), fail)
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_FailsFastWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	fail := func(ctx context.Context) error { return NewTransientError("down", nil) }
	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), fail)
	}

	calls := 0
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("expected a breaker error while open")
	}
	if !IsCircuitBreakerError(err) {
		t.Errorf("expected CircuitBreakerError, got %T", err)
	}
	if calls != 0 {
		t.Errorf("operation must not run while open, ran %d times", calls)
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	fail := func(ctx context.Context) error { return NewTransientError("down", nil) }
	ok := func(ctx context.Context) error { return nil }

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), fail)
	}
	time.Sleep(30 * time.Millisecond)

	// First probe moves the breaker to half-open; two successes close it.
	if err := cb.Execute(context.Background(), ok); err != nil {
		t.Fatalf("probe should be allowed after timeout: %v", err)
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.GetState())
	}
	if err := cb.Execute(context.Background(), ok); err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed after recovery, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	fail := func(ctx context.Context) error { return NewTransientError("down", nil) }

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), fail)
	}
	time.Sleep(30 * time.Millisecond)

	cb.Execute(context.Background(), fail)
	if cb.GetState() != StateOpen {
		t.Fatalf("expected reopen after half-open failure, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_PermanentErrorsDoNotTrip(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	authFail := func(ctx context.Context) error { return NewPermanentError("bad key", nil) }

	for i := 0; i < 10; i++ {
		cb.Execute(context.Background(), authFail)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("non-retryable errors must not open the breaker, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cfg := testBreakerConfig()
	cfg.OnStateChange = func(name string, from, to CircuitBreakerState) {
		transitions = append(transitions, from.String()+">"+to.String())
	}
	cb := NewCircuitBreaker(cfg)
	fail := func(ctx context.Context) error { return NewTransientError("down", nil) }

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), fail)
	}
	if len(transitions) != 1 || transitions[0] != "CLOSED>OPEN" {
		t.Fatalf("expected one CLOSED>OPEN transition, got %v", transitions)
	}
}

func TestRetryWithCircuitBreaker_StopsWhenOpen(t *testing.T) {
	cfg := testBreakerConfig()
	cfg.FailureThreshold = 2
	cb := NewCircuitBreaker(cfg)

	calls := 0
	err := RetryWithCircuitBreaker(context.Background(), RetryConfig{
		MaxRetries:      5,
		InitialInterval: time.Millisecond,
		Multiplier:      2.0,
	}, cb, func(ctx context.Context) error {
		calls++
		return NewTransientError("down", nil)
	})

	if err == nil {
		t.Fatal("expected an error")
	}
	// Two real calls trip the breaker; the third attempt gets a breaker
	// error, which is not retryable, so the loop ends there.
	if calls != 2 {
		t.Errorf("expected 2 real calls before the breaker cut in, got %d", calls)
	}
}
