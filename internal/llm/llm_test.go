package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingProvider struct {
	calls int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	p.calls++
	return &CompletionResponse{Content: "ok"}, nil
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	inner := &countingProvider{}
	limited := NewRateLimitedProvider(inner, 5)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := limited.Complete(ctx, CompletionRequest{}); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if inner.calls != 5 {
		t.Errorf("inner called %d times, want 5", inner.calls)
	}
}

func TestRateLimiterBlocksUntilCancelled(t *testing.T) {
	inner := &countingProvider{}
	limited := NewRateLimitedProvider(inner, 1)

	ctx := context.Background()
	if _, err := limited.Complete(ctx, CompletionRequest{}); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	// Budget exhausted; a cancelled context must end the wait.
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err := limited.Complete(ctx, CompletionRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
}

func TestEstimateCost(t *testing.T) {
	got := EstimateCost("gemini-2.5-flash", 1_000_000, 1_000_000)
	if diff := got - 2.80; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("cost = %v, want 2.80", got)
	}
	if EstimateCost("unknown-model", 1000, 1000) != 0 {
		t.Error("unknown models should cost 0")
	}
}

func TestNewProviderUnsupported(t *testing.T) {
	if _, err := NewProvider("bogus", "model"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}
