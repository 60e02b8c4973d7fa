package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/pbarbosa/espalier/pkg/domain"
)

func TestMergeLastWins(t *testing.T) {
	first := domain.NewExecutionContext().Set("shared", "first").Set("only_first", 1)
	second := domain.NewExecutionContext().Set("shared", "second").Set("only_second", 2)

	merged := domain.MergeLastWins([]*domain.ExecutionContext{first, second, nil})

	if v, _ := merged.Get("shared"); v != "second" {
		t.Errorf("Expected later predecessor to win, got %v", v)
	}
	if _, ok := merged.Get("only_first"); !ok {
		t.Errorf("Expected only_first to survive merge")
	}
	if _, ok := merged.Get("only_second"); !ok {
		t.Errorf("Expected only_second to survive merge")
	}
}

func TestExecutionContext_Clone(t *testing.T) {
	original := domain.NewExecutionContext().Set("k", "v")
	clone := original.Clone()
	clone.Set("k", "changed")

	if v, _ := original.Get("k"); v != "v" {
		t.Errorf("Clone mutated the original: %v", v)
	}

	var nilCtx *domain.ExecutionContext
	if got := nilCtx.Clone(); got == nil || got.Values == nil {
		t.Errorf("Clone of nil context should be empty, got %v", got)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := domain.NewAgentError("researcher", errors.New("rate limited"), true)
	fatal := domain.NewAgentError("researcher", errors.New("bad prompt"), false)

	if !domain.IsRetryable(retryable) {
		t.Error("Expected retryable agent error to be retryable")
	}
	if domain.IsRetryable(fatal) {
		t.Error("Expected fatal agent error to be non-retryable")
	}
	if domain.IsRetryable(errors.New("plain")) {
		t.Error("Plain errors must default to non-retryable")
	}

	// Wrapping must not hide the flag.
	wrapped := errors.Join(errors.New("outer"), retryable)
	if !domain.IsRetryable(wrapped) {
		t.Error("Expected retryable flag to survive wrapping")
	}

	// Timeouts are non-retryable by default.
	if domain.IsRetryable(&domain.TimeoutError{NodeID: "a", Limit: time.Second}) {
		t.Error("Timeouts must be non-retryable")
	}
}
