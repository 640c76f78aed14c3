package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestRetryRecoversFromOutage(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, fastRetry())

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Errorf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	mock := NewMockProvider()
	p := WithRetry(mock, fastRetry())

	_, err := p.Generate(context.Background(), Request{})
	var un *ErrProviderUnavailable
	if !errors.As(err, &un) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestRetryDoesNotRetryRejections(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"rejected", &ErrRejected{Status: 401, Err: errors.New("bad key")}},
		{"truncated", &ErrMaxTokensExceeded{}},
		{"no key", ErrNoAPIKey},
		{"cancelled", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(MockResponse{Err: tt.err}, MockResponse{Content: json.RawMessage(`{}`)})
			_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
			if mock.CallCount() != 1 {
				t.Errorf("expected 1 call, got %d", mock.CallCount())
			}
		})
	}
}

func TestRetryInvalidResponseOnlyOnce(t *testing.T) {
	schema := &Schema{Name: "retry-object", Definition: map[string]any{"type": "object"}}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`not json`)},
		MockResponse{Content: json.RawMessage(`[1]`)},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{Schema: schema})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetryHonoursRetryAfter(t *testing.T) {
	r := &RetryProvider{config: fastRetry()}
	if got := r.backoff(0, &ErrRateLimit{RetryAfter: 3 * time.Second}); got != 3*time.Second {
		t.Errorf("expected retry-after wait, got %s", got)
	}
	for attempt := range 10 {
		if got := r.backoff(attempt, errors.New("x")); got > 6*time.Millisecond {
			t.Errorf("attempt %d waited %s, above cap", attempt, got)
		}
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}})
	cfg := fastRetry()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour
	_, err := WithRetry(mock, cfg).Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
