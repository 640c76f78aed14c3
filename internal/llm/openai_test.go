package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 20, "total_tokens": 50},
	}
}

func TestOpenAIGenerateWithImage(t *testing.T) {
	var body map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion(string(mustDraftList(t, draft("Câu", "A"))), "stop"))
	})

	resp, err := p.Generate(context.Background(), Request{
		System: "system",
		Messages: []Message{{
			Role:        RoleUser,
			Content:     "trích câu hỏi",
			Attachments: []Attachment{{MIMEType: "image/png", Data: []byte("png")}},
		}},
		Schema:    questionListSchema,
		MaxTokens: 512,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.TotalTokens != 50 || resp.StopReason != "end" {
		t.Errorf("unexpected response %+v", resp)
	}

	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Errorf("expected json_schema response format, got %v", body["response_format"])
	}
	messages, _ := body["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
	user, _ := messages[1].(map[string]any)
	parts, _ := user["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected text and image parts, got %v", user["content"])
	}
	img, _ := parts[1].(map[string]any)
	url, _ := img["image_url"].(map[string]any)
	if u, _ := url["url"].(string); !strings.HasPrefix(u, "data:image/png;base64,") {
		t.Errorf("expected data URL, got %q", u)
	}
}

func TestOpenAIRejectsPDF(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})
	_, err := p.Generate(context.Background(), Request{Messages: []Message{{
		Role:        RoleUser,
		Attachments: []Attachment{{MIMEType: "application/pdf", Data: []byte("%PDF")}},
	}}})
	if err == nil {
		t.Fatal("expected error for PDF attachment")
	}
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limit", http.StatusTooManyRequests, func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) }},
		{"server error", http.StatusBadGateway, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{"bad key", http.StatusUnauthorized, func(err error) bool { var e *ErrRejected; return errors.As(err, &e) && e.Status == 401 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "nope", "type": "error", "code": tt.status},
				})
			})
			_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
			if !tt.check(err) {
				t.Errorf("unexpected error type: %v", err)
			}
			if !IsServiceError(err) {
				t.Errorf("expected service error, got %v", err)
			}
		})
	}
}

func TestOpenAITruncated(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion(`{"questions":[`, "length"))
	})
	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	if _, err := NewProvider(context.Background(), cfg, ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey without key, got %v", err)
	}
	p, err := NewProvider(context.Background(), cfg, "request-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Errorf("expected retry wrapper, got %T", p)
	}

	cfg.Provider = "nope"
	if _, err := NewProvider(context.Background(), cfg, "k"); err == nil {
		t.Error("expected error for unknown provider")
	}
}
