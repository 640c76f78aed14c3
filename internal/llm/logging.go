package llm

import (
	"context"
	"log/slog"
	"time"
)

// LoggingProvider logs every request with its latency and token usage.
type LoggingProvider struct {
	inner Provider
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider) Provider {
	return &LoggingProvider{inner: p}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	attrs := []any{
		"model", l.inner.ModelID(),
		"latency_ms", time.Since(start).Milliseconds(),
	}
	if req.Schema != nil {
		attrs = append(attrs, "schema", req.Schema.Name)
	}
	if err != nil {
		slog.Warn("LLM request failed", append(attrs, "error", err)...)
		return nil, err
	}
	slog.Info("LLM request", append(attrs,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)...)
	return resp, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
