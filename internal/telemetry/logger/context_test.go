package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	ctx := WithLogger(context.Background(), l.With("user_id", "user-42"))
	FromContext(ctx, nil).Info("from context")

	if entry := decodeEntry(t, buf); entry["user_id"] != "user-42" {
		t.Errorf("user_id = %v, want user-42", entry["user_id"])
	}
}

func TestFromContext_Fallback(t *testing.T) {
	fallback := slog.New(slog.DiscardHandler)
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("FromContext() should return the fallback when no logger is set")
	}
	if FromContext(context.Background(), nil) != slog.Default() {
		t.Error("FromContext() with nil fallback should return slog.Default()")
	}
}

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-12345")
	if got := RequestIDFromContext(ctx); got != "req-12345" {
		t.Errorf("RequestIDFromContext() = %q, want req-12345", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext() on empty context = %q", got)
	}
}

func TestContextHandler_AddsRequestID(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")
	ctx := WithRequestID(context.Background(), "req-abc")

	l.WarnContext(ctx, "api key rejected", "reason", "unknown")

	entry := decodeEntry(t, buf)
	if entry["request_id"] != "req-abc" {
		t.Errorf("request_id = %v, want req-abc", entry["request_id"])
	}
}

func TestFromContext_KeepsRequestID(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")
	ctx := WithRequestID(WithLogger(context.Background(), l), "req-l")

	FromContext(ctx, nil).InfoContext(ctx, "bound")

	if entry := decodeEntry(t, buf); entry["request_id"] != "req-l" {
		t.Errorf("request_id = %v, want req-l", entry["request_id"])
	}
}
