package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedBackend struct {
	name  string
	calls int
	fn    func(call int) (string, error)
}

func (s *scriptedBackend) backend(textOnly bool) backend {
	return backend{
		name:     s.name,
		textOnly: textOnly,
		generate: func(ctx context.Context, req InferRequest) (string, error) {
			s.calls++
			return s.fn(s.calls)
		},
	}
}

func testGateway(chain ...backend) (*Gateway, *[]time.Duration) {
	var slept []time.Duration
	g := &Gateway{
		maxAttempts: 3,
		baseDelay:   100 * time.Millisecond,
		callTimeout: time.Second,
		chainFor:    func(InferRequest) []backend { return chain },
		sleep:       func(d time.Duration) { slept = append(slept, d) },
	}
	return g, &slept
}

func TestInferRetriesTransientFailures(t *testing.T) {
	b := &scriptedBackend{name: "flaky", fn: func(call int) (string, error) {
		if call < 3 {
			return "", &httpStatusError{status: 503, body: "overloaded"}
		}
		return "recovered", nil
	}}
	g, slept := testGateway(b.backend(false))

	text, err := g.Infer(context.Background(), InferRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if text != "recovered" {
		t.Errorf("unexpected text %q", text)
	}
	if b.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", b.calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep %d = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestInferNonTransientFailsFast(t *testing.T) {
	bad := &scriptedBackend{name: "bad", fn: func(int) (string, error) {
		return "", &httpStatusError{status: 400, body: "bad request"}
	}}
	good := &scriptedBackend{name: "good", fn: func(int) (string, error) {
		return "from fallback", nil
	}}
	g, slept := testGateway(bad.backend(false), good.backend(false))

	text, err := g.Infer(context.Background(), InferRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if text != "from fallback" {
		t.Errorf("unexpected text %q", text)
	}
	if bad.calls != 1 {
		t.Errorf("non-transient failure should not be retried, got %d attempts", bad.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("no backoff expected, slept %v", *slept)
	}
}

func TestInferFallsThroughExhaustedBackend(t *testing.T) {
	down := &scriptedBackend{name: "down", fn: func(int) (string, error) {
		return "", &httpStatusError{status: 503, body: "down"}
	}}
	up := &scriptedBackend{name: "up", fn: func(int) (string, error) {
		return "ok", nil
	}}
	g, _ := testGateway(down.backend(false), up.backend(false))

	text, err := g.Infer(context.Background(), InferRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if text != "ok" {
		t.Errorf("unexpected text %q", text)
	}
	if down.calls != 3 {
		t.Errorf("primary should be retried to exhaustion, got %d attempts", down.calls)
	}
}

func TestInferAllBackendsDown(t *testing.T) {
	down := &scriptedBackend{name: "down", fn: func(int) (string, error) {
		return "", &httpStatusError{status: 500, body: "boom"}
	}}
	g, _ := testGateway(down.backend(false), down.backend(false))

	if _, err := g.Infer(context.Background(), InferRequest{Prompt: "hi"}); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestInferJSONModeMalformedDoesNotFallThrough(t *testing.T) {
	chatty := &scriptedBackend{name: "chatty", fn: func(int) (string, error) {
		return "I'd be happy to help, but I can't produce JSON today.", nil
	}}
	unused := &scriptedBackend{name: "unused", fn: func(int) (string, error) {
		return `{"ok": true}`, nil
	}}
	g, _ := testGateway(chatty.backend(false), unused.backend(false))

	_, err := g.Infer(context.Background(), InferRequest{Prompt: "hi", JSONMode: true})
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
	if unused.calls != 0 {
		t.Errorf("malformed output must not trigger fallback, second backend called %d times", unused.calls)
	}
}

func TestInferJSONModeExtractsPayload(t *testing.T) {
	fenced := &scriptedBackend{name: "fenced", fn: func(int) (string, error) {
		return "```json\n{\"ok\": true}\n```", nil
	}}
	g, _ := testGateway(fenced.backend(false))

	text, err := g.Infer(context.Background(), InferRequest{Prompt: "hi", JSONMode: true})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if text != `{"ok": true}` {
		t.Errorf("unexpected payload %q", text)
	}
}

func TestInferSkipsTextOnlyBackendForAttachments(t *testing.T) {
	textual := &scriptedBackend{name: "textual", fn: func(int) (string, error) {
		return "should not run", nil
	}}
	visual := &scriptedBackend{name: "visual", fn: func(int) (string, error) {
		return "described the image", nil
	}}
	g, _ := testGateway(textual.backend(true), visual.backend(false))

	text, err := g.Infer(context.Background(), InferRequest{
		Prompt:      "what is in this picture",
		Attachments: []Attachment{{MIME: "image/png", Data: []byte{1}}},
	})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if text != "described the image" {
		t.Errorf("unexpected text %q", text)
	}
	if textual.calls != 0 {
		t.Errorf("text-only backend must be skipped for multimodal requests")
	}
}

func TestInferCanceledContextAborts(t *testing.T) {
	canceled := &scriptedBackend{name: "canceled", fn: func(int) (string, error) {
		return "", context.Canceled
	}}
	fallback := &scriptedBackend{name: "fallback", fn: func(int) (string, error) {
		return "ok", nil
	}}
	g, _ := testGateway(canceled.backend(false), fallback.backend(false))

	if _, err := g.Infer(context.Background(), InferRequest{Prompt: "hi"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fallback.calls != 0 {
		t.Errorf("cancellation must abort the chain")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&httpStatusError{status: 429}, true},
		{&httpStatusError{status: 500}, true},
		{&httpStatusError{status: 503}, true},
		{&httpStatusError{status: 504}, true},
		{&httpStatusError{status: 400}, false},
		{&httpStatusError{status: 401}, false},
		{context.DeadlineExceeded, true},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := isTransient(tt.err); got != tt.want {
			t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
