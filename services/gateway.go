package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/wendylandcan/liqingai/config"
)

// ModelHint lets a caller steer backend selection without naming models.
type ModelHint int

const (
	// ModelDefault selects the low-latency, low-cost chain.
	ModelDefault ModelHint = iota
	// ModelCapable forces the higher-capability model, as do attachments.
	ModelCapable
)

// Attachment is a binary part (image evidence, audio for transcription)
// shipped alongside the prompt.
type Attachment struct {
	MIME string
	Data []byte
}

// InferRequest is the gateway's uniform call contract.
type InferRequest struct {
	System      string
	Prompt      string
	JSONMode    bool
	Temperature float32
	Attachments []Attachment
	Hint        ModelHint
}

// backend is one entry in the ordered fallback chain.
type backend struct {
	name     string
	textOnly bool
	generate func(ctx context.Context, req InferRequest) (string, error)
}

// Gateway wraps the configured inference backends behind retry, timeout
// and fall-through. JSON-mode responses pass through the response
// validator before being returned.
type Gateway struct {
	maxAttempts int
	baseDelay   time.Duration
	callTimeout time.Duration

	chainFor func(req InferRequest) []backend
	sleep    func(d time.Duration)
}

// NewGateway builds the production chain: optional OpenAI primary for
// cheap text work, Gemini flash as the main backend with a pinned stable
// variant behind it, Gemini pro when the request is multimodal or the
// caller asks for capability.
func NewGateway(cfg *config.Config) *Gateway {
	flash := defaultGeminiModel
	if cfg.Gemini.Model != "" {
		flash = cfg.Gemini.Model
	}
	var openai *ChatGPT
	if cfg.Openai.GptApiKey != "" {
		openai = NewChatGPT(cfg.Openai.GptApiKey, cfg.Openai.Model)
	}

	g := &Gateway{
		maxAttempts: cfg.Inference.MaxAttempts,
		baseDelay:   time.Duration(cfg.Inference.BaseDelayMs) * time.Millisecond,
		callTimeout: time.Duration(cfg.Inference.TimeoutSeconds) * time.Second,
		sleep:       time.Sleep,
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = 3
	}
	if g.baseDelay <= 0 {
		g.baseDelay = 500 * time.Millisecond
	}
	if g.callTimeout <= 0 {
		g.callTimeout = 45 * time.Second
	}

	g.chainFor = func(req InferRequest) []backend {
		if req.Hint == ModelCapable || len(req.Attachments) > 0 {
			return []backend{geminiBackend(capableGeminiModel), geminiBackend(flash)}
		}
		var chain []backend
		if openai != nil {
			chain = append(chain, openai.backend())
		}
		return append(chain, geminiBackend(flash), geminiBackend(stableGeminiModel))
	}
	return g
}

// Infer walks the fallback chain: attempt with retries, classify the
// failure, fall through to the next backend. In JSON mode the raw text is
// not trusted; the validator locates and checks the payload, and a parse
// failure is surfaced as ErrMalformedOutput rather than trying another
// backend with the same prompt.
func (g *Gateway) Infer(ctx context.Context, req InferRequest) (string, error) {
	var lastErr error
	for _, b := range g.chainFor(req) {
		if b.textOnly && len(req.Attachments) > 0 {
			continue
		}
		text, err := g.attempt(ctx, b, req)
		if err == nil {
			if req.JSONMode {
				return ExtractJSON(text)
			}
			return text, nil
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		log.Printf("inference backend %s failed: %v", b.name, err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no backend accepted the request")
	}
	return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, lastErr)
}

// attempt retries one backend with exponential backoff on transient
// failures. Non-transient failures (bad request, auth) fail immediately.
// Each call races a hard wall-clock timeout, and a timeout counts as
// transient.
func (g *Gateway) attempt(ctx context.Context, b backend, req InferRequest) (string, error) {
	var lastErr error
	for i := 0; i < g.maxAttempts; i++ {
		if i > 0 {
			g.sleep(g.baseDelay * time.Duration(1<<(i-1)))
		}
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		text, err := b.generate(callCtx, req)
		cancel()
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || !isTransient(err) {
			return "", err
		}
	}
	return "", lastErr
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return transientStatus(gerr.Code)
	}
	var herr *httpStatusError
	if errors.As(err, &herr) {
		return transientStatus(herr.status)
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
