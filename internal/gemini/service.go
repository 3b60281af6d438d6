// Package gemini wraps the Gemini generation API behind a small service
// with a fixed request/response contract.
//
// The service is constructed exactly once at process start and passed to
// handlers explicitly. Construction failures (missing key, client setup)
// are fatal: the process must not serve chat requests without a configured
// client. After construction, Chat never returns an error; failures are
// classified into the Reply kinds below and logged server-side.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/sakay/genchat/internal/log"
)

const (
	// GenerationModel is the model used for content generation. It is
	// pinned to a known-supported identifier and deliberately overrides
	// whatever GENERATIVE_MODEL is configured.
	GenerationModel = "gemini-2.5-flash"

	// QuotaApology is returned to the user when the remote side reports
	// quota exhaustion. It is the one failure presented as a normal reply.
	QuotaApology = "I'm sorry, but I've reached my usage limit for now. " +
		"Please try again later or contact support if this persists."

	// previewLen bounds how much message/response text reaches the logs.
	previewLen = 70
)

// ErrNoAPIKey indicates the Gemini API key is absent or empty.
var ErrNoAPIKey = errors.New("GEMINI_API_KEY is not set")

// Kind classifies the outcome of a Chat call.
type Kind int

const (
	// KindNone means no answer is available: empty input, withheld
	// response, or a remote failure. The transport layer translates this
	// into a generic error body.
	KindNone Kind = iota

	// KindAnswer carries the exact text returned by the remote model.
	KindAnswer

	// KindDegraded carries a fixed user-facing message produced in place
	// of an answer (currently only quota exhaustion).
	KindDegraded
)

// Reply is the explicit result of a Chat call. Distinguishing the kinds
// keeps "no answer" from being conflated with "system down".
type Reply struct {
	Kind Kind
	Text string
}

// OK reports whether the reply carries user-presentable text.
func (r Reply) OK() bool { return r.Kind != KindNone }

// generator is the slice of the genai client the service depends on.
// *genai.Models satisfies it; tests substitute a stub.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config contains the parameters for constructing a Service.
type Config struct {
	// APIKey is the Gemini API key. Normalized (whitespace and stray
	// quotes trimmed) before use; empty after normalization is fatal.
	APIKey string

	// Timeout bounds a single generation round trip. Zero disables the
	// deadline and relies on the transport's own behavior.
	Timeout time.Duration

	// Limiter optionally rate-limits outbound calls. Nil disables.
	Limiter *rate.Limiter

	Logger log.Logger
}

// Service mediates all calls to the Gemini generation API.
// Read-only after construction and safe for concurrent use.
type Service struct {
	client  *genai.Client // nil when constructed with a stub in tests
	models  generator
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	logger  log.Logger
}

// New constructs the chat service. It normalizes the API key, configures
// the Gemini client eagerly, and pins the generation model. Any error here
// means the process cannot serve chat requests.
func New(ctx context.Context, cfg Config) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	key := normalizeKey(cfg.APIKey)
	if key == "" {
		logger.Error("gemini api key missing or empty after normalization")
		return nil, ErrNoAPIKey
	}

	logger.Info("configuring gemini client")
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Error("failed to configure gemini client", "error", err)
		return nil, fmt.Errorf("configuring gemini client: %w", err)
	}
	logger.Info("gemini client configured")
	logger.Info("using generation model", "model", GenerationModel)

	return &Service{
		client:  client,
		models:  client.Models,
		model:   GenerationModel,
		timeout: cfg.Timeout,
		limiter: cfg.Limiter,
		logger:  logger,
	}, nil
}

// newWithGenerator builds a Service around a stubbed generator. Tests only.
func newWithGenerator(gen generator, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		models:  gen,
		model:   GenerationModel,
		timeout: cfg.Timeout,
		limiter: cfg.Limiter,
		logger:  logger,
	}
}

// normalizeKey trims surrounding whitespace and stray quote characters
// from an operator-entered API key.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"'`)
	return strings.TrimSpace(key)
}

// Chat sends a user message to the generation model and classifies the
// outcome. It never returns an error: failures after construction stay
// behind this boundary, logged with full detail.
func (s *Service) Chat(ctx context.Context, message string) Reply {
	if s == nil || s.models == nil {
		slog.Error("chat service is not initialized; cannot send message")
		return Reply{}
	}

	if strings.TrimSpace(message) == "" {
		s.logger.Warn("empty message provided, not sending to api")
		return Reply{}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Error("rate limit wait failed", "error", err)
			return Reply{}
		}
	}

	s.logger.Info("sending message to gemini", "preview", preview(message))

	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(message), nil)
	if err != nil {
		if quotaExhausted(err) {
			s.logger.Error("gemini api quota exceeded", "error", err)
			return Reply{Kind: KindDegraded, Text: QuotaApology}
		}
		s.logger.Error("gemini api call failed",
			"error", err,
			"error_type", fmt.Sprintf("%T", err))
		return Reply{}
	}

	text := resp.Text()
	if text == "" {
		// The remote side can withhold text for safety or policy reasons.
		s.logger.Warn("received an empty response from gemini")
		return Reply{}
	}

	s.logger.Info("response received successfully", "preview", preview(text))
	return Reply{Kind: KindAnswer, Text: text}
}

// quotaExhausted reports whether err signals rate/usage limit exhaustion.
// The typed check covers the structured API error; the string fallback
// covers errors the SDK wraps opaquely.
func quotaExhausted(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota exceeded") ||
		strings.Contains(msg, "429")
}

// preview truncates s for logging so full content never lands in logs at
// info level.
func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen] + "..."
}

// ModelInfo describes a remotely available generation model.
type ModelInfo struct {
	Name        string
	DisplayName string
	Description string
}

// ListModels returns the models that support content generation.
// Debug tooling; requires a real client.
func (s *Service) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if s.client == nil {
		return nil, errors.New("gemini client is not configured")
	}

	var out []ModelInfo
	for m, err := range s.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing models: %w", err)
		}
		if !slices.Contains(m.SupportedActions, "generateContent") {
			continue
		}
		out = append(out, ModelInfo{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			Description: m.Description,
		})
	}
	return out, nil
}
