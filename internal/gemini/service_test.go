package gemini

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sakay/genchat/internal/log"
)

// stubGenerator is a deterministic generator for testing Chat's
// classification logic without network access.
type stubGenerator struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (g *stubGenerator) GenerateContent(_ context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: g.text}},
			},
		}},
	}, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestChat_Success_ReturnsExactText(t *testing.T) {
	gen := &stubGenerator{text: "Hello!  How can I help?\n"}
	svc := newWithGenerator(gen, Config{Logger: log.NewNop()})

	reply := svc.Chat(t.Context(), "hi there")

	assert.Equal(t, KindAnswer, reply.Kind)
	assert.Equal(t, "Hello!  How can I help?\n", reply.Text, "remote text must pass through unmodified")
	assert.True(t, reply.OK())
	assert.Equal(t, 1, gen.callCount())
}

func TestChat_EmptyMessage_NeverCallsRemote(t *testing.T) {
	for _, msg := range []string{"", "   ", "\n\t  "} {
		gen := &stubGenerator{text: "unused"}
		svc := newWithGenerator(gen, Config{Logger: log.NewNop()})

		reply := svc.Chat(t.Context(), msg)

		assert.Equal(t, KindNone, reply.Kind, "message %q", msg)
		assert.False(t, reply.OK())
		assert.Zero(t, gen.callCount(), "remote API must not be called for %q", msg)
	}
}

func TestChat_QuotaExhausted_ReturnsApology(t *testing.T) {
	gen := &stubGenerator{err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}}
	svc := newWithGenerator(gen, Config{Logger: log.NewNop()})

	reply := svc.Chat(t.Context(), "hello")

	assert.Equal(t, KindDegraded, reply.Kind)
	assert.Equal(t, QuotaApology, reply.Text)
	assert.True(t, reply.OK(), "quota exhaustion is user-visible, not absent")
}

func TestChat_OtherError_ReturnsNoneAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithWriter(&buf, log.Config{Level: slog.LevelDebug})

	gen := &stubGenerator{err: errors.New("connection refused")}
	svc := newWithGenerator(gen, Config{Logger: logger})

	reply := svc.Chat(t.Context(), "hello")

	assert.Equal(t, KindNone, reply.Kind)
	assert.Empty(t, reply.Text)
	assert.Contains(t, buf.String(), "gemini api call failed")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestChat_EmptyRemoteText_ReturnsNone(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithWriter(&buf, log.Config{})

	gen := &stubGenerator{text: ""}
	svc := newWithGenerator(gen, Config{Logger: logger})

	reply := svc.Chat(t.Context(), "hello")

	assert.Equal(t, KindNone, reply.Kind)
	assert.Contains(t, buf.String(), "empty response")
}

func TestChat_NilService(t *testing.T) {
	var svc *Service

	reply := svc.Chat(context.Background(), "hello")
	assert.Equal(t, KindNone, reply.Kind)
}

func TestNew_MissingAPIKey(t *testing.T) {
	for _, key := range []string{"", "   ", `""`, `''`, ` "" `} {
		_, err := New(t.Context(), Config{APIKey: key, Logger: log.NewNop()})
		require.Error(t, err, "key %q", key)
		assert.ErrorIs(t, err, ErrNoAPIKey)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123"},
		{"  abc123  ", "abc123"},
		{`"abc123"`, "abc123"},
		{`'abc123'`, "abc123"},
		{` "abc123" `, "abc123"},
		{`" abc123 "`, "abc123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeKey(tt.in), "input %q", tt.in)
	}
}

func TestQuotaExhausted(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"api error 429", genai.APIError{Code: 429}, true},
		{"api error status", genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}, true},
		{"wrapped string 429", errors.New("rpc error: code 429 Too Many Requests"), true},
		{"quota string", errors.New("quota exceeded for metric"), true},
		{"unrelated api error", genai.APIError{Code: 500, Status: "INTERNAL"}, false},
		{"plain error", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quotaExhausted(tt.err))
		})
	}
}

func TestPreview_Truncates(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}

	got := preview(string(long))
	assert.Len(t, got, previewLen+3)
	assert.Equal(t, "short", preview("short"))
}
