package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakay/genchat/internal/auth"
	"github.com/sakay/genchat/internal/gemini"
	"github.com/sakay/genchat/internal/history"
	"github.com/sakay/genchat/internal/log"
)

// stubChat returns a fixed reply and records the messages it was given.
type stubChat struct {
	reply    gemini.Reply
	messages []string
}

func (s *stubChat) Chat(_ context.Context, message string) gemini.Reply {
	s.messages = append(s.messages, message)
	return s.reply
}

// asUser injects a verified identity the way the auth gate does.
func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func newChatRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestChatHandler_Success(t *testing.T) {
	chat := &stubChat{reply: gemini.Reply{Kind: gemini.KindAnswer, Text: "Hello, u1!"}}
	store := history.NewStore(10)
	handler := NewChatHandler(chat, store, log.NewNop())

	w := httptest.NewRecorder()
	handler.handle(w, asUser(newChatRequest(`{"message": "hi"}`), "u1"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Hello, u1!", resp.Response)

	require.Equal(t, []string{"hi"}, chat.messages)

	msgs := store.Get("u1")
	require.Len(t, msgs, 2, "both sides of the exchange are recorded")
	assert.Equal(t, history.Message{Role: history.RoleUser, Content: "hi"}, msgs[0])
	assert.Equal(t, history.Message{Role: history.RoleAssistant, Content: "Hello, u1!"}, msgs[1])
}

func TestChatHandler_DegradedReplyIsStillAResponse(t *testing.T) {
	chat := &stubChat{reply: gemini.Reply{Kind: gemini.KindDegraded, Text: gemini.QuotaApology}}
	store := history.NewStore(10)
	handler := NewChatHandler(chat, store, log.NewNop())

	w := httptest.NewRecorder()
	handler.handle(w, asUser(newChatRequest(`{"message": "hi"}`), "u1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "usage limit")
}

func TestChatHandler_NoAnswerBecomesGenericError(t *testing.T) {
	chat := &stubChat{reply: gemini.Reply{}}
	store := history.NewStore(10)
	handler := NewChatHandler(chat, store, log.NewNop())

	w := httptest.NewRecorder()
	handler.handle(w, asUser(newChatRequest(`{"message": "hi"}`), "u1"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "generation failed")

	msgs := store.Get("u1")
	require.Len(t, msgs, 1, "the user message is kept, no assistant entry")
	assert.Equal(t, history.RoleUser, msgs[0].Role)
}

func TestChatHandler_InvalidBody(t *testing.T) {
	handler := NewChatHandler(&stubChat{}, history.NewStore(10), log.NewNop())

	w := httptest.NewRecorder()
	handler.handle(w, asUser(newChatRequest(`{not json`), "u1"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestChatHandler_EmptyMessage(t *testing.T) {
	chat := &stubChat{}
	handler := NewChatHandler(chat, history.NewStore(10), log.NewNop())

	for _, body := range []string{`{}`, `{"message": ""}`, `{"message": "   "}`} {
		w := httptest.NewRecorder()
		handler.handle(w, asUser(newChatRequest(body), "u1"))

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
	assert.Empty(t, chat.messages, "the service is never called for vacuous input")
}

func TestChatHandler_MessageTooLong(t *testing.T) {
	handler := NewChatHandler(&stubChat{}, history.NewStore(10), log.NewNop())

	long := strings.Repeat("a", MaxMessageLength+1)
	w := httptest.NewRecorder()
	handler.handle(w, asUser(newChatRequest(`{"message": "`+long+`"}`), "u1"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_NoIdentity(t *testing.T) {
	handler := NewChatHandler(&stubChat{}, history.NewStore(10), log.NewNop())

	w := httptest.NewRecorder()
	handler.handle(w, newChatRequest(`{"message": "hi"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
