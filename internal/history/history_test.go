package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGet_UnknownUser(t *testing.T) {
	s := NewStore(10)

	msgs := s.Get("nobody")
	assert.Empty(t, msgs)
	assert.NotNil(t, msgs, "empty sequence, not nil")
}

func TestAppend_ThenGet(t *testing.T) {
	s := NewStore(10)

	s.Append("u1", RoleUser, "hi")

	msgs := s.Get("u1")
	require.Len(t, msgs, 1)
	assert.Equal(t, Message{Role: RoleUser, Content: "hi"}, msgs[0])
}

func TestAppend_PreservesOrder(t *testing.T) {
	s := NewStore(10)

	s.Append("u1", RoleUser, "first")
	s.Append("u1", RoleAssistant, "second")

	msgs := s.Get("u1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestAppend_UsersAreIsolated(t *testing.T) {
	s := NewStore(10)

	s.Append("u1", RoleUser, "for u1")
	s.Append("u2", RoleUser, "for u2")

	require.Len(t, s.Get("u1"), 1)
	require.Len(t, s.Get("u2"), 1)
	assert.Equal(t, "for u1", s.Get("u1")[0].Content)
}

func TestAppend_EvictsOldestBeyondCap(t *testing.T) {
	s := NewStore(3)

	for i := range 5 {
		s.Append("u1", RoleUser, fmt.Sprintf("msg-%d", i))
	}

	msgs := s.Get("u1")
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg-2", msgs[0].Content, "oldest entries evicted first")
	assert.Equal(t, "msg-4", msgs[2].Content)
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := NewStore(10)
	s.Append("u1", RoleUser, "original")

	msgs := s.Get("u1")
	msgs[0].Content = "mutated"

	assert.Equal(t, "original", s.Get("u1")[0].Content)
}

func TestAppend_ConcurrentSameUser(t *testing.T) {
	const goroutines = 16
	const perGoroutine = 50

	s := NewStore(goroutines * perGoroutine)

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perGoroutine {
				s.Append("shared", RoleUser, fmt.Sprintf("g%d-%d", g, i))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*perGoroutine, s.Len("shared"),
		"concurrent appends must not lose entries")
}

func TestNewStore_NonPositiveCapacity(t *testing.T) {
	s := NewStore(0)
	s.Append("u1", RoleUser, "x")
	assert.Equal(t, 1, s.Len("u1"))
}
