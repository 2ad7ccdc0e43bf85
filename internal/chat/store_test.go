package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionHasUniqueID(t *testing.T) {
	s := NewStore(10)
	a := s.NewSession()
	b := s.NewSession()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Len(t, s.Sessions(), 2)
}

func TestAppendAndHistory(t *testing.T) {
	s := NewStore(10)
	id := s.NewSession()

	s.Append(id, Message{Role: RoleUser, Content: "hello"})
	s.Append(id, Message{Role: RoleAssistant, Content: "hi"})

	history := s.History(id)
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "hi", history[1].Content)
	assert.NotEmpty(t, history[0].ID)
	assert.False(t, history[0].Time.IsZero())
}

func TestAppendCreatesUnknownSession(t *testing.T) {
	s := NewStore(10)
	s.Append("stale-session", Message{Role: RoleUser, Content: "still here"})
	assert.Len(t, s.History("stale-session"), 1)
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	s := NewStore(3)
	id := s.NewSession()

	for i := range 5 {
		s.Append(id, Message{Role: RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}

	history := s.History(id)
	require.Len(t, history, 3)
	assert.Equal(t, "msg-2", history[0].Content)
	assert.Equal(t, "msg-4", history[2].Content)
}

func TestErrorMessagesAreKept(t *testing.T) {
	s := NewStore(10)
	id := s.NewSession()

	s.Append(id, Message{Role: RoleUser, Content: "ping"})
	s.Append(id, Message{Role: RoleAssistant, Content: "LLM unreachable", Err: true})

	history := s.History(id)
	require.Len(t, history, 2)
	assert.True(t, history[1].Err)
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore(10)
	id := s.NewSession()
	s.Append(id, Message{Role: RoleUser, Content: "original"})

	history := s.History(id)
	history[0].Content = "mutated"

	assert.Equal(t, "original", s.History(id)[0].Content)
}
