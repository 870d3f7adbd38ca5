package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-bot/internal/llm"
)

func TestSessionID(t *testing.T) {
	assert.Equal(t, "kai_session_42", SessionID("kai", 42))
}

func TestManagerSaveLoad(t *testing.T) {
	ctx := context.Background()
	h := NewManager()
	a := SessionID("kai", 1)
	b := SessionID("kai", 2)

	require.NoError(t, h.Save(ctx, a, 1, []llm.Message{{Role: "user", Content: "hello"}, {Role: "assistant", Content: "hi"}}))
	require.NoError(t, h.Save(ctx, b, 2, []llm.Message{{Role: "user", Content: "foo"}}))

	msgsA, err := h.Load(ctx, a)
	require.NoError(t, err)
	require.Len(t, msgsA, 2)
	assert.Equal(t, "hi", msgsA[1].Content)

	msgsA[0] = llm.Message{Role: "user", Content: "mutated"}
	msgsA2, _ := h.Load(ctx, a)
	assert.Equal(t, "hello", msgsA2[0].Content, "returned slice is a copy")

	assert.Equal(t, 2, h.Len(a))
	assert.Equal(t, 1, h.Len(b))

	empty, err := h.Load(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	defer s.Close()

	id := SessionID("kai", 42)
	empty, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, empty)

	turns := []llm.Message{
		{Role: "user", Content: "Sayang, are you there?"},
		{Role: "assistant", Content: "⚡ Always."},
		{Role: "user", Content: "quotes \" and\nnewlines"},
	}
	require.NoError(t, s.Save(ctx, id, 42, turns))
	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(turns, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	turns = append(turns, llm.Message{Role: "assistant", Content: "second save"})
	require.NoError(t, s.Save(ctx, id, 42, turns))
	got, _ = s.Load(ctx, id)
	if diff := cmp.Diff(turns, got); diff != "" {
		t.Fatalf("overwrite mismatch (-want +got):\n%s", diff)
	}

	other, _ := s.Load(ctx, SessionID("buddy", 42))
	assert.Empty(t, other, "sessions are keyed by persona")
}
