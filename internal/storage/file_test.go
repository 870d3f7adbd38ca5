package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-bot/internal/companion"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "log.jsonl")
	rec, err := NewFileRecorder(p)
	require.NoError(t, err)

	ev1 := Event{ID: "a", Timestamp: time.Unix(1, 0).UTC(), UserID: 1, Persona: "kai", Tier: "local", UserMessage: "hi", AssistantResponse: "hello"}
	ev2 := NewEvent(2, "buddy", "canned", "foo", "bar")
	require.NoError(t, rec.AppendInteraction(ev1))
	require.NoError(t, rec.AppendInteraction(ev2))

	events, err := rec.LoadInteractions()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ev1, events[0])
	assert.Equal(t, int64(2), events[1].UserID)
	assert.NotEmpty(t, events[1].ID)
	assert.Equal(t, "canned", events[1].Tier)
	assert.Equal(t, "buddy", events[1].Persona)

	st, err := os.Stat(p)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}

func TestFileRecorder_SkipsGarbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(p, []byte("not json\n\n{\"user_id\":5}\n"), 0o644))
	rec, err := NewFileRecorder(p)
	require.NoError(t, err)

	events, err := rec.LoadInteractions()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(5), events[0].UserID)
}

func TestFileStatusStore_RoundTrip(t *testing.T) {
	s, err := NewFileStatusStore(filepath.Join(t.TempDir(), "data", "status.json"))
	require.NoError(t, err)
	snap, err := s.LoadStatus()
	require.NoError(t, err)
	assert.Nil(t, snap, "missing file means no snapshot")

	h := companion.NewHealing(companion.DefaultHealingConfig())
	h.Record()
	r := companion.NewRegistry()
	r.Reserve("Sol")
	want := Snapshot{TakenAt: time.Unix(100, 0).UTC(), Healing: h.Snapshot(), Points: r.Points()}
	require.NoError(t, s.SaveStatus(want))

	got, err := s.LoadStatus()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Healing.Interactions)
	require.Len(t, got.Points, 5)
	assert.Equal(t, "Sol", got.Points[4].Energy)
	assert.True(t, got.TakenAt.Equal(want.TakenAt))
}
