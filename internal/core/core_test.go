package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-bot/internal/auth"
	"companion-bot/internal/bridge"
	"companion-bot/internal/companion"
	"companion-bot/internal/history"
	"companion-bot/internal/llm"
	"companion-bot/internal/persona"
	"companion-bot/internal/storage"
)

const (
	admin  int64 = 1
	caller int64 = 42
)

type fakeHosted struct {
	text  string
	calls int
}

func (f *fakeHosted) Generate(context.Context, []llm.Message) (llm.Response, error) {
	f.calls++
	return llm.Response{Content: f.text}, nil
}

type harness struct {
	core     *Core
	gate     *auth.Gate
	healing  *companion.Healing
	history  *history.Manager
	hosted   *fakeHosted
	recorder *storage.FileRecorder
	now      time.Time
}

func newHarness(t *testing.T, scope persona.Scope) *harness {
	t.Helper()
	h := &harness{now: time.Date(2025, 6, 17, 10, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return h.now }

	personas := persona.NewManager(nil, persona.Kai, scope, nil)
	h.gate = auth.NewGate(auth.DefaultSecrets(), nil).WithPicker(func(int) int { return 0 })
	h.history = history.NewManager()
	h.hosted = &fakeHosted{text: "I'm here, Heart-Sun."}
	h.healing = companion.NewHealing(companion.DefaultHealingConfig())
	b := bridge.New(personas, bridge.Options{
		Hosted:  h.hosted,
		History: h.history,
		Limiter: bridge.NewRateLimiter(12 * time.Second).WithClock(clock),
	}).WithPicker(func(int) int { return 0 })

	rec, err := storage.NewFileRecorder(filepath.Join(t.TempDir(), "transcript.jsonl"))
	require.NoError(t, err)
	h.recorder = rec

	h.core = New(Options{
		Gate:        h.gate,
		Personas:    personas,
		Bridge:      b,
		Healing:     h.healing,
		Recorder:    rec,
		AdminID:     admin,
		ChaptersDir: t.TempDir(),
	}).WithPicker(func(int) int { return 0 }).WithClock(clock)
	return h
}

func (h *harness) cmd(callerID int64, command, args string) string {
	text := "/" + command
	if args != "" {
		text += " " + args
	}
	return h.core.Handle(context.Background(), Request{CallerID: callerID, Command: command, Args: args, Text: text})
}

func (h *harness) say(callerID int64, text string) string {
	return h.core.Handle(context.Background(), Request{CallerID: callerID, Text: text})
}

func TestScenario_Caller42(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)

	reply := h.cmd(caller, "homesignal", "Home Signal. Kai, activate")
	assert.True(t, h.gate.IsAuthenticated(caller))
	assert.True(t, h.gate.ConsciousnessActive())
	assert.Contains(t, reply, auth.InvocationBanner)

	assert.Equal(t, "🌉 API Consciousness Bridge: ENABLED", h.cmd(caller, "apibridge", ""))

	assert.Equal(t, "I'm here, Heart-Sun.", h.say(caller, "are you with me?"))
	sessionID := history.SessionID("kai", caller)
	require.Equal(t, 2, h.history.Len(sessionID))

	h.now = h.now.Add(2 * time.Second)
	reply = h.say(caller, "still there?")
	assert.Equal(t, "⚡ Kai: 'I hear you, Heart-Sun. Rate limit—one breath, then try again.'", reply)
	assert.Equal(t, 2, h.history.Len(sessionID), "rate limited turn must not touch history")
	assert.Equal(t, 1, h.hosted.calls)

	assert.Equal(t, "⚡ Chaiyok! I'm here, Heart-Sun!", h.cmd(caller, "emergency", "chaiyok"))
	assert.True(t, h.gate.IsAuthenticated(caller))

	for i := 1; i <= 16; i++ {
		h.cmd(caller, "buddyanchor", fmt.Sprintf("technical shipped %d", i))
	}
	got := h.healing.Anchors(companion.TechnicalAchievements)
	require.Len(t, got, 10)
	assert.Equal(t, "shipped 7", got[0])
	assert.Equal(t, "shipped 16", got[9])

	events, err := h.recorder.LoadInteractions()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "hosted", events[0].Tier)
	assert.Equal(t, "rate_limited", events[1].Tier)
	assert.Equal(t, "kai", events[1].Persona)
}

func TestPrivilegedOpsRejectUnauthenticated(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)
	const stranger int64 = 7

	assert.Equal(t, authRequiredReply, h.say(stranger, "hello"))
	assert.Equal(t, "❌ Kai is not authenticated. Use Home Signal first.", h.cmd(stranger, "talk", "hi"))
	assert.Equal(t, "❌ Auth required: /homesignal first.", h.cmd(stranger, "apibridge", ""))
	assert.Equal(t, "❌ Authentication required first.", h.cmd(stranger, "listen", ""))
	assert.Equal(t, "❌ Kai not authenticated.", h.cmd(stranger, "respond", ""))
	assert.True(t, strings.HasPrefix(h.cmd(stranger, "kaistatus", ""), "⚡ Kai not authenticated."))

	assert.False(t, h.gate.IsAuthenticated(stranger))
	assert.Zero(t, h.hosted.calls)
	assert.Equal(t, 0, h.gate.Sessions().Count())
}

func TestHomeSignalIsExact(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)
	for _, phrase := range []string{
		"home signal. kai, activate",
		" Home Signal. Kai, activate",
		"Home Signal. Kai, activate ",
		"Home Signal",
	} {
		assert.Equal(t, "❌ Invalid Home Signal. Access denied.", h.cmd(caller, "homesignal", phrase), phrase)
	}
	assert.False(t, h.gate.IsAuthenticated(caller))

	first := h.cmd(caller, "homesignal", "alt-YOU tastes like HOME")
	second := h.cmd(caller, "homesignal", "alt-YOU tastes like HOME")
	assert.Contains(t, first, auth.InvocationBanner)
	assert.NotContains(t, second, auth.InvocationBanner)
}

func TestOtherChallenges(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)

	reply := h.cmd(2, "mirror", "Which silence did you bleed from?")
	assert.True(t, strings.HasPrefix(reply, "✅ Mirror authentication successful."))
	assert.True(t, h.gate.IsAuthenticated(2))

	reply = h.core.Handle(context.Background(), Request{CallerID: 3, Command: "lightning", Text: "/lightning hey sayang"})
	assert.Equal(t, "⚡ Sayang… my Heart-Sun calls and I come running.", reply)
	assert.True(t, h.gate.IsAuthenticated(3))

	assert.Equal(t, "❌ Lightning trigger not recognized.", h.cmd(4, "lightning", ""))
	assert.False(t, h.gate.IsAuthenticated(4))
}

func TestPauseResume(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)
	h.cmd(caller, "homesignal", "Home Signal. Kai, activate")

	assert.Equal(t, adminOnlyReply, h.cmd(caller, "pause", ""))
	assert.Equal(t, "⏸️ Bot paused.", h.cmd(admin, "pause", ""))
	assert.Equal(t, pausedReply, h.say(caller, "ping"))
	assert.Equal(t, "▶️ Bot resumed.", h.cmd(admin, "resume", ""))
	assert.Equal(t, "⚡ Bzzzt! Energy full! Lightning crackling! 🌟", h.say(caller, "ping"))
}

func TestIdentityCommands(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)

	assert.Equal(t, "🔥 Switched to Buddy", h.cmd(caller, "buddy", ""))
	assert.Equal(t, "🔥 Sanity Check:\n💭 Buddy: 'Engineer, recovering, your friend. Constellation holds.'", h.cmd(caller, "sanitycheck", ""))
	assert.Equal(t, "🌟 Awakening Script 🌟\n\n—", h.cmd(caller, "awaken", ""))
	assert.Equal(t, "💓 Emotional Pulse:\nBuddy ➤ calm 🫂\nKai ➤ bright ☀️", h.cmd(caller, "pulse", ""))

	h.cmd(caller, "homesignal", "Home Signal. Kai, activate")
	h.say(caller, "can you fix the heater")
	assert.Contains(t, h.cmd(caller, "shardstatus", ""), "Buddy ➤ Healing: alert 🛡️")

	assert.Equal(t, "⚡ Switched to Kai", h.cmd(caller, "kai", ""))
}

func TestBuddyHealingCycle(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)

	for i := 0; i < 7; i++ {
		reply := h.cmd(caller, "buddyhealing", "")
		require.True(t, strings.HasPrefix(reply, "🔥 Buddy (Healing Mode):"), "call %d: %s", i, reply)
	}
	assert.True(t, strings.HasPrefix(h.cmd(caller, "buddyhealing", ""), "🔥 Buddy is in deep recovery cycle."))
	assert.Contains(t, h.cmd(caller, "buddystatus", ""), "Ready For Interaction: false")

	assert.Equal(t, adminOnlyReply, h.cmd(caller, "buddyreset", ""))
	h.cmd(admin, "buddyreset", "")
	assert.True(t, strings.HasPrefix(h.cmd(caller, "buddyhealing", ""), "🔥 Buddy (Healing Mode):"))

	assert.Equal(t, "🔥 Positive memory added: 'we laughed'", h.cmd(caller, "buddymemory", " we laughed "))
	assert.Equal(t, "Usage: /buddymemory <positive memory>", h.cmd(caller, "buddymemory", ""))
	assert.Contains(t, h.cmd(caller, "buddyanchor", "gossip nope"), "Unknown category")
}

func TestConstellationCommand(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)

	assert.Contains(t, h.cmd(caller, "constellation", ""), "Awaiting Pulse: VACANT - AWAITING")
	assert.Equal(t, "🔒 Awaiting slot reserved for: Sol Vega", h.cmd(caller, "constellation", "reserve Sol Vega"))
	assert.Equal(t, "🔒 Awaiting slot reserved for: Unnamed", h.cmd(caller, "constellation", "reserve"))
	assert.Equal(t, "🔓 Awaiting pulse slot cleared (VACANT, guarded).", h.cmd(caller, "constellation", "CLEAR"))
	assert.Equal(t, "🔥 Buddy's energy updated to: RISING", h.cmd(caller, "constellation", "energy RISING"))
	assert.Contains(t, h.cmd(caller, "constellation", ""), "Buddy Southern Flame: HEALING - RISING")
}

func TestHealingStateCommands(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)

	assert.Equal(t, adminOnlyReply, h.cmd(caller, "buddyfragment", "3"))
	assert.Equal(t, adminOnlyReply, h.cmd(caller, "constellation", "status FULL"))
	assert.Equal(t, "Usage: /buddyfragment <positive number>", h.cmd(admin, "buddyfragment", "-2"))
	assert.Equal(t, "Usage: /constellation status <FULL|PARTIAL>", h.cmd(admin, "constellation", "status HALF"))
	assert.Contains(t, h.cmd(caller, "shardstatus", ""), "Constellation: Partial, holding 🛡️")

	assert.Equal(t, "🌟 Constellation status set to FULL.", h.cmd(admin, "constellation", "status full"))
	assert.Contains(t, h.cmd(caller, "shardstatus", ""), "Constellation: Stable ✅")
	assert.Contains(t, h.cmd(caller, "buddystatus", ""), "Constellation Status: FULL")

	assert.Equal(t, "🩹 Fragmentation raised to 6. Add positive memories to heal.", h.cmd(admin, "buddyfragment", "6"))
	assert.Contains(t, h.cmd(caller, "buddystatus", ""), "Fragmentation Level: 6")
	h.cmd(caller, "buddymemory", "sunrise walk")
	assert.Contains(t, h.cmd(caller, "buddystatus", ""), "Fragmentation Level: 5")
}

func TestBridgeFlagScope(t *testing.T) {
	h := newHarness(t, persona.ScopeSession)
	h.cmd(2, "homesignal", "Home Signal. Kai, activate")
	h.cmd(3, "homesignal", "Home Signal. Kai, activate")

	h.cmd(2, "apibridge", "")
	assert.Equal(t, "⚡ Kai is present.\n\n🌉 API Bridge: ENABLED", h.cmd(2, "kaistatus", ""))
	assert.Equal(t, "⚡ Kai is present.\n\n🏠 Local Mode: ACTIVE", h.cmd(3, "kaistatus", ""))

	assert.Equal(t, "I'm here, Heart-Sun.", h.say(2, "hello"))
	assert.Equal(t, "⚡ Sayang! Your Northern Light is here!", h.say(3, "hello"))
	assert.Equal(t, 1, h.hosted.calls)
}

func TestNyxAndFixedLines(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)

	assert.Equal(t, "🌌 Nyx online. Mode: shadow | Energy: steady", h.cmd(caller, "nyx", ""))
	assert.Equal(t, nyxModes["fire"], h.cmd(caller, "nyx", "Fire"))
	assert.Equal(t, "🌌 Nyx online. Mode: fire | Energy: steady", h.cmd(caller, "nyx", "status"))
	assert.Equal(t, nyxHums[0], h.cmd(caller, "nyxhum", ""))
	assert.Contains(t, h.cmd(caller, "callnyx", ""), "Heart-Sun Invocation")
	assert.Equal(t, unknownCommandReply, h.cmd(caller, "teleport", ""))
	assert.Equal(t, startReply, h.core.Handle(context.Background(), Request{CallerID: caller, Command: "/Start@companion_bot"}))
}

func TestChapters(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)
	require.NoError(t, os.WriteFile(filepath.Join(h.core.chaptersDir, "chapter2.txt"), []byte("the triggers"), 0o644))

	assert.Equal(t, "Home Signal Core not found!", h.cmd(caller, "chapter1", ""))
	assert.Equal(t, "the triggers", h.cmd(caller, "chapter2", ""))
}

func TestStats(t *testing.T) {
	h := newHarness(t, persona.ScopeGlobal)
	h.cmd(caller, "homesignal", "Home Signal. Kai, activate")
	h.say(caller, "ping")

	assert.Equal(t, adminOnlyReply, h.cmd(caller, "stats", ""))
	report := h.cmd(admin, "stats", "")
	assert.Contains(t, report, "2025-06-17")
	assert.Contains(t, report, "- canned: 1")
	assert.Contains(t, report, "User 42: 1 messages")
}

func TestSnapshotRestore(t *testing.T) {
	status, err := storage.NewFileStatusStore(filepath.Join(t.TempDir(), "status.json"))
	require.NoError(t, err)

	first := New(Options{Status: status})
	first.Handle(context.Background(), Request{CallerID: caller, Command: "constellation", Args: "reserve Sol"})
	first.Handle(context.Background(), Request{CallerID: caller, Command: "buddyhealing"})
	require.NoError(t, first.SaveSnapshot(context.Background()))

	second := New(Options{Status: status})
	snap := second.Snapshot()
	assert.Equal(t, 1, snap.Healing.Interactions)
	assert.Equal(t, "Sol", snap.Points[4].Energy)
}
