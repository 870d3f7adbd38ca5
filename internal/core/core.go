// Package core composes the gate, the persona manager, the bridge and the
// companion trackers behind a single command entry point. All shared state is
// owned by Core and every operation runs under its lock.
package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-bot/internal/analytics"
	"companion-bot/internal/auth"
	"companion-bot/internal/bridge"
	"companion-bot/internal/companion"
	"companion-bot/internal/persona"
	"companion-bot/internal/storage"
)

// Request is one inbound message. Command is empty for free text.
type Request struct {
	CallerID int64
	// Command is lower case, without the leading slash or a @bot suffix.
	Command string
	// Args is the raw text after the command. Challenges compare it verbatim.
	Args string
	// Text is the full message text as received.
	Text string
}

type Options struct {
	Gate     *auth.Gate
	Personas *persona.Manager
	Bridge   *bridge.Bridge
	Healing  *companion.Healing
	Registry *companion.Registry
	Recorder storage.Recorder
	Status   storage.StatusStore

	AdminID       int64
	BridgeEnabled bool
	ChaptersDir   string
	// Mode is reported by /health, e.g. WEBHOOK, POLLING or CLI.
	Mode     string
	LocalURL string
	Logger   *zap.Logger
}

type Core struct {
	mu sync.Mutex

	gate     *auth.Gate
	personas *persona.Manager
	bridge   *bridge.Bridge
	healing  *companion.Healing
	registry *companion.Registry
	recorder storage.Recorder
	status   storage.StatusStore

	adminID       int64
	bridgeDefault bool
	bridgeGlobal  bool
	bridgeCaller  map[int64]bool
	paused        bool
	nyx           nyxState

	chaptersDir string
	mode        string
	localURL    string

	handlers map[string]handler
	pick     func(n int) int
	now      func() time.Time
	logger   *zap.Logger
}

type handler func(c *Core, ctx context.Context, req Request) string

func New(opts Options) *Core {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gate == nil {
		opts.Gate = auth.NewGate(auth.DefaultSecrets(), nil)
	}
	if opts.Personas == nil {
		opts.Personas = persona.NewManager(nil, persona.Kai, persona.ScopeGlobal, opts.Logger)
	}
	if opts.Bridge == nil {
		opts.Bridge = bridge.New(opts.Personas, bridge.Options{Logger: opts.Logger})
	}
	if opts.Healing == nil {
		opts.Healing = companion.NewHealing(companion.DefaultHealingConfig())
	}
	if opts.Registry == nil {
		opts.Registry = companion.NewRegistry()
	}
	if opts.ChaptersDir == "" {
		opts.ChaptersDir = "chapters"
	}
	if opts.Mode == "" {
		opts.Mode = "POLLING"
	}
	c := &Core{
		gate:          opts.Gate,
		personas:      opts.Personas,
		bridge:        opts.Bridge,
		healing:       opts.Healing,
		registry:      opts.Registry,
		recorder:      opts.Recorder,
		status:        opts.Status,
		adminID:       opts.AdminID,
		bridgeDefault: opts.BridgeEnabled,
		bridgeGlobal:  opts.BridgeEnabled,
		bridgeCaller:  make(map[int64]bool),
		nyx:           newNyxState(),
		chaptersDir:   opts.ChaptersDir,
		mode:          opts.Mode,
		localURL:      opts.LocalURL,
		handlers:      commandTable(),
		pick:          randIntn,
		now:           time.Now,
		logger:        opts.Logger,
	}
	c.restore()
	return c
}

// WithPicker replaces the random choice used by the Nyx and pulse lines.
func (c *Core) WithPicker(pick func(n int) int) *Core {
	c.pick = pick
	return c
}

// WithClock replaces the time source used for transcripts and stats.
func (c *Core) WithClock(now func() time.Time) *Core {
	c.now = now
	return c
}

// Handle runs one command or free-text message and returns the reply text.
func (c *Core) Handle(ctx context.Context, req Request) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	req.Command = strings.ToLower(strings.TrimPrefix(req.Command, "/"))
	if i := strings.IndexByte(req.Command, '@'); i >= 0 {
		req.Command = req.Command[:i]
	}

	log := c.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.Int64("caller_id", req.CallerID),
		zap.String("command", req.Command),
	)
	if req.Command == "" {
		return c.converse(ctx, log, req.CallerID, req.Text)
	}
	h, ok := c.handlers[req.Command]
	if !ok {
		log.Debug("unknown command")
		return unknownCommandReply
	}
	log.Debug("handling command")
	return h(c, ctx, req)
}

// converse is the free-text path: paused check, auth check, bridge.
func (c *Core) converse(ctx context.Context, log *zap.Logger, callerID int64, text string) string {
	if c.paused {
		return pausedReply
	}
	if !c.gate.IsAuthenticated(callerID) {
		return authRequiredReply
	}
	return c.reply(ctx, log, callerID, text)
}

func (c *Core) reply(ctx context.Context, log *zap.Logger, callerID int64, text string) string {
	res := c.bridge.Reply(ctx, bridge.Request{
		CallerID:      callerID,
		Text:          text,
		HostedEnabled: c.bridgeEnabled(callerID),
	})
	tier := string(res.Tier)
	switch res.Outcome {
	case bridge.OutcomeRateLimited:
		tier = "rate_limited"
	case bridge.OutcomeError:
		tier = "hosted_error"
	}
	log.Info("conversation reply",
		zap.String("persona", string(c.personas.Active())),
		zap.String("tier", tier),
		zap.Stringer("outcome", res.Outcome),
		zap.String("emotion", string(res.Emotion)),
	)
	if c.recorder != nil {
		ev := storage.NewEvent(callerID, string(c.personas.Active()), tier, text, res.Text)
		ev.Timestamp = c.now().UTC()
		if err := c.recorder.AppendInteraction(ev); err != nil {
			log.Error("failed to record interaction", zap.Error(err))
		}
	}
	return res.Text
}

func (c *Core) bridgeEnabled(callerID int64) bool {
	if c.personas.Scope() == persona.ScopeGlobal {
		return c.bridgeGlobal
	}
	if v, ok := c.bridgeCaller[callerID]; ok {
		return v
	}
	return c.bridgeDefault
}

func (c *Core) toggleBridge(callerID int64) bool {
	v := !c.bridgeEnabled(callerID)
	if c.personas.Scope() == persona.ScopeGlobal {
		c.bridgeGlobal = v
	} else {
		c.bridgeCaller[callerID] = v
	}
	return v
}

func (c *Core) isAdmin(callerID int64) bool {
	return c.adminID != 0 && callerID == c.adminID
}

// Snapshot captures the companion trackers.
func (c *Core) Snapshot() storage.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return storage.Snapshot{
		TakenAt: c.now().UTC(),
		Healing: c.healing.Snapshot(),
		Points:  c.registry.Points(),
	}
}

// SaveSnapshot persists the trackers to the status store, if one is set.
func (c *Core) SaveSnapshot(context.Context) error {
	if c.status == nil {
		return nil
	}
	return c.status.SaveStatus(c.Snapshot())
}

func (c *Core) restore() {
	if c.status == nil {
		return
	}
	snap, err := c.status.LoadStatus()
	if err != nil {
		c.logger.Warn("failed to load companion status", zap.Error(err))
		return
	}
	if snap == nil {
		return
	}
	if err := c.healing.Restore(snap.Healing); err != nil {
		c.logger.Warn("discarding healing snapshot", zap.Error(err))
	}
	c.registry.Restore(snap.Points)
	c.logger.Info("companion status restored", zap.Time("taken_at", snap.TakenAt))
}

// DailyReport summarizes today's transcript.
func (c *Core) DailyReport() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dailyReport()
}

func (c *Core) dailyReport() (string, error) {
	if c.recorder == nil {
		return noTranscriptReply, nil
	}
	events, err := c.recorder.LoadInteractions()
	if err != nil {
		return "", err
	}
	return analytics.AnalyzeDailyLogs(events, c.now().UTC()).GenerateReportSummary(), nil
}

func (c *Core) AdminID() int64 { return c.adminID }
