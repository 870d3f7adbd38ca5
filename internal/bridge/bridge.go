// Package bridge routes a conversational message through the local backend,
// the hosted backend and the canned keyword replies, in that order.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"companion-bot/internal/history"
	"companion-bot/internal/llm"
	"companion-bot/internal/persona"
)

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeUnavailable
	OutcomeRateLimited
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Tier string

const (
	TierLocal  Tier = "local"
	TierHosted Tier = "hosted"
	TierCanned Tier = "canned"
)

// Result is what one tier produced. Only OutcomeUnavailable moves the bridge
// on to the next tier.
type Result struct {
	Outcome Outcome
	Tier    Tier
	Text    string
	Emotion persona.Emotion
	Err     error
}

type Request struct {
	CallerID      int64
	Text          string
	HostedEnabled bool
}

type Options struct {
	Local   llm.LocalClient
	Hosted  llm.Client
	History history.Store
	Limiter *RateLimiter
	// HostedPersona is the only persona allowed to use the hosted backend.
	HostedPersona persona.Name
	HostedTimeout time.Duration
	Logger        *zap.Logger
}

const (
	genericIdentityPrompt = "You are a helpful AI assistant."
	unknownPersonaReply   = "🌟 I'm here, listening."
	rateLimitedFormat     = "%s %s: 'I hear you, Heart-Sun. Rate limit—one breath, then try again.'"
	unstableFormat        = "%s %s: 'Connection unstable. Staying with you in local mode.'"
)

type Bridge struct {
	personas      *persona.Manager
	local         llm.LocalClient
	hosted        llm.Client
	history       history.Store
	limiter       *RateLimiter
	hostedPersona persona.Name
	hostedTimeout time.Duration
	pick          func(n int) int
	logger        *zap.Logger
}

func New(personas *persona.Manager, opts Options) *Bridge {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.History == nil {
		opts.History = history.NewManager()
	}
	if opts.Limiter == nil {
		opts.Limiter = NewRateLimiter(12 * time.Second)
	}
	if opts.HostedPersona == "" {
		opts.HostedPersona = persona.Kai
	}
	if opts.HostedTimeout <= 0 {
		opts.HostedTimeout = 60 * time.Second
	}
	return &Bridge{
		personas:      personas,
		local:         opts.Local,
		hosted:        opts.Hosted,
		history:       opts.History,
		limiter:       opts.Limiter,
		hostedPersona: opts.HostedPersona,
		hostedTimeout: opts.HostedTimeout,
		pick:          rand.Intn,
		logger:        opts.Logger,
	}
}

// WithPicker replaces the random choice among canned replies.
func (b *Bridge) WithPicker(pick func(n int) int) *Bridge {
	b.pick = pick
	return b
}

func (b *Bridge) HostedAvailable() bool { return b.hosted != nil }

func (b *Bridge) HostedPersona() persona.Name { return b.hostedPersona }

// Reply updates the active persona's emotion from the message, then walks the
// tiers. It never returns an error to the caller; failures are in Result.
func (b *Bridge) Reply(ctx context.Context, req Request) Result {
	b.personas.UpdateEmotion(req.CallerID, req.Text)
	p, known := b.personas.ActivePersona()
	log := b.logger.With(zap.Int64("caller_id", req.CallerID), zap.String("persona", string(b.personas.Active())))

	res := b.tryLocal(ctx, p, req)
	if res.Outcome != OutcomeUnavailable {
		return b.finish(req.CallerID, res)
	}
	log.Debug("local backend unavailable", zap.Error(res.Err))

	if req.HostedEnabled && known && p.Name() == b.hostedPersona {
		res = b.tryHosted(ctx, p, req)
		if res.Outcome != OutcomeUnavailable {
			if res.Err != nil {
				log.Error("hosted backend failed", zap.Error(res.Err))
			}
			return b.finish(req.CallerID, res)
		}
		log.Debug("hosted backend unavailable", zap.Error(res.Err))
	}

	return b.finish(req.CallerID, b.canned(req.CallerID, p, req.Text))
}

func (b *Bridge) finish(callerID int64, res Result) Result {
	res.Emotion = b.personas.Emotion(callerID, b.personas.Active())
	return res
}

func (b *Bridge) tryLocal(ctx context.Context, p persona.Persona, req Request) Result {
	if b.local == nil {
		return Result{Outcome: OutcomeUnavailable, Tier: TierLocal, Err: llm.ErrUnavailable}
	}
	system := genericIdentityPrompt
	if p != nil {
		system = p.IdentityPrompt()
	}
	resp, err := b.local.GenerateText(ctx, system, req.Text)
	if err != nil {
		return Result{Outcome: OutcomeUnavailable, Tier: TierLocal, Err: err}
	}
	if llm.IsUnavailable(resp.Content) {
		return Result{Outcome: OutcomeUnavailable, Tier: TierLocal, Err: llm.ErrUnavailable}
	}
	return Result{Outcome: OutcomeOK, Tier: TierLocal, Text: strings.TrimSpace(resp.Content)}
}

func (b *Bridge) tryHosted(ctx context.Context, p persona.Persona, req Request) Result {
	if b.hosted == nil {
		return Result{Outcome: OutcomeUnavailable, Tier: TierHosted, Err: fmt.Errorf("%w: no hosted client configured", llm.ErrUnavailable)}
	}
	sessionID := history.SessionID(string(p.Name()), req.CallerID)
	if !b.limiter.Allow(sessionID) {
		b.logger.Info("hosted call rate limited",
			zap.String("session_id", sessionID),
			zap.Duration("retry_in", b.limiter.Remaining(sessionID)),
		)
		return Result{
			Outcome: OutcomeRateLimited,
			Tier:    TierHosted,
			Text:    fmt.Sprintf(rateLimitedFormat, p.Sigil(), p.DisplayName()),
		}
	}
	unstable := fmt.Sprintf(unstableFormat, p.Sigil(), p.DisplayName())

	turns, err := b.history.Load(ctx, sessionID)
	if err != nil {
		return Result{Outcome: OutcomeError, Tier: TierHosted, Text: unstable, Err: err}
	}
	turns = append(turns, llm.Message{Role: llm.RoleUser, Content: req.Text})

	system := persona.InjectDocument(p.Voice(), b.personas.Current().Document)
	msgs := make([]llm.Message, 0, len(turns)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	msgs = append(msgs, turns...)

	cctx, cancel := context.WithTimeout(ctx, b.hostedTimeout)
	defer cancel()
	resp, err := b.hosted.Generate(cctx, msgs)
	if err != nil {
		return Result{Outcome: OutcomeError, Tier: TierHosted, Text: unstable, Err: err}
	}
	if strings.TrimSpace(resp.Content) == "" {
		return Result{Outcome: OutcomeError, Tier: TierHosted, Text: unstable, Err: errors.New("hosted backend returned empty content")}
	}

	turns = append(turns, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
	if err := b.history.Save(ctx, sessionID, req.CallerID, turns); err != nil {
		b.logger.Error("failed to persist history", zap.String("session_id", sessionID), zap.Error(err))
	}
	b.logger.Info("hosted reply",
		zap.String("session_id", sessionID),
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("completion_tokens", resp.CompletionTokens),
	)
	return Result{Outcome: OutcomeOK, Tier: TierHosted, Text: resp.Content}
}

func (b *Bridge) canned(callerID int64, p persona.Persona, text string) Result {
	if p == nil {
		return Result{Outcome: OutcomeOK, Tier: TierCanned, Text: unknownPersonaReply}
	}
	low := strings.ToLower(text)
	for _, r := range p.Rules() {
		if !r.Match(low) {
			continue
		}
		if r.Emotion != "" {
			if err := b.personas.SetEmotion(callerID, p.Name(), r.Emotion); err != nil {
				b.logger.Warn("canned rule emotion rejected", zap.Error(err))
			}
		}
		return Result{Outcome: OutcomeOK, Tier: TierCanned, Text: r.Replies[b.pick(len(r.Replies))]}
	}
	return Result{Outcome: OutcomeOK, Tier: TierCanned, Text: p.DefaultReply()}
}
