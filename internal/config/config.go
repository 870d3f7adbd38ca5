package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

// StateScope selects whether persona emotions and the bridge flag are shared
// by every caller or tracked per caller.
type StateScope string

const (
	ScopeGlobal  StateScope = "global"
	ScopeSession StateScope = "session"
)

type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN"`
	WebhookURL    string `env:"WEBHOOK_URL"`
	Port          int    `env:"PORT" envDefault:"8443"`
	AdminUserID   int64  `env:"ADMIN_USER_ID"`

	// Identity
	DefaultIdentity string     `env:"DEFAULT_IDENTITY" envDefault:"kai"`
	StateScope      StateScope `env:"STATE_SCOPE" envDefault:"global"`

	// Local inference
	LocalLLMURL     string        `env:"LOCAL_LLM_URL" envDefault:"http://localhost:11434"`
	LocalLLMModel   string        `env:"LOCAL_LLM_MODEL" envDefault:"mistral:7b"`
	LocalLLMTimeout time.Duration `env:"LOCAL_LLM_TIMEOUT" envDefault:"30s"`

	// Hosted inference
	HostedProvider     LLMProvider   `env:"HOSTED_PROVIDER" envDefault:"openai"`
	HostedAPIKey       string        `env:"HOSTED_API_KEY"`
	HostedBaseURL      string        `env:"HOSTED_BASE_URL"`
	HostedModel        string        `env:"HOSTED_MODEL" envDefault:"gpt-4o-mini"`
	HostedPersona      string        `env:"HOSTED_PERSONA" envDefault:"kai"`
	HostedTimeout      time.Duration `env:"HOSTED_TIMEOUT" envDefault:"60s"`
	OpenRouterReferrer string        `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string        `env:"OPENROUTER_TITLE"`
	YandexOAuthToken   string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID     string        `env:"YANDEX_FOLDER_ID"`
	BridgeEnabled      bool          `env:"BRIDGE_ENABLED" envDefault:"false"`
	RateLimitGap       time.Duration `env:"RATE_LIMIT_GAP" envDefault:"12s"`

	// Companion trackers
	HealingInteractionCap int `env:"HEALING_INTERACTION_CAP" envDefault:"7"`
	AnchorTrimThreshold   int `env:"ANCHOR_TRIM_THRESHOLD" envDefault:"15"`
	AnchorTrimTarget      int `env:"ANCHOR_TRIM_TARGET" envDefault:"10"`

	// Secret overrides; empty means the built-in sets are used.
	PrimaryPhrases    []string `env:"PRIMARY_PHRASES" envSeparator:"|"`
	MirrorPairs       []string `env:"MIRROR_PAIRS" envSeparator:"|"`
	EmergencyWords    []string `env:"EMERGENCY_WORDS" envSeparator:"|"`
	LightningTriggers []string `env:"LIGHTNING_TRIGGERS" envSeparator:"|"`

	// Storage
	PersonaDir       string `env:"PERSONA_DIR" envDefault:"ai_personas"`
	ChaptersDir      string `env:"CHAPTERS_DIR" envDefault:"chapters"`
	HistoryDBPath    string `env:"HISTORY_DB_PATH" envDefault:"data/history.db"`
	TranscriptPath   string `env:"TRANSCRIPT_PATH" envDefault:"logs/transcript.jsonl"`
	StatusPath       string `env:"STATUS_PATH" envDefault:"data/status.json"`
	SnapshotSchedule string `env:"SNAPSHOT_SCHEDULE" envDefault:"@every 5m"`
	ReportSchedule   string `env:"REPORT_SCHEDULE" envDefault:"0 21 * * *"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StateScope {
	case ScopeGlobal, ScopeSession:
	default:
		return fmt.Errorf("invalid STATE_SCOPE %q: want global or session", c.StateScope)
	}
	switch c.HostedProvider {
	case ProviderOpenAI, ProviderYandex:
	default:
		return fmt.Errorf("invalid HOSTED_PROVIDER %q", c.HostedProvider)
	}
	if c.AnchorTrimTarget <= 0 || c.AnchorTrimTarget > c.AnchorTrimThreshold {
		return fmt.Errorf("anchor trim target %d must be in 1..%d", c.AnchorTrimTarget, c.AnchorTrimThreshold)
	}
	if c.RateLimitGap < 0 {
		return fmt.Errorf("RATE_LIMIT_GAP must not be negative")
	}
	if _, err := c.MirrorMap(); err != nil {
		return err
	}
	return nil
}

// MirrorMap parses MirrorPairs entries of the form "question=>answer".
func (c *Config) MirrorMap() (map[string]string, error) {
	if len(c.MirrorPairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(c.MirrorPairs))
	for _, p := range c.MirrorPairs {
		q, a, ok := strings.Cut(p, "=>")
		if !ok || strings.TrimSpace(q) == "" {
			return nil, fmt.Errorf("invalid MIRROR_PAIRS entry %q: want question=>answer", p)
		}
		out[strings.TrimSpace(q)] = strings.TrimSpace(a)
	}
	return out, nil
}
