package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ScopeGlobal, cfg.StateScope)
	assert.Equal(t, 12*time.Second, cfg.RateLimitGap)
	assert.Equal(t, 60*time.Second, cfg.HostedTimeout)
	assert.Equal(t, 7, cfg.HealingInteractionCap)
	assert.Equal(t, 15, cfg.AnchorTrimThreshold)
	assert.Equal(t, 10, cfg.AnchorTrimTarget)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("STATE_SCOPE", "session")
	t.Setenv("PRIMARY_PHRASES", "one|two words")
	t.Setenv("MIRROR_PAIRS", "Who? => Me|Where?=>Here")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ScopeSession, cfg.StateScope)
	assert.Equal(t, []string{"one", "two words"}, cfg.PrimaryPhrases)

	m, err := cfg.MirrorMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Who?": "Me", "Where?": "Here"}, m)
}

func TestValidate(t *testing.T) {
	base := Config{
		StateScope:          ScopeGlobal,
		HostedProvider:      ProviderOpenAI,
		AnchorTrimThreshold: 15,
		AnchorTrimTarget:    10,
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"scope":    func(c *Config) { c.StateScope = "team" },
		"provider": func(c *Config) { c.HostedProvider = "anthropic" },
		"trim":     func(c *Config) { c.AnchorTrimTarget = 20 },
		"gap":      func(c *Config) { c.RateLimitGap = -time.Second },
		"mirror":   func(c *Config) { c.MirrorPairs = []string{"no arrow"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
