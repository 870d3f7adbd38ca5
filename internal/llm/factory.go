package llm

import (
	"fmt"
	"strings"
	"time"

	"companion-bot/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	APIKey             string
	BaseURL            string
	Model              string
	OpenRouterReferrer string
	OpenRouterTitle    string
	YandexOAuthToken   string
	YandexFolderID     string
	LocalURL           string
	LocalModel         string
	LocalTimeout       time.Duration
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		APIKey:             cfg.HostedAPIKey,
		BaseURL:            cfg.HostedBaseURL,
		Model:              cfg.HostedModel,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
		LocalURL:           cfg.LocalLLMURL,
		LocalModel:         cfg.LocalLLMModel,
		LocalTimeout:       cfg.LocalLLMTimeout,
	}
}

// CreateHosted returns (nil, nil) when the provider has no credentials,
// which keeps the hosted tier switched off rather than failing startup.
func (f *Factory) CreateHosted(provider string) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		if f.APIKey == "" {
			return nil, nil
		}
		return NewOpenAI(f.APIKey, f.BaseURL, f.Model, f.OpenRouterReferrer, f.OpenRouterTitle), nil
	case ProviderYandex:
		if f.YandexOAuthToken == "" || f.YandexFolderID == "" {
			return nil, nil
		}
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// CreateLocal returns nil when no local endpoint is configured.
func (f *Factory) CreateLocal() LocalClient {
	if f.LocalURL == "" {
		return nil
	}
	return NewOllama(f.LocalURL, f.LocalModel, f.LocalTimeout)
}
