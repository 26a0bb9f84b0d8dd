package llm

import (
	"context"
	"fmt"

	"themetree/internal/config"
)

// NewClient builds a provider client from a "provider::model" spec and
// the loaded configuration. An empty spec uses the configured defaults.
func NewClient(ctx context.Context, spec string, cfg *config.Config) (Client, error) {
	provider, model := cfg.Resolve(spec)
	pc := cfg.Provider(provider)
	if pc.Model != "" && model == "" {
		model = pc.Model
	}

	switch provider {
	case "openrouter":
		orCfg := DefaultOpenRouterConfig(pc.APIKey)
		orCfg.Model = model
		if pc.BaseURL != "" {
			orCfg.BaseURL = pc.BaseURL
		}
		if pc.Timeout > 0 {
			orCfg.Timeout = pc.TimeoutDuration()
		}
		return NewOpenRouterClientWithConfig(orCfg), nil
	case "iflow":
		ifCfg := DefaultIFlowConfig(pc.APIKey)
		ifCfg.Model = model
		if pc.BaseURL != "" {
			ifCfg.BaseURL = pc.BaseURL
		}
		if pc.Timeout > 0 {
			ifCfg.Timeout = pc.TimeoutDuration()
		}
		return NewIFlowClientWithConfig(ifCfg), nil
	case "gemini":
		return NewGeminiClient(ctx, GeminiConfig{APIKey: pc.APIKey, Model: model})
	default:
		return nil, fmt.Errorf("unsupported provider %q (supported: openrouter, iflow, gemini)", provider)
	}
}
