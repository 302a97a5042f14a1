package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dyike/StockCouncil/internal/config"
)

// Provider owns the two chat model slots: a quick model for analysts,
// researchers and signal extraction, and a deep model for the trader.
type Provider struct {
	quick model.ToolCallingChatModel
	deep  model.ToolCallingChatModel
}

// NewProvider builds both model slots from configuration. Supported providers
// are "openai" (any OpenAI-compatible backend via BackendURL) and "deepseek".
func NewProvider(ctx context.Context, cfg *config.Config) (*Provider, error) {
	quick, err := newChatModel(ctx, cfg, cfg.QuickThinkLLM)
	if err != nil {
		return nil, fmt.Errorf("quick model %s: %w", cfg.QuickThinkLLM, err)
	}
	deep, err := newChatModel(ctx, cfg, cfg.DeepThinkLLM)
	if err != nil {
		return nil, fmt.Errorf("deep model %s: %w", cfg.DeepThinkLLM, err)
	}
	return &Provider{quick: quick, deep: deep}, nil
}

// QuickModel returns the fast, cheap model slot.
func (p *Provider) QuickModel() model.ToolCallingChatModel { return p.quick }

// DeepModel returns the deliberate model slot used for final decisions.
func (p *Provider) DeepModel() model.ToolCallingChatModel { return p.deep }

func newChatModel(ctx context.Context, cfg *config.Config, modelName string) (model.ToolCallingChatModel, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "deepseek":
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     modelName,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create deepseek model: %w", err)
		}
		return NewRetryModel(cm, cfg.MaxRetries, cfg.RetryDelay()), nil
	case "openai", "":
		maxTokens := cfg.MaxTokens
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    cfg.OpenAIAPIKey,
			Model:     modelName,
			MaxTokens: &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return NewRetryModel(cm, cfg.MaxRetries, cfg.RetryDelay()), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
}
