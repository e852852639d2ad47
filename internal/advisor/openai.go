package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pairscout/engine/internal/domain"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 2000
	defaultTimeout   = 60 * time.Second
)

// OpenAIConfig holds settings for the chat-completion advisor. BaseURL may
// point at any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
	MarketsLimit int
}

// OpenAIAdvisor asks a chat-completion model to flag implication pairs.
type OpenAIAdvisor struct {
	api          *openai.Client
	model        string
	temperature  float32
	maxTokens    int
	timeout      time.Duration
	marketsLimit int
	logger       *slog.Logger
}

var _ Advisor = (*OpenAIAdvisor)(nil)

// NewOpenAI creates an advisor backed by the OpenAI chat API.
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIAdvisor, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("advisor: API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	apiCfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		apiCfg.BaseURL = base
	}

	return &OpenAIAdvisor{
		api:          openai.NewClientWithConfig(apiCfg),
		model:        model,
		temperature:  cfg.Temperature,
		maxTokens:    maxTokens,
		timeout:      timeout,
		marketsLimit: cfg.MarketsLimit,
		logger:       logger.With(slog.String("component", "advisor")),
	}, nil
}

// SuggestPairs implements Advisor.
func (a *OpenAIAdvisor) SuggestPairs(ctx context.Context, keyword string, markets []domain.Market) ([]Suggestion, error) {
	if len(markets) < 2 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstructions},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(markets, a.marketsLimit)},
		},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}

	resp, err := a.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("advisor: chat completion for %q: %w", keyword, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("advisor: empty response for %q", keyword)
	}

	suggestions, err := parseSuggestions([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, err
	}

	a.logger.Info("implication pairs suggested",
		slog.String("keyword", keyword),
		slog.Int("markets", len(markets)),
		slog.Int("suggestions", len(suggestions)),
	)
	return suggestions, nil
}
