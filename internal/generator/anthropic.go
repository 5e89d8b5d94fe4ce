package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ibeckermayer/like4me/internal/config"
	"github.com/ibeckermayer/like4me/internal/logging"
	"github.com/ibeckermayer/like4me/internal/store"
)

// Anthropic writes comments with Claude
type Anthropic struct {
	client    *anthropic.Client
	provider  string
	model     string
	maxTokens int64
	logger    logging.Logger
}

// NewAnthropic creates a new Anthropic generator. Extra request options
// are applied after the API key.
func NewAnthropic(apiKey, model string, maxTokens int, logger logging.Logger, opts ...option.RequestOption) *Anthropic {
	client := anthropic.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...,
	)
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &Anthropic{
		client:    &client,
		provider:  config.ProviderAnthropic,
		model:     model,
		maxTokens: int64(maxTokens),
		logger:    logging.OrDiscard(logger),
	}
}

// Generate asks Claude for a comment on the post
func (a *Anthropic) Generate(ctx context.Context, post Post) (string, error) {
	prompt := BuildPrompt(post.Title, post.Excerpt)

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	exchange := store.LLMExchange{
		Timestamp: time.Now(),
		Provider:  a.provider,
		Model:     a.model,
		ItemURL:   post.URL,
		Prompt:    prompt,
	}
	if err != nil {
		exchange.Error = err.Error()
		a.cache(exchange)
		return "", fmt.Errorf("failed to call Claude API: %w", err)
	}

	// Extract text from response
	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	exchange.Response = responseText
	a.cache(exchange)

	comment := Clean(responseText)
	if comment == "" {
		return "", ErrEmpty
	}
	return comment, nil
}

// cache keeps the prompt/response for debugging
func (a *Anthropic) cache(exchange store.LLMExchange) {
	if cachePath, err := store.SaveLLMExchange(exchange); err != nil {
		a.logger.WithError(err).Warn("Failed to cache LLM exchange")
	} else {
		a.logger.WithField("path", cachePath).Debug("Cached LLM exchange")
	}
}
