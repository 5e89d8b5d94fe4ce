// Package generator produces short comment text for a content item.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ibeckermayer/like4me/internal/config"
	"github.com/ibeckermayer/like4me/internal/logging"
)

// ErrEmpty is returned when a provider produced no usable text
var ErrEmpty = errors.New("generator returned empty comment")

// MaxCommentRunes bounds generated comments
const MaxCommentRunes = 300

// Post is what a generator sees of the item being commented on
type Post struct {
	URL     string
	Title   string
	Excerpt string
}

// Generator writes a comment for a post
type Generator interface {
	Generate(ctx context.Context, post Post) (string, error)
}

// New creates the generator selected by cfg. An anthropic provider without an
// API key falls back to templates.
func New(cfg config.CommentConfig, logger logging.Logger) (Generator, error) {
	logger = logging.OrDiscard(logger)

	switch cfg.Provider {
	case config.ProviderAnthropic:
		if cfg.APIKey == "" {
			logger.Warnf("No API key for %s comments, using templates", config.ProviderAnthropic)
			return NewTemplates(cfg.Templates)
		}
		return NewAnthropic(cfg.APIKey, cfg.Model, cfg.MaxTokens, logger), nil
	case config.ProviderTemplate, "":
		return NewTemplates(cfg.Templates)
	default:
		return nil, fmt.Errorf("unknown comment provider: %s", cfg.Provider)
	}
}

// Clean trims quoting and whitespace from generated text and bounds its length
func Clean(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	s = strings.Trim(s, `"'“”‘’`)
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxCommentRunes {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:MaxCommentRunes]))
	}
	return s
}
