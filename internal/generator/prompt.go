package generator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxExcerptRunes = 1200

// BuildPrompt constructs the LLM prompt for commenting on a post
func BuildPrompt(title, excerpt string) string {
	var sb strings.Builder

	sb.WriteString("You are writing a short, friendly comment on a neighbor's blog post.\n\n")

	sb.WriteString("## Post\n")
	if title != "" {
		sb.WriteString(fmt.Sprintf("Title: %s\n", title))
	}
	if excerpt != "" {
		sb.WriteString(fmt.Sprintf("Excerpt:\n%s\n", truncateRunes(excerpt, maxExcerptRunes)))
	}

	sb.WriteString("\n## Task\n\n")
	sb.WriteString("Write one comment that:\n")
	sb.WriteString("1. Is written in the same language as the post\n")
	sb.WriteString("2. Mentions something specific from the post\n")
	sb.WriteString("3. Is one or two sentences, under 150 characters\n")
	sb.WriteString("4. Contains no hashtags, links or emoji sequences\n\n")
	sb.WriteString("Respond with the comment text only.")

	return sb.String()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
