package generator

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
)

// Templates picks a configured comment at random, substituting {title}
type Templates struct {
	mu        sync.Mutex
	templates []string
	rng       *rand.Rand
}

// NewTemplates creates a template generator. Blank templates are ignored.
func NewTemplates(templates []string) (*Templates, error) {
	var usable []string
	for _, t := range templates {
		if strings.TrimSpace(t) != "" {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return nil, errors.New("no comment templates configured")
	}
	return &Templates{
		templates: usable,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}, nil
}

// WithSeed makes template choice deterministic
func (t *Templates) WithSeed(seed uint64) *Templates {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rng = rand.New(rand.NewPCG(seed, seed))
	return t
}

func (t *Templates) Generate(ctx context.Context, post Post) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	tmpl := t.templates[t.rng.IntN(len(t.templates))]
	t.mu.Unlock()

	// A template that needs a title is useless without one
	if post.Title == "" && strings.Contains(tmpl, "{title}") {
		tmpl = strings.ReplaceAll(tmpl, "{title}", "")
	}
	comment := Clean(strings.ReplaceAll(tmpl, "{title}", post.Title))
	if comment == "" {
		return "", ErrEmpty
	}
	return comment, nil
}
