package selector

import (
	"context"
	"errors"
	"fmt"

	"github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/logging"
)

// ErrNotFound is returned when no strategy located an element
var ErrNotFound = errors.New("element not found")

// Resolver runs strategies against the current page
type Resolver struct {
	driver browser.Driver
	logger logging.Logger
}

// New creates a resolver
func New(driver browser.Driver, logger logging.Logger) *Resolver {
	return &Resolver{driver: driver, logger: logging.OrDiscard(logger)}
}

type elementArgs struct {
	Strategy Strategy `json:"strategy"`
	Text     string   `json:"text,omitempty"`
}

type resolveResult struct {
	Found bool `json:"found"`
	Element
}

type actionResult struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}

// Resolve returns the element found by the first strategy that matches.
// A strategy whose evaluation errors is treated as finding nothing.
func (r *Resolver) Resolve(ctx context.Context, strategies []Strategy) (Match, error) {
	for _, s := range strategies {
		var res resolveResult
		if err := r.driver.Evaluate(ctx, resolveScript, elementArgs{Strategy: s}, &res); err != nil {
			if ctx.Err() != nil {
				return Match{}, ctx.Err()
			}
			r.logger.WithError(err).WithField("strategy", s.Name).Debug("Strategy evaluation failed")
			continue
		}
		if !res.Found {
			continue
		}
		r.logger.WithFields(logging.Fields{
			"strategy": s.Name,
			"tag":      res.Tag,
		}).Debug("Element located")
		return Match{Strategy: s, Element: res.Element}, nil
	}
	return Match{}, fmt.Errorf("%w (tried: %s)", ErrNotFound, Names(strategies))
}

// Exists reports whether any strategy matches
func (r *Resolver) Exists(ctx context.Context, strategies []Strategy) (bool, error) {
	_, err := r.Resolve(ctx, strategies)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *Resolver) act(ctx context.Context, script browser.Script, m Match, text string) (actionResult, error) {
	var res actionResult
	if err := r.driver.Evaluate(ctx, script, elementArgs{Strategy: m.Strategy, Text: text}, &res); err != nil {
		return res, err
	}
	if !res.OK {
		return res, fmt.Errorf("%w: %s no longer matches", ErrNotFound, m.Strategy.Name)
	}
	return res, nil
}

// Click clicks the matched element
func (r *Resolver) Click(ctx context.Context, m Match) error {
	_, err := r.act(ctx, clickScript, m, "")
	return err
}

// SetText replaces the content of an editable element and fires input events
func (r *Resolver) SetText(ctx context.Context, m Match, text string) error {
	_, err := r.act(ctx, setTextScript, m, text)
	return err
}

// SetValue sets a form control's value and fires input events
func (r *Resolver) SetValue(ctx context.Context, m Match, value string) error {
	_, err := r.act(ctx, setValueScript, m, value)
	return err
}

// ReadText returns the element's visible text
func (r *Resolver) ReadText(ctx context.Context, m Match) (string, error) {
	res, err := r.act(ctx, readTextScript, m, "")
	return res.Text, err
}

// ScrollIntoView centers the element in the viewport
func (r *Resolver) ScrollIntoView(ctx context.Context, m Match) error {
	_, err := r.act(ctx, scrollScript, m, "")
	return err
}
