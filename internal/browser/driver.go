package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// WaitPolicy controls how long Navigate blocks after issuing the navigation
type WaitPolicy int

const (
	// WaitLoad returns once the top frame fired its load event.
	WaitLoad WaitPolicy = iota
	// WaitReady additionally waits for the document body to exist.
	WaitReady
)

// Driver is the page-automation primitive the engine is written against.
// All DOM inspection and mutation goes through Evaluate; no element handle is
// expected to survive a navigation.
type Driver interface {
	Navigate(ctx context.Context, url string, wait WaitPolicy) error
	// Evaluate runs script with args in the current top document and decodes
	// the JSON result into out. out may be nil.
	Evaluate(ctx context.Context, script Script, args any, out any) error
	Wait(ctx context.Context, d time.Duration) error
	Close() error
}

// Script is a named JavaScript function expression. The function receives a
// single argument object and its return value must be JSON-serializable.
// Name identifies the script to fakes and in logs.
type Script struct {
	Name   string
	Source string
}

// NewScript declares a script. source must be a function expression.
func NewScript(name, source string) Script {
	return Script{Name: name, Source: source}
}

// Expression renders the script as a self-invoking expression with args
// JSON-encoded inline. The shared prelude is in scope for every script.
func (s Script) Expression(args any) (string, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode args for %s: %w", s.Name, err)
	}
	return fmt.Sprintf("(function(){\n%s\nreturn (%s)(%s);\n})()", prelude, s.Source, payload), nil
}

// prelude holds helpers shared by all scripts.
// __frameDoc walks a path of frame ids/names from the top document and returns
// the innermost document, or null when any hop is missing or cross-origin.
const prelude = `
const __frameDoc = function(frames) {
	let doc = document;
	const path = frames || [];
	for (let i = 0; i < path.length; i++) {
		const name = path[i];
		let frame = null;
		try {
			frame = doc.getElementById(name) ||
				doc.querySelector('iframe[name="' + name + '"]') ||
				doc.querySelector('frame[name="' + name + '"]');
		} catch (e) {
			return null;
		}
		if (!frame) return null;
		let inner = null;
		try {
			inner = frame.contentDocument || (frame.contentWindow && frame.contentWindow.document);
		} catch (e) {
			inner = null;
		}
		if (!inner || !inner.body) return null;
		doc = inner;
	}
	return doc;
};
`

// Sleep blocks for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
