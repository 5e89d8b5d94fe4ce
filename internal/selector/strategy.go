// Package selector locates page elements through ordered lists of locator
// strategies, falling back to the next strategy when one finds nothing.
package selector

import "strings"

// Kind is how a strategy matches elements
type Kind string

const (
	// KindID matches the element whose id equals Value.
	KindID Kind = "id"
	// KindCSS matches Selector.
	KindCSS Kind = "css"
	// KindAttrContains matches Selector elements whose Attr contains Value.
	KindAttrContains Kind = "attr"
	// KindText matches Selector elements whose trimmed text equals Value.
	KindText Kind = "text"
	// KindTextContains matches Selector elements whose text contains Value.
	KindTextContains Kind = "text_contains"
)

// Strategy is one way of locating an element. Strategies are tried in the
// order given and are pure descriptions; matching happens in the page.
type Strategy struct {
	// Name identifies the strategy in logs. It should be unique within a list.
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Frames is the path of frame ids/names to descend through first.
	Frames []string `json:"frames,omitempty"`
	// Scope restricts matching to the first element matching this selector.
	Scope    string `json:"scope,omitempty"`
	Selector string `json:"selector,omitempty"`
	Attr     string `json:"attr,omitempty"`
	Value    string `json:"value,omitempty"`
	// Within keeps only candidates inside an element matching this selector.
	Within string `json:"within,omitempty"`
	// Exclude drops candidates matching, or inside, this selector.
	Exclude string `json:"exclude,omitempty"`
	// Last picks the last candidate instead of the first.
	Last bool `json:"last,omitempty"`
}

// InFrames returns copies of strategies that descend through frames first
func InFrames(frames []string, strategies ...Strategy) []Strategy {
	out := make([]Strategy, len(strategies))
	for i, s := range strategies {
		s.Frames = append([]string(nil), frames...)
		out[i] = s
	}
	return out
}

// Names lists strategy names, for logs and errors
func Names(strategies []Strategy) string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

// Element describes a matched element
type Element struct {
	Tag        string `json:"tag"`
	ID         string `json:"id"`
	Class      string `json:"className"`
	Text       string `json:"text"`
	Pressed    string `json:"pressed"`
	HasPressed bool   `json:"hasPressed"`
}

// HasClass reports whether class is one of the element's classes
func (e Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Class) {
		if c == class {
			return true
		}
	}
	return false
}

// Match is a resolved element together with the strategy that found it.
// Actions on a Match re-run its strategy, so it stays valid only while the
// page it was resolved on is current.
type Match struct {
	Strategy Strategy
	Element  Element
}
