// Package browsertest provides an in-memory browser.Driver. Pages are keyed by
// URL and hold elements that answer to named locator strategies, so tests can
// describe a site by what each strategy would find.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ibeckermayer/like4me/internal/browser"
)

// Handler answers a named script on the current page
type Handler func(d *Driver, page *Page, args json.RawMessage) (any, error)

// Element is a DOM element as seen through locator strategies
type Element struct {
	Key        string
	Strategies []string
	Tag        string
	ID         string
	Class      string
	Text       string
	Value      string
	// Pressed is the aria-pressed attribute; empty means absent.
	Pressed string
	// IgnoresInput drops text and value writes, like an editor that never
	// received focus.
	IgnoresInput bool
	OnClick      func(d *Driver, page *Page)
}

// Page is one loaded document
type Page struct {
	URL         string
	Title       string
	Elements    []*Element
	Scripts     map[string]Handler
	NavigateErr error
}

// Add appends elements to the page
func (p *Page) Add(els ...*Element) *Page {
	p.Elements = append(p.Elements, els...)
	return p
}

// Remove drops the element with key
func (p *Page) Remove(key string) {
	p.Elements = slices.DeleteFunc(p.Elements, func(e *Element) bool { return e.Key == key })
}

// Element returns the element with key, or nil
func (p *Page) Element(key string) *Element {
	for _, e := range p.Elements {
		if e.Key == key {
			return e
		}
	}
	return nil
}

// Handle answers script with h while this page is current
func (p *Page) Handle(script string, h Handler) *Page {
	if p.Scripts == nil {
		p.Scripts = make(map[string]Handler)
	}
	p.Scripts[script] = h
	return p
}

// Return answers script with a fixed value while this page is current
func (p *Page) Return(script string, v any) *Page {
	return p.Handle(script, func(*Driver, *Page, json.RawMessage) (any, error) { return v, nil })
}

func (p *Page) find(strategy string) *Element {
	for _, e := range p.Elements {
		if slices.Contains(e.Strategies, strategy) {
			return e
		}
	}
	return nil
}

// Driver implements browser.Driver against in-memory pages
type Driver struct {
	mu          sync.Mutex
	pages       map[string]*Page
	scripts     map[string]Handler
	redirects   map[string]string
	current     *Page
	navigations []string
	clicks      []string
	waits       []time.Duration
	evaluations map[string]int
	closed      int
}

var _ browser.Driver = (*Driver)(nil)

// New returns an empty fake browser
func New() *Driver {
	return &Driver{
		pages:       make(map[string]*Page),
		scripts:     make(map[string]Handler),
		redirects:   make(map[string]string),
		evaluations: make(map[string]int),
	}
}

// Page returns the page at url, creating it when missing
func (d *Driver) Page(url string) *Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pageLocked(url)
}

func (d *Driver) pageLocked(url string) *Page {
	p, ok := d.pages[url]
	if !ok {
		p = &Page{URL: url}
		d.pages[url] = p
	}
	return p
}

// Handle answers script with h on every page that does not override it
func (d *Driver) Handle(script string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts[script] = h
}

// Redirect makes navigation to from land on to
func (d *Driver) Redirect(from, to string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.redirects[from] = to
}

// Show makes the page at url current without recording a navigation
func (d *Driver) Show(url string) *Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = d.pageLocked(url)
	return d.current
}

// Current returns the current page, or nil before the first navigation
func (d *Driver) Current() *Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Navigations lists every requested URL in order
func (d *Driver) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.navigations)
}

// Clicks lists the keys of clicked elements in order
func (d *Driver) Clicks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.clicks)
}

// Waits lists every requested pause
func (d *Driver) Waits() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.waits)
}

// Evaluations counts how often script ran
func (d *Driver) Evaluations(script string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.evaluations[script]
}

// Closed counts Close calls
func (d *Driver) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) Navigate(ctx context.Context, url string, wait browser.WaitPolicy) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	d.navigations = append(d.navigations, url)
	target := url
	if to, ok := d.redirects[url]; ok {
		target = to
	}
	page := d.pageLocked(target)
	if page.NavigateErr != nil {
		d.mu.Unlock()
		return fmt.Errorf("failed to navigate to %s: %w", url, page.NavigateErr)
	}
	d.current = page
	d.mu.Unlock()
	return nil
}

func (d *Driver) Evaluate(ctx context.Context, script browser.Script, args any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.evaluations[script.Name]++
	page := d.current
	if page == nil {
		page = d.pageLocked("about:blank")
		d.current = page
	}
	handler := page.Scripts[script.Name]
	if handler == nil {
		handler = d.scripts[script.Name]
	}
	if handler == nil {
		handler = builtins[script.Name]
	}
	d.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("script %s failed: no handler on %s", script.Name, page.URL)
	}

	result, err := handler(d, page, raw)
	if err != nil {
		return fmt.Errorf("script %s failed: %w", script.Name, err)
	}
	if out == nil {
		return nil
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}

func (d *Driver) Wait(ctx context.Context, dur time.Duration) error {
	d.mu.Lock()
	d.waits = append(d.waits, dur)
	d.mu.Unlock()
	return ctx.Err()
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *Driver) recordClick(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks = append(d.clicks, key)
}
