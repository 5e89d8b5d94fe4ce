package discovery

import (
	"context"
	"time"

	"github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/logging"
	"github.com/ibeckermayer/like4me/internal/poll"
	"github.com/ibeckermayer/like4me/internal/site"
)

// DateResolver finds when an item was published
type DateResolver interface {
	// ResolvePublishDate returns ok=false when no date could be determined.
	// err is reserved for failures to reach the item at all.
	ResolvePublishDate(ctx context.Context, itemURL string) (published time.Time, ok bool, err error)
}

// DateConfig lists the date sources in the order they are trusted
type DateConfig struct {
	Frames        []string
	Exact         string
	Alternates    []string
	TextPattern   string
	ProfileRegion string
	// Frame bounds the wait for the content frame to render
	Frame poll.Policy
	Now   func() time.Time
}

// DefaultDateConfig waits up to 10 seconds for the post frame
func DefaultDateConfig() DateConfig {
	return DateConfig{
		Frames:        []string{site.MainFrame},
		Exact:         site.PublishDate,
		Alternates:    site.PublishDateAlternates,
		TextPattern:   site.DateTextPattern,
		ProfileRegion: site.ProfileRegion,
		Frame:         poll.Policy{Interval: 500 * time.Millisecond, MaxAttempts: 20},
		Now:           time.Now,
	}
}

var frameReadyScript = browser.NewScript("discovery.frameReady", `function(args) {
	const doc = __frameDoc(args.frames);
	return !!(doc && doc.readyState !== 'loading' && doc.body && doc.body.childElementCount > 0);
}`)

// dateProbeScript gathers raw date candidates from each source. Parsing
// happens in Go so the rules live in one place.
var dateProbeScript = browser.NewScript("discovery.dateProbe", `function(args) {
	const doc = __frameDoc(args.frames) || document;
	const clean = function(s) { return (s || '').replace(/\s+/g, ' ').trim(); };
	const textOf = function(sel) {
		try {
			const el = doc.querySelector(sel);
			return el ? clean(el.textContent) : '';
		} catch (e) {
			return '';
		}
	};
	const out = { exact: textOf(args.exact), alternates: [], texts: [], profile: '' };
	(args.alternates || []).forEach(function(sel) {
		const t = textOf(sel);
		if (t) out.alternates.push(t);
	});
	if (doc.body && args.pattern) {
		const re = new RegExp(args.pattern, 'i');
		const walker = doc.createTreeWalker(doc.body, NodeFilter.SHOW_TEXT);
		let node;
		while ((node = walker.nextNode()) && out.texts.length < 20) {
			const t = clean(node.nodeValue);
			if (t && t.length <= 100 && re.test(t)) out.texts.push(t);
		}
	}
	if (args.profile) out.profile = textOf(args.profile);
	return out;
}`)

type frameArgs struct {
	Frames []string `json:"frames"`
}

type probeArgs struct {
	Frames     []string `json:"frames"`
	Exact      string   `json:"exact"`
	Alternates []string `json:"alternates"`
	Pattern    string   `json:"pattern"`
	Profile    string   `json:"profile"`
}

// DateProbe is the raw text gathered from each date source
type DateProbe struct {
	Exact      string   `json:"exact"`
	Alternates []string `json:"alternates"`
	Texts      []string `json:"texts"`
	Profile    string   `json:"profile"`
}

// Labelled lists the texts taken from dedicated date elements, most
// trusted first. These may be relative ("3일 전").
func (p DateProbe) Labelled() []string {
	var out []string
	if p.Exact != "" {
		out = append(out, p.Exact)
	}
	return append(out, p.Alternates...)
}

// Scanned lists free-form page text found by pattern. Only absolute dates
// are accepted from these.
func (p DateProbe) Scanned() []string {
	out := append([]string(nil), p.Texts...)
	if p.Profile != "" {
		out = append(out, p.Profile)
	}
	return out
}

// Resolve picks the first parseable date, labelled sources first
func (p DateProbe) Resolve(now time.Time) (time.Time, string, bool) {
	for _, text := range p.Labelled() {
		if t, ok := ParseDateText(text, now); ok {
			return t, text, true
		}
	}
	for _, text := range p.Scanned() {
		if t, ok := ParseAbsoluteDate(text, now.Location()); ok {
			return t, text, true
		}
	}
	return time.Time{}, "", false
}

// HeuristicDateResolver opens each item and tries the date sources in order
type HeuristicDateResolver struct {
	driver browser.Driver
	cfg    DateConfig
	logger logging.Logger
}

var _ DateResolver = (*HeuristicDateResolver)(nil)

// NewHeuristicDateResolver creates a resolver
func NewHeuristicDateResolver(driver browser.Driver, cfg DateConfig, logger logging.Logger) *HeuristicDateResolver {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HeuristicDateResolver{driver: driver, cfg: cfg, logger: logging.OrDiscard(logger)}
}

func (r *HeuristicDateResolver) ResolvePublishDate(ctx context.Context, itemURL string) (time.Time, bool, error) {
	if err := r.driver.Navigate(ctx, itemURL, browser.WaitReady); err != nil {
		return time.Time{}, false, err
	}

	// A frame that never fills in still gets probed; the top document may
	// carry the date on its own.
	_, err := poll.Until(ctx, r.cfg.Frame, func(ctx context.Context, _ int) (bool, bool, error) {
		var ready bool
		err := r.driver.Evaluate(ctx, frameReadyScript, frameArgs{Frames: r.cfg.Frames}, &ready)
		return ready, ready, err
	})
	if ctx.Err() != nil {
		return time.Time{}, false, ctx.Err()
	}
	if err != nil {
		r.logger.WithField("url", itemURL).Debug("Content frame not ready, probing anyway")
	}

	var probe DateProbe
	args := probeArgs{
		Frames:     r.cfg.Frames,
		Exact:      r.cfg.Exact,
		Alternates: r.cfg.Alternates,
		Pattern:    r.cfg.TextPattern,
		Profile:    r.cfg.ProfileRegion,
	}
	if err := r.driver.Evaluate(ctx, dateProbeScript, args, &probe); err != nil {
		r.logger.WithError(err).WithField("url", itemURL).Debug("Date probe failed")
		return time.Time{}, false, nil
	}

	t, source, ok := probe.Resolve(r.cfg.Now())
	if !ok {
		return time.Time{}, false, nil
	}
	r.logger.WithFields(logging.Fields{
		"url":       itemURL,
		"source":    source,
		"published": t.Format(time.DateOnly),
	}).Debug("Resolved publish date")
	return t, true, nil
}
