// Package discovery lists a relation's recent content items and works out
// when each one was published.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/logging"
	"github.com/ibeckermayer/like4me/internal/site"
	"github.com/ibeckermayer/like4me/internal/types"
)

// MaxListItems caps how many items a single listing returns
const MaxListItems = 30

// ListConfig describes a relation's listing view
type ListConfig struct {
	ListingURL func(profileURL string) string
	// Canonicalize maps a link to a content item URL, rejecting non-items
	Canonicalize func(href string) (string, bool)
	// Owner extracts the relation id from a profile or item URL
	Owner func(url string) (string, bool)
	// Frames lists the documents scanned for links, top document first
	Frames   [][]string
	Settle   time.Duration
	MaxItems int
}

// DefaultListConfig scans the top document and mainFrame
func DefaultListConfig() ListConfig {
	return ListConfig{
		ListingURL:   site.ListingURL,
		Canonicalize: site.CanonicalPostURL,
		Owner:        site.BlogIDFromURL,
		Frames:       [][]string{{}, {site.MainFrame}},
		Settle:       2 * time.Second,
		MaxItems:     MaxListItems,
	}
}

var anchorsScript = browser.NewScript("discovery.anchors", `function(args) {
	const out = [];
	(args.frames || []).forEach(function(path) {
		const doc = __frameDoc(path);
		if (!doc) return;
		doc.querySelectorAll('a[href]').forEach(function(a) {
			out.push({
				href: a.href || a.getAttribute('href') || '',
				text: (a.textContent || '').replace(/\s+/g, ' ').trim()
			});
		});
	});
	return out;
}`)

type anchorsArgs struct {
	Frames [][]string `json:"frames"`
}

// Anchor is a link found on the listing view
type Anchor struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Lister finds content items on a relation's listing
type Lister struct {
	driver browser.Driver
	cfg    ListConfig
	logger logging.Logger
}

// NewLister creates a lister
func NewLister(driver browser.Driver, cfg ListConfig, logger logging.Logger) *Lister {
	if cfg.MaxItems <= 0 || cfg.MaxItems > MaxListItems {
		cfg.MaxItems = MaxListItems
	}
	return &Lister{driver: driver, cfg: cfg, logger: logging.OrDiscard(logger)}
}

// ListRecent returns the items linked from a relation's listing, in page
// order, de-duplicated by URL. Items belonging to other accounts are dropped.
func (l *Lister) ListRecent(ctx context.Context, profileURL string) ([]types.ContentItem, error) {
	listing := l.cfg.ListingURL(profileURL)
	if err := l.driver.Navigate(ctx, listing, browser.WaitReady); err != nil {
		return nil, err
	}
	if err := l.driver.Wait(ctx, l.cfg.Settle); err != nil {
		return nil, err
	}

	var anchors []Anchor
	if err := l.driver.Evaluate(ctx, anchorsScript, anchorsArgs{Frames: l.cfg.Frames}, &anchors); err != nil {
		return nil, fmt.Errorf("failed to read listing links: %w", err)
	}

	owner, _ := l.cfg.Owner(profileURL)
	items := l.collect(anchors, owner)

	l.logger.WithFields(logging.Fields{
		"listing": listing,
		"links":   len(anchors),
		"items":   len(items),
	}).Debug("Listed recent items")
	return items, nil
}

func (l *Lister) collect(anchors []Anchor, owner string) []types.ContentItem {
	index := make(map[string]int, len(anchors))
	var items []types.ContentItem
	for _, a := range anchors {
		u, ok := l.cfg.Canonicalize(a.Href)
		if !ok {
			continue
		}
		if owner != "" {
			if id, ok := l.cfg.Owner(u); ok && id != owner {
				continue
			}
		}
		// A post is often linked twice (thumbnail then title); keep the
		// first position and the first non-empty title.
		if i, seen := index[u]; seen {
			if items[i].Title == "" {
				items[i].Title = strings.TrimSpace(a.Text)
			}
			continue
		}
		if len(items) >= l.cfg.MaxItems {
			continue
		}
		index[u] = len(items)
		items = append(items, types.ContentItem{
			Title:     strings.TrimSpace(a.Text),
			URL:       u,
			LikeState: types.LikeUnknown,
		})
	}
	return items
}
