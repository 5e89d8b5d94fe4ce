// Package engage performs the engagement actions on a content item: an
// idempotent like and a verified comment submission.
package engage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/logging"
	"github.com/ibeckermayer/like4me/internal/selector"
	"github.com/ibeckermayer/like4me/internal/site"
	"github.com/ibeckermayer/like4me/internal/types"
)

// LikeConfig describes the like control and the page clean-up before it
type LikeConfig struct {
	PostID        func(itemURL string) string
	ContentRegion func(postID string) []selector.Strategy
	Control       func(postID string) []selector.Strategy
	// OffClass marks an unpressed control when aria-pressed is absent
	OffClass string
	// OverlayFrames are the documents overlays are removed from
	OverlayFrames [][]string
	Overlays      []string
	Settle        time.Duration
}

// DefaultLikeConfig settles 1.5s after clicking
func DefaultLikeConfig() LikeConfig {
	return LikeConfig{
		PostID:        site.PostID,
		ContentRegion: site.ContentRegion,
		Control:       site.LikeControl,
		OffClass:      site.LikeOffClass,
		OverlayFrames: [][]string{{}, {site.MainFrame}},
		Overlays:      site.Overlays,
		Settle:        1500 * time.Millisecond,
	}
}

var removeOverlaysScript = browser.NewScript("engage.removeOverlays", `function(args) {
	let removed = 0;
	(args.frames || []).forEach(function(path) {
		const doc = __frameDoc(path);
		if (!doc) return;
		(args.selectors || []).forEach(function(sel) {
			try {
				doc.querySelectorAll(sel).forEach(function(el) {
					el.remove();
					removed++;
				});
			} catch (e) {}
		});
	});
	return removed;
}`)

type overlayArgs struct {
	Frames    [][]string `json:"frames"`
	Selectors []string   `json:"selectors"`
}

// LikeResult is the outcome of one like attempt
type LikeResult struct {
	// Liked is true only when this call pressed the control
	Liked    bool
	State    types.LikeState
	Reason   types.Reason
	Strategy string
}

// Liker presses an item's like control when it is not already pressed
type Liker struct {
	driver   browser.Driver
	resolver *selector.Resolver
	cfg      LikeConfig
	logger   logging.Logger
}

// NewLiker creates a liker
func NewLiker(driver browser.Driver, resolver *selector.Resolver, cfg LikeConfig, logger logging.Logger) *Liker {
	return &Liker{driver: driver, resolver: resolver, cfg: cfg, logger: logging.OrDiscard(logger)}
}

// Like opens the item and presses its like control. An item that is already
// liked is reported with ReasonAlreadyLiked and never clicked, so repeated
// calls leave the item liked. The returned error is item-scoped.
func (l *Liker) Like(ctx context.Context, item types.ContentItem) (LikeResult, error) {
	log := l.logger.WithField("item", item.URL)

	if err := l.driver.Navigate(ctx, item.URL, browser.WaitReady); err != nil {
		return LikeResult{Reason: types.ReasonNavigationFailed}, err
	}

	l.removeOverlays(ctx, log)

	postID := l.cfg.PostID(item.URL)
	if region, err := l.resolver.Resolve(ctx, l.cfg.ContentRegion(postID)); err == nil {
		if err := l.resolver.ScrollIntoView(ctx, region); err != nil {
			log.WithError(err).Debug("Failed to scroll content region")
		}
	} else if ctx.Err() != nil {
		return LikeResult{Reason: types.ReasonLikeControlNotFound}, ctx.Err()
	}

	control, err := l.resolver.Resolve(ctx, l.cfg.Control(postID))
	if err != nil {
		return LikeResult{Reason: types.ReasonLikeControlNotFound}, err
	}

	state := l.stateOf(control.Element)
	result := LikeResult{State: state, Strategy: control.Strategy.Name}
	if state == types.LikeLiked {
		log.WithField("strategy", control.Strategy.Name).Debug("Item already liked")
		result.Reason = types.ReasonAlreadyLiked
		return result, nil
	}

	if err := l.resolver.Click(ctx, control); err != nil {
		result.Reason = types.ReasonLikeClickFailed
		return result, fmt.Errorf("failed to click like control: %w", err)
	}
	if err := l.driver.Wait(ctx, l.cfg.Settle); err != nil {
		result.Reason = types.ReasonLikeClickFailed
		return result, err
	}

	log.WithField("strategy", control.Strategy.Name).Info("Liked item")
	result.Liked = true
	result.State = types.LikeLiked
	return result, nil
}

// stateOf reads aria-pressed, falling back to the absence of the off class
func (l *Liker) stateOf(el selector.Element) types.LikeState {
	if el.HasPressed {
		if strings.EqualFold(el.Pressed, "true") {
			return types.LikeLiked
		}
		return types.LikeNotLiked
	}
	if el.HasClass(l.cfg.OffClass) {
		return types.LikeNotLiked
	}
	return types.LikeLiked
}

func (l *Liker) removeOverlays(ctx context.Context, log logging.Entry) {
	if len(l.cfg.Overlays) == 0 {
		return
	}
	var removed int
	err := l.driver.Evaluate(ctx, removeOverlaysScript, overlayArgs{Frames: l.cfg.OverlayFrames, Selectors: l.cfg.Overlays}, &removed)
	if err != nil {
		log.WithError(err).Debug("Overlay removal failed")
		return
	}
	if removed > 0 {
		log.WithField("removed", removed).Debug("Removed overlays")
	}
}
