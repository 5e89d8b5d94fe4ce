package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/like4me/internal/logging"
)

// LaunchOptions configures a Chrome instance
type LaunchOptions struct {
	Headless   bool
	UserAgent  string
	NavTimeout time.Duration
}

// Chrome drives a real browser over the DevTools protocol
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	navTimeout  time.Duration
	logger      logging.Logger
	closeOnce   sync.Once
}

// Launch starts a browser. The browser's lifetime is owned by the returned
// Chrome and ends at Close, not when ctx is cancelled.
func Launch(ctx context.Context, opts LaunchOptions, logger logging.Logger) (*Chrome, error) {
	logger = logging.OrDiscard(logger)
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), Options(opts.Headless, opts.UserAgent)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Debugf))

	c := &Chrome{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		navTimeout:  opts.NavTimeout,
		logger:      logger,
	}

	// Start the browser under the caller's deadline
	runCtx, done := c.bind(ctx)
	defer done()
	if err := chromedp.Run(runCtx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.WithField("headless", opts.Headless).Debug("Browser started")
	return c, nil
}

// bind derives a chromedp context that also ends when ctx ends
func (c *Chrome) bind(ctx context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(c.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Navigate loads url in the top frame
func (c *Chrome) Navigate(ctx context.Context, url string, wait WaitPolicy) error {
	runCtx, done := c.bind(ctx)
	defer done()
	runCtx, cancel := context.WithTimeout(runCtx, c.navTimeout)
	defer cancel()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if wait == WaitReady {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Evaluate runs script in the top document
func (c *Chrome) Evaluate(ctx context.Context, script Script, args any, out any) error {
	expr, err := script.Expression(args)
	if err != nil {
		return err
	}

	if out == nil {
		var discard json.RawMessage
		out = &discard
	}

	runCtx, done := c.bind(ctx)
	defer done()

	err = chromedp.Run(runCtx, chromedp.Evaluate(expr, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true).WithReturnByValue(true)
	}))
	if err != nil {
		return fmt.Errorf("script %s failed: %w", script.Name, err)
	}
	return nil
}

// Wait pauses for d
func (c *Chrome) Wait(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// Close clears session cookies and shuts the browser down. Safe to call more than once.
func (c *Chrome) Close() error {
	var err error
	c.closeOnce.Do(func() {
		clearCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
		if cerr := chromedp.Run(clearCtx, network.ClearBrowserCookies()); cerr != nil {
			c.logger.WithError(cerr).Debug("Failed to clear cookies before shutdown")
		}
		cancel()

		err = chromedp.Cancel(c.ctx)
		c.cancel()
		c.allocCancel()
		c.logger.Debug("Browser closed")
	})
	return err
}
