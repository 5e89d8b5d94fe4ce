package engage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/generator"
	"github.com/ibeckermayer/like4me/internal/logging"
	"github.com/ibeckermayer/like4me/internal/poll"
	"github.com/ibeckermayer/like4me/internal/selector"
	"github.com/ibeckermayer/like4me/internal/site"
	"github.com/ibeckermayer/like4me/internal/types"
)

// CommentState is a step of the comment submission. States only advance;
// a failure leaves the attempt in the last state it reached.
type CommentState int

const (
	ButtonArmed CommentState = iota
	EditorOpen
	TextEntered
	Submitted
	Verified
)

func (s CommentState) String() string {
	switch s {
	case ButtonArmed:
		return "button_armed"
	case EditorOpen:
		return "editor_open"
	case TextEntered:
		return "text_entered"
	case Submitted:
		return "submitted"
	case Verified:
		return "verified"
	default:
		return "unknown"
	}
}

// CommentError is a comment attempt that stopped before Verified
type CommentError struct {
	State  CommentState
	Reason types.Reason
	Err    error
}

func (e *CommentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("comment stopped at %s: %s", e.State, e.Reason)
	}
	return fmt.Sprintf("comment stopped at %s: %s: %v", e.State, e.Reason, e.Err)
}

func (e *CommentError) Unwrap() error { return e.Err }

// ErrNotCleared means the editor still held text after submitting
var ErrNotCleared = errors.New("editor not cleared after submit")

// ErrEditorGone means no editor could be found after submitting
var ErrEditorGone = errors.New("editor gone after submit")

// CommentConfig describes the comment widget
type CommentConfig struct {
	PostID  func(itemURL string) string
	Open    func(postID string) []selector.Strategy
	Surface []selector.Strategy
	Submit  []selector.Strategy

	Frames    []string
	Container string
	WriteArea string
	Title     string
	Body      string

	// Editor bounds the wait for the widget to render after arming
	Editor poll.Policy
	Settle time.Duration
}

// DefaultCommentConfig waits up to 10 seconds for the editor
func DefaultCommentConfig() CommentConfig {
	return CommentConfig{
		PostID:    site.PostID,
		Open:      site.CommentOpen,
		Surface:   site.CommentSurface,
		Submit:    site.CommentSubmit,
		Frames:    []string{site.MainFrame},
		Container: site.CommentContainer,
		WriteArea: site.CommentWriteArea,
		Title:     site.PostTitle,
		Body:      site.PostBody,
		Editor:    poll.Policy{Interval: 500 * time.Millisecond, MaxAttempts: 20},
		Settle:    2 * time.Second,
	}
}

var widgetScript = browser.NewScript("engage.commentWidget", `function(args) {
	const doc = __frameDoc(args.frames);
	if (!doc) return { container: false, writeArea: false };
	const container = doc.querySelector(args.container);
	return {
		container: !!container,
		writeArea: !!(container && container.querySelector(args.writeArea))
	};
}`)

var postTextScript = browser.NewScript("engage.postText", `function(args) {
	const doc = __frameDoc(args.frames) || document;
	const text = function(sel) {
		try {
			const el = doc.querySelector(sel);
			return el ? (el.innerText || el.textContent || '').replace(/\s+/g, ' ').trim() : '';
		} catch (e) {
			return '';
		}
	};
	return { title: text(args.title), excerpt: text(args.body).slice(0, 2000) };
}`)

type widgetArgs struct {
	Frames    []string `json:"frames"`
	Container string   `json:"container"`
	WriteArea string   `json:"writeArea"`
}

type widgetState struct {
	Container bool `json:"container"`
	WriteArea bool `json:"writeArea"`
}

type postTextArgs struct {
	Frames []string `json:"frames"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
}

type postText struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

// CommentResult reports how far a comment attempt got
type CommentResult struct {
	State CommentState
	Text  string
}

// Verified reports whether the comment was confirmed posted
func (r CommentResult) Verified() bool {
	return r.State == Verified
}

// Commenter drives the comment widget of the current item page
type Commenter struct {
	driver    browser.Driver
	resolver  *selector.Resolver
	generator generator.Generator
	cfg       CommentConfig
	logger    logging.Logger
}

// NewCommenter creates a commenter
func NewCommenter(driver browser.Driver, resolver *selector.Resolver, gen generator.Generator, cfg CommentConfig, logger logging.Logger) *Commenter {
	return &Commenter{driver: driver, resolver: resolver, generator: gen, cfg: cfg, logger: logging.OrDiscard(logger)}
}

// Comment posts a generated comment on the item whose page is current.
// It does not navigate; call it after Like on the same item. Submission is
// verified by the editor clearing; an unverified submit is not retried.
func (c *Commenter) Comment(ctx context.Context, item types.ContentItem) (CommentResult, error) {
	log := c.logger.WithField("item", item.URL)
	res := CommentResult{State: ButtonArmed}
	fail := func(reason types.Reason, err error) (CommentResult, error) {
		log.WithFields(logging.Fields{
			"state":  res.State.String(),
			"reason": string(reason),
		}).Warn("Comment attempt stopped")
		return res, &CommentError{State: res.State, Reason: reason, Err: err}
	}

	postID := c.cfg.PostID(item.URL)
	button, err := c.resolver.Resolve(ctx, c.cfg.Open(postID))
	if err != nil {
		return fail(types.ReasonCommentButtonNotFound, err)
	}
	if err := c.resolver.Click(ctx, button); err != nil {
		return fail(types.ReasonCommentButtonNotFound, err)
	}
	res.State = EditorOpen

	args := widgetArgs{Frames: c.cfg.Frames, Container: c.cfg.Container, WriteArea: c.cfg.WriteArea}
	_, err = poll.Until(ctx, c.cfg.Editor, func(ctx context.Context, _ int) (widgetState, bool, error) {
		var w widgetState
		err := c.driver.Evaluate(ctx, widgetScript, args, &w)
		return w, w.Container && w.WriteArea, err
	})
	if err != nil {
		return fail(types.ReasonCommentEditorTimeout, err)
	}

	text, err := c.generate(ctx, item)
	if err != nil {
		return fail(types.ReasonGenerationFailed, err)
	}
	res.Text = text

	surface, err := c.resolver.Resolve(ctx, c.cfg.Surface)
	if err != nil {
		return fail(types.ReasonCommentSurfaceMissing, err)
	}
	if err := c.resolver.SetText(ctx, surface, text); err != nil {
		return fail(types.ReasonCommentSurfaceMissing, err)
	}
	res.State = TextEntered

	submit, err := c.resolver.Resolve(ctx, c.cfg.Submit)
	if err != nil {
		return fail(types.ReasonCommentSubmitNotFound, err)
	}
	if err := c.resolver.Click(ctx, submit); err != nil {
		return fail(types.ReasonCommentSubmitNotFound, err)
	}
	res.State = Submitted

	if err := c.driver.Wait(ctx, c.cfg.Settle); err != nil {
		return fail(types.ReasonCommentUnverified, err)
	}
	remaining, err := c.remainingText(ctx, surface)
	if err != nil {
		return fail(types.ReasonCommentUnverified, err)
	}
	if strings.TrimSpace(remaining) != "" {
		return fail(types.ReasonCommentUnverified, ErrNotCleared)
	}

	res.State = Verified
	log.WithField("strategy", submit.Strategy.Name).Info("Comment posted")
	return res, nil
}

// remainingText reads the editor after submit. A widget that re-rendered
// is located again; one with no editor left cannot confirm the post.
func (c *Commenter) remainingText(ctx context.Context, surface selector.Match) (string, error) {
	text, err := c.resolver.ReadText(ctx, surface)
	if !errors.Is(err, selector.ErrNotFound) {
		return text, err
	}
	fresh, err := c.resolver.Resolve(ctx, c.cfg.Surface)
	if errors.Is(err, selector.ErrNotFound) {
		return "", ErrEditorGone
	}
	if err != nil {
		return "", err
	}
	text, err = c.resolver.ReadText(ctx, fresh)
	if errors.Is(err, selector.ErrNotFound) {
		return "", ErrEditorGone
	}
	return text, err
}

func (c *Commenter) generate(ctx context.Context, item types.ContentItem) (string, error) {
	var post postText
	args := postTextArgs{Frames: c.cfg.Frames, Title: c.cfg.Title, Body: c.cfg.Body}
	if err := c.driver.Evaluate(ctx, postTextScript, args, &post); err != nil {
		c.logger.WithError(err).Debug("Failed to read post text")
	}
	title := post.Title
	if title == "" {
		title = item.Title
	}

	text, err := c.generator.Generate(ctx, generator.Post{URL: item.URL, Title: title, Excerpt: post.Excerpt})
	if err != nil {
		return "", err
	}
	text = generator.Clean(text)
	if text == "" {
		return "", generator.ErrEmpty
	}
	return text, nil
}
