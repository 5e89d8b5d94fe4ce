// Package runner sequences one complete engagement run: login, relation
// enumeration, per-item date filtering, liking and commenting, with the
// browser torn down and the credential cleared on every exit path.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/ibeckermayer/like4me/internal/auth"
	"github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/config"
	"github.com/ibeckermayer/like4me/internal/discovery"
	"github.com/ibeckermayer/like4me/internal/engage"
	"github.com/ibeckermayer/like4me/internal/generator"
	"github.com/ibeckermayer/like4me/internal/logging"
	"github.com/ibeckermayer/like4me/internal/relations"
	"github.com/ibeckermayer/like4me/internal/selector"
	"github.com/ibeckermayer/like4me/internal/types"
)

// ErrRunTimeout is returned when the run exceeded its overall deadline
var ErrRunTimeout = errors.New("run timed out")

// Launcher starts a browser session for one run
type Launcher func(ctx context.Context) (browser.Driver, error)

// ChromeLauncher launches a real browser with opts
func ChromeLauncher(opts browser.LaunchOptions, logger logging.Logger) Launcher {
	return func(ctx context.Context) (browser.Driver, error) {
		return browser.Launch(ctx, opts, logger)
	}
}

// Settings holds the component configurations used during a run
type Settings struct {
	Auth      auth.Config
	Relations relations.Config
	List      discovery.ListConfig
	Dates     discovery.DateConfig
	Like      engage.LikeConfig
	Comment   engage.CommentConfig
}

// DefaultSettings targets the live site
func DefaultSettings() Settings {
	return Settings{
		Auth:      auth.DefaultConfig(),
		Relations: relations.DefaultConfig(),
		List:      discovery.DefaultListConfig(),
		Dates:     discovery.DefaultDateConfig(),
		Like:      engage.DefaultLikeConfig(),
		Comment:   engage.DefaultCommentConfig(),
	}
}

// Runner executes runs. It is not safe for concurrent Run calls sharing a
// browser profile; callers serialize runs.
type Runner struct {
	launch    Launcher
	generator generator.Generator
	settings  Settings
	logger    logging.Logger
	now       func() time.Time
	rng       *rand.Rand
}

// Option customizes a Runner
type Option func(*Runner)

// WithSettings replaces the component configurations
func WithSettings(s Settings) Option {
	return func(r *Runner) { r.settings = s }
}

// WithClock sets the time source used for timestamps and date filtering
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithSeed makes inter-item delays deterministic
func WithSeed(seed uint64) Option {
	return func(r *Runner) { r.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// New creates a runner. gen may be nil when comments are never enabled.
func New(launch Launcher, gen generator.Generator, logger logging.Logger, opts ...Option) *Runner {
	r := &Runner{
		launch:    launch,
		generator: gen,
		settings:  DefaultSettings(),
		logger:    logging.OrDiscard(logger),
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// session bundles the components bound to one browser
type session struct {
	driver    browser.Driver
	auth      *auth.Manager
	relations *relations.Enumerator
	lister    *discovery.Lister
	dates     discovery.DateResolver
	liker     *engage.Liker
	commenter *engage.Commenter
}

func (r *Runner) newSession(driver browser.Driver) *session {
	resolver := selector.New(driver, r.logger)
	dates := r.settings.Dates
	dates.Now = r.now
	s := &session{
		driver:    driver,
		auth:      auth.NewManager(driver, resolver, r.settings.Auth, r.logger),
		relations: relations.NewEnumerator(driver, r.settings.Relations, r.logger),
		lister:    discovery.NewLister(driver, r.settings.List, r.logger),
		dates:     discovery.NewHeuristicDateResolver(driver, dates, r.logger),
		liker:     engage.NewLiker(driver, resolver, r.settings.Like, r.logger),
	}
	if r.generator != nil {
		s.commenter = engage.NewCommenter(driver, resolver, r.generator, r.settings.Comment, r.logger)
	}
	return s
}

// Run executes one run. An invalid configuration returns ErrInvalid before
// anything is launched. A fatal error returns the partial result with
// Success=false alongside the error; item-scoped failures only show up in
// the result.
func (r *Runner) Run(ctx context.Context, rc config.RunConfig) (*types.RunResult, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	cred := rc.Credential()
	defer cred.Clear()

	if rc.CommentEnabled && r.generator == nil {
		return nil, fmt.Errorf("%w: comments enabled without a generator", config.ErrInvalid)
	}

	result := &types.RunResult{
		RunID:     uuid.NewString(),
		StartedAt: r.now(),
		Errors:    []string{},
	}
	log := r.logger.WithField("run_id", result.RunID)
	log.WithField("config", rc.String()).Info("Run started")

	ctx, cancel := context.WithTimeout(ctx, rc.Timeout)
	defer cancel()

	err := r.run(ctx, rc, cred, result, log)

	result.CompletedAt = r.now()
	result.Reconcile()
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		log.WithError(err).WithField("processed", result.Totals.Processed).Error("Run failed")
		return result, err
	}

	result.Success = true
	log.WithFields(logging.Fields{
		"processed":     result.Totals.Processed,
		"liked":         result.Totals.Liked,
		"already_liked": result.Totals.AlreadyLiked,
		"failed":        result.Totals.Failed,
		"commented":     result.Totals.Commented,
		"skipped":       result.Totals.Skipped,
		"duration":      result.Duration().Round(time.Second),
	}).Info("Run completed")
	return result, nil
}

func (r *Runner) run(ctx context.Context, rc config.RunConfig, cred *types.Credential, result *types.RunResult, log logging.Entry) error {
	driver, err := r.launch(ctx)
	if err != nil {
		return r.fatal(ctx, fmt.Errorf("browser launch failed: %w", err))
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.WithError(err).Warn("Browser teardown failed")
		}
	}()

	s := r.newSession(driver)

	if err := s.auth.Login(ctx, cred); err != nil {
		return r.fatal(ctx, fmt.Errorf("login failed: %w", err))
	}
	accountID := rc.AccountID

	rels, err := s.relations.List(ctx, accountID, rc.MaxRelations)
	if err != nil {
		return r.fatal(ctx, fmt.Errorf("relation enumeration failed: %w", err))
	}
	log.WithField("relations", len(rels)).Info("Processing relations")

	seen := make(map[string]bool)
	for _, rel := range rels {
		result.PerRelationStats = append(result.PerRelationStats, types.RelationStats{
			RelationID: rel.RelationID,
			Name:       rel.DisplayName,
		})
		if err := r.processRelation(ctx, s, rc, rel, seen, result, log); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) processRelation(ctx context.Context, s *session, rc config.RunConfig, rel types.RelationRecord, seen map[string]bool, result *types.RunResult, log logging.Entry) error {
	log = log.WithField("relation", rel.RelationID)

	items, err := s.lister.ListRecent(ctx, rel.ProfileURL)
	if err != nil {
		if ctx.Err() != nil {
			return r.fatal(ctx, err)
		}
		log.WithError(err).Warn("Failed to list items")
		result.Errors = append(result.Errors, fmt.Sprintf("%s: listing failed: %v", rel.RelationID, err))
		return nil
	}
	if len(items) > rc.MaxItems {
		items = items[:rc.MaxItems]
	}
	log.WithField("items", len(items)).Debug("Listed items")

	now := r.now()
	for _, item := range items {
		if seen[item.URL] {
			continue
		}
		seen[item.URL] = true

		if ctx.Err() != nil {
			return r.fatal(ctx, ctx.Err())
		}

		published, ok, err := s.dates.ResolvePublishDate(ctx, item.URL)
		if ctx.Err() != nil {
			return r.fatal(ctx, ctx.Err())
		}
		if err != nil || !ok {
			result.Totals.Skipped++
			msg := fmt.Sprintf("%s: publish date unknown", item.URL)
			if err != nil {
				msg = fmt.Sprintf("%s: %v", msg, err)
			}
			result.Errors = append(result.Errors, msg)
			log.WithField("item", item.URL).Debug("Skipping item without publish date")
			continue
		}
		item.PublishedAt = &published
		if !discovery.IsEligible(published, now, rc.DaysLimit) {
			result.Totals.Skipped++
			log.WithFields(logging.Fields{
				"item":      item.URL,
				"published": published.Format(time.DateOnly),
			}).Debug("Skipping item older than the date limit")
			continue
		}

		outcome := r.engage(ctx, s, rc, rel, item, log)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Reason != types.ReasonNone && outcome.Reason != types.ReasonAlreadyLiked {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", item.URL, outcome.Reason))
		}
		if ctx.Err() != nil {
			return r.fatal(ctx, ctx.Err())
		}

		if err := r.pause(ctx, s.driver, rc); err != nil {
			return r.fatal(ctx, err)
		}
	}
	return nil
}

// engage likes an item and optionally comments on it. Failures are recorded
// on the outcome and never abort the run.
func (r *Runner) engage(ctx context.Context, s *session, rc config.RunConfig, rel types.RelationRecord, item types.ContentItem, log logging.Entry) types.EngagementOutcome {
	outcome := types.EngagementOutcome{Relation: rel.RelationID, Item: item}

	res, err := s.liker.Like(ctx, item)
	outcome.Item.LikeState = res.State
	if err != nil {
		log.WithError(err).WithField("item", item.URL).Warn("Like failed")
		outcome.Failed = true
		outcome.Reason = res.Reason
		return outcome
	}
	if !res.Liked {
		outcome.Reason = res.Reason
		return outcome
	}
	outcome.Liked = true

	if !rc.CommentEnabled || s.commenter == nil {
		return outcome
	}
	cres, err := s.commenter.Comment(ctx, item)
	outcome.CommentText = cres.Text
	if err != nil {
		var ce *engage.CommentError
		if errors.As(err, &ce) {
			outcome.Reason = ce.Reason
		} else {
			outcome.Reason = types.ReasonCommentUnverified
		}
		return outcome
	}
	outcome.Commented = cres.Verified()
	return outcome
}

// pause waits a random delay in [ItemDelayMin, ItemDelayMax]
func (r *Runner) pause(ctx context.Context, driver browser.Driver, rc config.RunConfig) error {
	d := rc.ItemDelayMin
	if spread := rc.ItemDelayMax - rc.ItemDelayMin; spread > 0 {
		d += time.Duration(r.rng.Int64N(int64(spread) + 1))
	}
	return driver.Wait(ctx, d)
}

// fatal maps a deadline overrun to ErrRunTimeout
func (r *Runner) fatal(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrRunTimeout) {
		return fmt.Errorf("%w: %v", ErrRunTimeout, err)
	}
	return err
}
