package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/browser"

	chrome "github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/config"
	"github.com/ibeckermayer/like4me/internal/generator"
	"github.com/ibeckermayer/like4me/internal/logging"
	"github.com/ibeckermayer/like4me/internal/notifier"
	"github.com/ibeckermayer/like4me/internal/report"
	"github.com/ibeckermayer/like4me/internal/runner"
	"github.com/ibeckermayer/like4me/internal/scheduler"
	"github.com/ibeckermayer/like4me/internal/store"
	"github.com/ibeckermayer/like4me/internal/types"
)

var (
	// ErrRunInProgress is returned when a run is requested while one is active
	ErrRunInProgress = errors.New("a run is already in progress")
	// ErrHistoryDisabled is returned when run history is turned off
	ErrHistoryDisabled = errors.New("run history disabled")
)

// RunnerFactory builds the engine for a configuration
type RunnerFactory func(cfg *config.Config, logger logging.Logger) (*runner.Runner, error)

// DefaultRunnerFactory drives a real Chrome and the configured comment generator
func DefaultRunnerFactory(cfg *config.Config, logger logging.Logger) (*runner.Runner, error) {
	var gen generator.Generator
	if cfg.Comment.Enabled {
		var err error
		gen, err = generator.New(cfg.Comment, logger)
		if err != nil {
			return nil, err
		}
	}
	launch := runner.ChromeLauncher(chrome.LaunchOptions{
		Headless:  cfg.Browser.Headless,
		UserAgent: cfg.Browser.UserAgent,
	}, logger)
	return runner.New(launch, gen, logger), nil
}

// App holds the application state.
type App struct {
	mu      sync.RWMutex
	history *store.Store // immutable after creation, nil when disabled

	// Mutable fields - use getSnapshot() for concurrent access.
	config   *config.Config
	runner   *runner.Runner
	notifier *notifier.Notifier

	runMu     sync.Mutex
	schedMu   sync.Mutex
	scheduler *scheduler.Scheduler

	newRunner RunnerFactory
	load      func() (*config.Config, error)
	sender    notifier.Sender
	location  *time.Location
	logger    logging.Logger
}

// snapshot holds fields that may be replaced by ReloadConfig.
type snapshot struct {
	config   *config.Config
	runner   *runner.Runner
	notifier *notifier.Notifier
}

func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		config:   a.config,
		runner:   a.runner,
		notifier: a.notifier,
	}
}

// Option customizes an App
type Option func(*App)

// WithRunnerFactory replaces how the engine is built
func WithRunnerFactory(f RunnerFactory) Option {
	return func(a *App) { a.newRunner = f }
}

// WithLoader replaces how ReloadConfig reads the configuration
func WithLoader(load func() (*config.Config, error)) Option {
	return func(a *App) { a.load = load }
}

// WithSender delivers reports through s instead of SMTP. Email must still
// be enabled in the configuration.
func WithSender(s notifier.Sender) Option {
	return func(a *App) { a.sender = s }
}

// WithLocation sets the zone reports are rendered in
func WithLocation(loc *time.Location) Option {
	return func(a *App) { a.location = loc }
}

// New creates a new App instance.
func New(cfg *config.Config, logger logging.Logger, opts ...Option) (*App, error) {
	a := &App{
		newRunner: DefaultRunnerFactory,
		load:      config.Load,
		location:  time.Local,
		logger:    logging.OrDiscard(logger),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.apply(cfg); err != nil {
		return nil, err
	}

	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			return nil, err
		}
		a.history, err = store.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
	}
	return a, nil
}

// apply swaps in the components derived from cfg
func (a *App) apply(cfg *config.Config) error {
	r, err := a.newRunner(cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to build runner: %w", err)
	}
	n, err := a.buildNotifier(cfg.Email)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.config = cfg
	a.runner = r
	a.notifier = n
	a.mu.Unlock()
	return nil
}

func (a *App) buildNotifier(cfg config.EmailConfig) (*notifier.Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if a.sender != nil {
		return notifier.New(a.sender, cfg.ToAddr), nil
	}
	return notifier.NewFromConfig(cfg)
}

// Config returns the active configuration
func (a *App) Config() *config.Config {
	return a.getSnapshot().config
}

// RunOnce performs one engagement run and records it. The result is
// returned even when the run failed, alongside the error.
func (a *App) RunOnce(ctx context.Context) (*types.RunResult, error) {
	if !a.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer a.runMu.Unlock()

	s := a.getSnapshot()
	result, err := s.runner.Run(ctx, s.config.RunConfig())
	if result == nil {
		return nil, err
	}
	a.record(result, s)
	return result, err
}

// record persists and reports a finished run. Failures here never change
// the run's outcome.
func (a *App) record(result *types.RunResult, s snapshot) {
	log := a.logger.WithField("run_id", result.RunID)

	if a.history != nil {
		if err := a.history.SaveRun(result); err != nil {
			log.WithError(err).Warn("Failed to save run history")
		}
		if days := s.config.History.RetentionDays; days > 0 {
			if _, err := a.PruneHistory(result.StartedAt.AddDate(0, 0, -days)); err != nil {
				log.WithError(err).Warn("Failed to prune run history")
			}
		}
	}

	if path, err := store.SaveSnapshot(result); err != nil {
		log.WithError(err).Warn("Failed to save run snapshot")
	} else {
		log.WithField("path", path).Debug("Saved run snapshot")
	}

	if s.notifier == nil {
		return
	}
	rep, err := report.Build(result, a.location)
	if err != nil {
		log.WithError(err).Warn("Failed to build report")
		return
	}
	if err := s.notifier.SendReport(rep); err != nil {
		log.WithError(err).Warn("Failed to email report")
		return
	}
	log.Info("Report emailed")
}

// StartSchedule repeats runs every MinIntervalMinutes until StopSchedule.
// The first run happens one interval from now. Scheduled runs are cancelled
// when ctx ends.
func (a *App) StartSchedule(ctx context.Context) error {
	rc := a.getSnapshot().config.RunConfig()
	if err := rc.Validate(); err != nil {
		return err
	}

	a.schedMu.Lock()
	defer a.schedMu.Unlock()
	if a.scheduler != nil {
		return fmt.Errorf("schedule already started")
	}

	sched, err := scheduler.New("", a.logger,
		scheduler.WithJobTimeout(rc.Timeout+time.Minute),
		scheduler.WithBaseContext(ctx),
	)
	if err != nil {
		return err
	}
	if err := sched.AddRunJob(rc.MinIntervalMinutes, a.scheduledRun); err != nil {
		return err
	}
	sched.Start()
	a.scheduler = sched

	a.logger.WithField("interval_minutes", rc.MinIntervalMinutes).Info("Run schedule started")
	return nil
}

func (a *App) scheduledRun(ctx context.Context) error {
	_, err := a.RunOnce(ctx)
	return err
}

// ScheduledJobs lists the active schedule, empty when none is running
func (a *App) ScheduledJobs() []scheduler.JobInfo {
	a.schedMu.Lock()
	defer a.schedMu.Unlock()
	if a.scheduler == nil {
		return nil
	}
	return a.scheduler.ListJobs()
}

// StopSchedule stops the schedule and waits for a running job to finish
func (a *App) StopSchedule() {
	a.schedMu.Lock()
	sched := a.scheduler
	a.scheduler = nil
	a.schedMu.Unlock()

	if sched != nil {
		<-sched.Stop().Done()
	}
}

// History lists the most recent runs, newest first
func (a *App) History(limit int) ([]store.RunSummary, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.RecentRuns(limit)
}

// Outcomes lists the recorded items of one run
func (a *App) Outcomes(runID string) ([]store.OutcomeRecord, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.Outcomes(runID)
}

// PruneHistory removes runs that started before cutoff and returns how
// many were removed
func (a *App) PruneHistory(cutoff time.Time) (int64, error) {
	if a.history == nil {
		return 0, ErrHistoryDisabled
	}
	n, err := a.history.Prune(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune run history: %w", err)
	}
	if n > 0 {
		a.logger.WithFields(logging.Fields{"runs": n, "cutoff": cutoff.Format(time.DateOnly)}).Info("Pruned run history")
	}
	return n, nil
}

// LastReport renders the most recent run snapshot
func (a *App) LastReport() (*report.Report, error) {
	result, _, err := store.LatestSnapshot()
	if err != nil {
		return nil, err
	}
	return report.Build(result, a.location)
}

// ViewLastReport opens the most recent run report in the default browser.
func (a *App) ViewLastReport() error {
	rep, err := a.LastReport()
	if err != nil {
		a.logger.WithError(err).Warn("No run report found")
		return err
	}

	dir, err := store.SnapshotDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "last-report.html")
	if err := os.WriteFile(path, []byte(rep.HTMLBody), 0600); err != nil {
		return err
	}

	a.logger.WithField("path", path).Info("Opening report")
	return browser.OpenFile(path)
}

// ReloadConfig reloads the configuration from disk. A running schedule
// picks up the new interval.
func (a *App) ReloadConfig() error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	if err := a.apply(cfg); err != nil {
		return err
	}

	a.schedMu.Lock()
	defer a.schedMu.Unlock()
	if a.scheduler != nil {
		rc := cfg.RunConfig()
		if err := rc.Validate(); err != nil {
			return err
		}
		if err := a.scheduler.AddRunJob(rc.MinIntervalMinutes, a.scheduledRun); err != nil {
			return err
		}
	}

	a.logger.Info("Configuration reloaded")
	return nil
}

// Close stops the schedule and releases the history database
func (a *App) Close() error {
	a.StopSchedule()
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}
