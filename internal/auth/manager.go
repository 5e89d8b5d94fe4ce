// Package auth drives the platform login, including the open-ended wait for a
// second factor approved on the account holder's device.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/logging"
	"github.com/ibeckermayer/like4me/internal/poll"
	"github.com/ibeckermayer/like4me/internal/selector"
	"github.com/ibeckermayer/like4me/internal/site"
	"github.com/ibeckermayer/like4me/internal/types"
)

var (
	// ErrAuthTimeout means the login never reached an authenticated page
	ErrAuthTimeout = errors.New("authentication timed out")
	// ErrAlreadyStarted means Login was called twice on one manager
	ErrAlreadyStarted = errors.New("login already attempted")
)

// Config describes the login page and the second-factor wait
type Config struct {
	LoginURL  string
	LoginHost string

	IDField         []selector.Strategy
	SecretField     []selector.Strategy
	Submit          []selector.Strategy
	LoggedInMarkers []selector.Strategy

	// SubmitSettle is the pause after clicking submit before the first check
	SubmitSettle time.Duration
	// SecondFactor bounds the wait for an authenticated location
	SecondFactor poll.Policy
}

// DefaultConfig waits up to five minutes, checking once a second
func DefaultConfig() Config {
	return Config{
		LoginURL:        site.LoginURL,
		LoginHost:       site.LoginHost,
		IDField:         site.LoginIDField,
		SecretField:     site.LoginSecretField,
		Submit:          site.LoginSubmit,
		LoggedInMarkers: site.LoggedInMarkers,
		SubmitSettle:    2 * time.Second,
		SecondFactor:    poll.Policy{Interval: time.Second, MaxAttempts: 300},
	}
}

// Manager handles platform authentication for one run
type Manager struct {
	driver   browser.Driver
	resolver *selector.Resolver
	cfg      Config
	logger   logging.Logger
	state    types.SessionState
}

// NewManager creates a new auth manager
func NewManager(driver browser.Driver, resolver *selector.Resolver, cfg Config, logger logging.Logger) *Manager {
	return &Manager{
		driver:   driver,
		resolver: resolver,
		cfg:      cfg,
		logger:   logging.OrDiscard(logger),
	}
}

// State returns the current session state
func (m *Manager) State() types.SessionState {
	return m.state
}

// Login submits cred and waits until the browser is in a logged-in context.
// cred is cleared once the session is authenticated. If the browser is
// already logged in, the form is never touched.
func (m *Manager) Login(ctx context.Context, cred *types.Credential) (err error) {
	if m.state != types.SessionNotStarted {
		return ErrAlreadyStarted
	}
	defer func() {
		if err != nil {
			m.transition(types.SessionFailed)
		}
	}()

	if err := m.driver.Navigate(ctx, m.cfg.LoginURL, browser.WaitReady); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}

	if ok, _ := m.authenticated(ctx); ok {
		m.logger.Info("Session already authenticated, skipping login form")
		m.transition(types.SessionAuthenticated)
		cred.Clear()
		return nil
	}

	if cred.Empty() {
		return errors.New("no credential supplied")
	}

	if err := m.fill(ctx, m.cfg.IDField, cred.AccountID); err != nil {
		return fmt.Errorf("failed to enter account id: %w", err)
	}
	if err := m.fill(ctx, m.cfg.SecretField, cred.Secret); err != nil {
		return fmt.Errorf("failed to enter secret: %w", err)
	}

	submit, err := m.resolver.Resolve(ctx, m.cfg.Submit)
	if err != nil {
		return fmt.Errorf("login submit control: %w", err)
	}
	if err := m.resolver.Click(ctx, submit); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}
	m.transition(types.SessionSubmitted)

	if err := m.driver.Wait(ctx, m.cfg.SubmitSettle); err != nil {
		return err
	}

	_, err = poll.Until(ctx, m.cfg.SecondFactor, func(ctx context.Context, attempt int) (struct{}, bool, error) {
		ok, err := m.authenticated(ctx)
		if !ok && attempt == 1 {
			m.transition(types.SessionAwaitingSecondFactor)
			m.logger.WithField("max_wait", m.cfg.SecondFactor.Ceiling()).
				Info("Waiting for login confirmation on the account holder's device")
		}
		return struct{}{}, ok, err
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrAuthTimeout, err)
	}

	m.transition(types.SessionAuthenticated)
	cred.Clear()
	return nil
}

func (m *Manager) fill(ctx context.Context, field []selector.Strategy, value string) error {
	match, err := m.resolver.Resolve(ctx, field)
	if err != nil {
		return err
	}
	return m.resolver.SetValue(ctx, match, value)
}

// authenticated checks location first and falls back to page markers
func (m *Manager) authenticated(ctx context.Context) (bool, error) {
	loc, err := browser.Location(ctx, m.driver)
	if err != nil {
		return false, err
	}
	if m.outsideLogin(loc.Href) {
		return true, nil
	}
	return m.resolver.Exists(ctx, m.cfg.LoggedInMarkers)
}

func (m *Manager) outsideLogin(href string) bool {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	return !strings.EqualFold(u.Host, m.cfg.LoginHost)
}

func (m *Manager) transition(to types.SessionState) {
	if m.state == to {
		return
	}
	m.logger.WithFields(logging.Fields{
		"from": m.state.String(),
		"to":   to.String(),
	}).Debug("Session state changed")
	m.state = to
}
