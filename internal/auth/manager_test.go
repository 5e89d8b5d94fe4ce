package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/like4me/internal/browser/browsertest"
	"github.com/ibeckermayer/like4me/internal/poll"
	"github.com/ibeckermayer/like4me/internal/selector"
	"github.com/ibeckermayer/like4me/internal/site"
	"github.com/ibeckermayer/like4me/internal/types"
)

const confirmURL = "https://nid.naver.com/login/ext/deviceConfirm"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SubmitSettle = time.Millisecond
	cfg.SecondFactor = poll.Policy{Interval: time.Millisecond, MaxAttempts: 5}
	return cfg
}

// loginSite serves a login form whose submit lands on a confirmation page
func loginSite() (*browsertest.Driver, *browsertest.Page) {
	d := browsertest.New()
	login := d.Page(site.LoginURL)
	login.Add(
		&browsertest.Element{Key: "id", Strategies: []string{"login-id"}, Tag: "input"},
		&browsertest.Element{Key: "pw", Strategies: []string{"login-pw-type"}, Tag: "input"},
		&browsertest.Element{
			Key:        "submit",
			Strategies: []string{"login-submit-type"},
			Tag:        "button",
			OnClick: func(d *browsertest.Driver, p *browsertest.Page) {
				d.Show(confirmURL)
			},
		},
	)
	return d, login
}

// approveAfter lands on the home page once the location was read n times
func approveAfter(d *browsertest.Driver, n int) {
	reads := 0
	d.Page(confirmURL).Handle("browser.location", func(d *browsertest.Driver, p *browsertest.Page, _ json.RawMessage) (any, error) {
		reads++
		if reads >= n {
			d.Show("https://www.naver.com/")
			return map[string]string{"href": "https://www.naver.com/"}, nil
		}
		return map[string]string{"href": p.URL}, nil
	})
}

func newManager(d *browsertest.Driver) *Manager {
	return NewManager(d, selector.New(d, nil), testConfig(), nil)
}

func TestLoginWaitsForSecondFactor(t *testing.T) {
	d, login := loginSite()
	approveAfter(d, 3)
	m := newManager(d)
	cred := &types.Credential{AccountID: "holder", Secret: "s3cret"}

	require.NoError(t, m.Login(context.Background(), cred))

	assert.Equal(t, types.SessionAuthenticated, m.State())
	assert.True(t, cred.Empty(), "credential must be cleared after login")
	assert.Equal(t, "holder", login.Element("id").Value)
	assert.Equal(t, "s3cret", login.Element("pw").Value)
	assert.Equal(t, []string{"submit"}, d.Clicks())
}

func TestLoginTimesOut(t *testing.T) {
	d, _ := loginSite()
	m := newManager(d)
	cred := &types.Credential{AccountID: "holder", Secret: "s3cret"}

	err := m.Login(context.Background(), cred)
	require.ErrorIs(t, err, ErrAuthTimeout)
	assert.Equal(t, types.SessionFailed, m.State())

	// A failed manager cannot be reused
	assert.ErrorIs(t, m.Login(context.Background(), cred), ErrAlreadyStarted)
}

func TestLoginSkipsFormWhenAlreadyAuthenticated(t *testing.T) {
	d, _ := loginSite()
	d.Redirect(site.LoginURL, "https://www.naver.com/")
	m := newManager(d)
	cred := &types.Credential{AccountID: "holder", Secret: "s3cret"}

	require.NoError(t, m.Login(context.Background(), cred))
	assert.Equal(t, types.SessionAuthenticated, m.State())
	assert.Empty(t, d.Clicks())
	assert.True(t, cred.Empty())
}

func TestLoginAcceptsLoggedInMarker(t *testing.T) {
	d, _ := loginSite()
	d.Page(confirmURL).Add(&browsertest.Element{Key: "logout", Strategies: []string{"session-logout"}})
	m := newManager(d)

	require.NoError(t, m.Login(context.Background(), &types.Credential{AccountID: "a", Secret: "b"}))
	assert.Equal(t, types.SessionAuthenticated, m.State())
}

func TestLoginFailsWithoutSubmitControl(t *testing.T) {
	d, login := loginSite()
	login.Remove("submit")
	m := newManager(d)

	err := m.Login(context.Background(), &types.Credential{AccountID: "a", Secret: "b"})
	require.ErrorIs(t, err, selector.ErrNotFound)
	assert.Equal(t, types.SessionFailed, m.State())
}

func TestLoginRejectsEmptyCredential(t *testing.T) {
	d, _ := loginSite()
	m := newManager(d)
	require.Error(t, m.Login(context.Background(), &types.Credential{}))
	assert.Equal(t, types.SessionFailed, m.State())
}
