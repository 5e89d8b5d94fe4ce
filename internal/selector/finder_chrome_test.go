//go:build chrome

package selector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/like4me/internal/browser"
)

const fixturePage = `<!DOCTYPE html>
<html><body>
<button class="like" id="outside">out</button>
<div class="post"><button class="like" id="inside">in</button></div>
<div class="area"><button class="btn" id="first">등록</button><button class="btn" id="second">등록</button></div>
<div class="sticker"><button class="btn" id="sticker">등록</button></div>
<button class="btn" id="plain"><span id="label">등록</span></button>
<div id="scope"><a class="link" id="scoped">x</a></div>
<a class="link" id="unscoped">y</a>
<div contenteditable="true" id="editor"></div>
<iframe id="mainFrame" src="/frame"></iframe>
</body></html>`

const fixtureFrame = `<!DOCTYPE html>
<html><body><button class="like" id="framed">f</button></body></html>`

// Run with: go test -tags chrome ./internal/selector/
func chromeResolver(t *testing.T) (*Resolver, context.Context) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/frame", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fixtureFrame))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fixturePage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	c, err := browser.Launch(ctx, browser.LaunchOptions{Headless: true}, nil)
	if err != nil {
		t.Skipf("chrome unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.Navigate(ctx, srv.URL, browser.WaitReady))
	return New(c, nil), ctx
}

func TestFinderInChrome(t *testing.T) {
	r, ctx := chromeResolver(t)

	tests := []struct {
		name     string
		strategy Strategy
		wantID   string
		wantTag  string
	}{
		{"first match", Strategy{Kind: KindCSS, Selector: ".like"}, "outside", "button"},
		{"within", Strategy{Kind: KindCSS, Selector: ".like", Within: ".post"}, "inside", "button"},
		{"scope", Strategy{Kind: KindCSS, Selector: ".link", Scope: "#scope"}, "scoped", "a"},
		{"scope and last", Strategy{Kind: KindCSS, Selector: ".btn", Scope: ".area", Last: true}, "second", "button"},
		{"by id", Strategy{Kind: KindID, Value: "unscoped"}, "unscoped", "a"},
		{"attr contains", Strategy{Kind: KindAttrContains, Selector: "[contenteditable]", Attr: "id", Value: "edit"}, "editor", "div"},
		// Innermost text match wins over its button, the sticker copy is excluded
		{"text innermost exclude last", Strategy{Kind: KindText, Value: "등록", Exclude: ".sticker", Last: true}, "label", "span"},
		{"text contains", Strategy{Kind: KindTextContains, Selector: "button", Value: "ou"}, "outside", "button"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.strategy.Name = tt.name
			m, err := r.Resolve(ctx, []Strategy{tt.strategy})
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, m.Element.ID)
			assert.Equal(t, tt.wantTag, m.Element.Tag)
		})
	}
}

func TestFinderMissesInChrome(t *testing.T) {
	r, ctx := chromeResolver(t)

	for _, s := range []Strategy{
		{Name: "missing scope", Kind: KindCSS, Selector: ".like", Scope: "#nowhere"},
		{Name: "everything excluded", Kind: KindCSS, Selector: ".like", Exclude: "body"},
		{Name: "bad selector", Kind: KindCSS, Selector: "[[["},
		{Name: "missing frame", Kind: KindCSS, Selector: ".like", Frames: []string{"noFrame"}},
	} {
		_, err := r.Resolve(ctx, []Strategy{s})
		assert.ErrorIs(t, err, ErrNotFound, s.Name)
	}
}

func TestFinderDescendsFramesInChrome(t *testing.T) {
	r, ctx := chromeResolver(t)
	s := Strategy{Name: "framed", Kind: KindCSS, Selector: ".like", Frames: []string{"mainFrame"}}

	var m Match
	require.Eventually(t, func() bool {
		var err error
		m, err = r.Resolve(ctx, []Strategy{s})
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)
	assert.Equal(t, "framed", m.Element.ID)
}

func TestEditableRoundTripInChrome(t *testing.T) {
	r, ctx := chromeResolver(t)

	m, err := r.Resolve(ctx, []Strategy{{Name: "editor", Kind: KindCSS, Selector: `[contenteditable="true"]`}})
	require.NoError(t, err)
	require.NoError(t, r.SetText(ctx, m, "벚꽃 사진 정말 예쁘네요!"))

	got, err := r.ReadText(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "벚꽃 사진 정말 예쁘네요!", got)
}
