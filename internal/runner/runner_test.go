package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/like4me/internal/auth"
	"github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/browser/browsertest"
	"github.com/ibeckermayer/like4me/internal/config"
	"github.com/ibeckermayer/like4me/internal/discovery"
	"github.com/ibeckermayer/like4me/internal/generator"
	"github.com/ibeckermayer/like4me/internal/poll"
	"github.com/ibeckermayer/like4me/internal/relations"
	"github.com/ibeckermayer/like4me/internal/site"
	"github.com/ibeckermayer/like4me/internal/types"
)

var (
	seoul = time.FixedZone("KST", 9*60*60)
	now   = time.Date(2026, 3, 15, 12, 0, 0, 0, seoul)
)

func fastSettings() Settings {
	tick := func(n int) poll.Policy { return poll.Policy{Interval: time.Millisecond, MaxAttempts: n} }
	s := DefaultSettings()
	s.Auth.SubmitSettle = 0
	s.Auth.SecondFactor = tick(3)
	s.Relations.Settle = 0
	s.Relations.Rows = tick(3)
	s.List.Settle = 0
	s.Dates.Frame = tick(2)
	s.Like.Settle = 0
	s.Comment.Editor = tick(3)
	s.Comment.Settle = 0
	return s
}

func runConfig() config.RunConfig {
	return config.RunConfig{
		AccountID:    "holder",
		Secret:       "s3cret",
		DaysLimit:    7,
		MaxRelations: 2,
		MaxItems:     10,
		ItemDelayMin: time.Second,
		ItemDelayMax: 2 * time.Second,
	}
}

// post describes one content item on the fake site
type post struct {
	logNo   string
	daysAgo int // negative means the date cannot be determined
	liked   bool
	noLike  bool
	comment bool
}

type fakeSite struct {
	d       *browsertest.Driver
	likes   map[string]*browsertest.Element
	surface map[string]*browsertest.Element
}

func newFakeSite(t *testing.T, relationIDs []string, posts map[string][]post) *fakeSite {
	t.Helper()
	fs := &fakeSite{
		d:       browsertest.New(),
		likes:   make(map[string]*browsertest.Element),
		surface: make(map[string]*browsertest.Element),
	}
	d := fs.d

	// Login with a second factor approved on the next check
	d.Page(site.LoginURL).Add(
		&browsertest.Element{Key: "id", Strategies: []string{"login-id"}},
		&browsertest.Element{Key: "pw", Strategies: []string{"login-pw"}},
		&browsertest.Element{Key: "login", Strategies: []string{"login-submit"}, OnClick: func(d *browsertest.Driver, _ *browsertest.Page) {
			d.Show("https://www.naver.com/")
		}},
	)

	var rows []relations.Row
	for _, id := range relationIDs {
		rows = append(rows, relations.Row{Name: "Neighbor " + id, Href: site.BlogURL(id)})
	}
	d.Page(site.RelationViewURL("holder")).Return("relations.table", relations.TableState{FrameReady: true, TableReady: true, Rows: rows})

	for _, id := range relationIDs {
		var anchors []discovery.Anchor
		for _, p := range posts[id] {
			url := site.PostURL(id, p.logNo)
			anchors = append(anchors, discovery.Anchor{Href: url, Text: "post " + p.logNo})
			fs.addPost(url, p)
		}
		d.Page(site.ListingURL(site.BlogURL(id))).Return("discovery.anchors", anchors)
	}
	return fs
}

func (fs *fakeSite) addPost(url string, p post) {
	page := fs.d.Page(url)
	probe := discovery.DateProbe{Exact: "작성자 정보 없음"}
	if p.daysAgo >= 0 {
		probe.Exact = now.AddDate(0, 0, -p.daysAgo).Format("2006. 1. 2. 15:04")
	}
	page.Return("discovery.frameReady", true).Return("discovery.dateProbe", probe)

	if !p.noLike {
		pressed := "false"
		if p.liked {
			pressed = "true"
		}
		like := &browsertest.Element{Key: "like:" + url, Strategies: []string{"like-region"}, Pressed: pressed}
		like.OnClick = func(*browsertest.Driver, *browsertest.Page) { like.Pressed = "true" }
		page.Add(like)
		fs.likes[url] = like
	}

	if p.comment {
		surface := &browsertest.Element{Key: "surface:" + url, Strategies: []string{"surface-write-area"}}
		fs.surface[url] = surface
		page.Add(
			&browsertest.Element{Key: "comment:" + url, Strategies: []string{"comment-region"}},
			surface,
			&browsertest.Element{Key: "submit:" + url, Strategies: []string{"submit-label"}, OnClick: func(*browsertest.Driver, *browsertest.Page) {
				surface.Text = ""
			}},
		)
		page.Return("engage.commentWidget", map[string]bool{"container": true, "writeArea": true})
		page.Return("engage.postText", map[string]string{"title": "post", "excerpt": "body"})
	}
}

func (fs *fakeSite) launcher(launches *int) Launcher {
	return func(context.Context) (browser.Driver, error) {
		*launches++
		return fs.d, nil
	}
}

type fixedGenerator string

func (g fixedGenerator) Generate(context.Context, generator.Post) (string, error) {
	return string(g), nil
}

func newRunner(fs *fakeSite, launches *int, opts ...Option) *Runner {
	opts = append([]Option{WithSettings(fastSettings()), WithClock(func() time.Time { return now }), WithSeed(1)}, opts...)
	return New(fs.launcher(launches), fixedGenerator("잘 보고 갑니다"), nil, opts...)
}

func TestRunEndToEnd(t *testing.T) {
	three := func(prefix string) []post {
		return []post{
			{logNo: prefix + "000001", daysAgo: 1},
			{logNo: prefix + "000002", daysAgo: 10},
			{logNo: prefix + "000003", daysAgo: 6},
		}
	}
	fs := newFakeSite(t, []string{"alpha", "bravo", "charlie"}, map[string][]post{
		"alpha":   three("223100"),
		"bravo":   three("223200"),
		"charlie": three("223300"),
	})
	launches := 0

	result, err := newRunner(fs, &launches).Run(context.Background(), runConfig())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 4, result.Totals.Processed)
	assert.Equal(t, 4, result.Totals.Liked)
	assert.Equal(t, 2, result.Totals.Skipped)
	require.Len(t, result.PerRelationStats, 2)
	assert.Equal(t, types.RelationStats{RelationID: "alpha", Name: "Neighbor alpha", ItemsProcessed: 2, ItemsLiked: 2}, result.PerRelationStats[0])
	assert.Equal(t, "bravo", result.PerRelationStats[1].RelationID)

	// Nothing from the third relation was touched
	for _, nav := range fs.d.Navigations() {
		assert.NotContains(t, nav, "charlie")
	}
	assert.Equal(t, 1, launches)
	assert.Equal(t, 1, fs.d.Closed())

	// One pause per processed item, within the configured range
	var pauses int
	for _, w := range fs.d.Waits() {
		if w >= time.Second && w <= 2*time.Second {
			pauses++
		}
	}
	assert.Equal(t, 4, pauses)
	assertConsistent(t, result)
}

func TestRunMixedOutcomes(t *testing.T) {
	fs := newFakeSite(t, []string{"alpha"}, map[string][]post{
		"alpha": {
			{logNo: "223100000001", daysAgo: 0, comment: true},
			{logNo: "223100000002", daysAgo: 2, liked: true, comment: true},
			{logNo: "223100000003", daysAgo: 3, noLike: true},
			{logNo: "223100000004", daysAgo: -1},
			{logNo: "223100000005", daysAgo: 1},
		},
	})
	launches := 0
	rc := runConfig()
	rc.CommentEnabled = true

	result, err := newRunner(fs, &launches).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, types.Totals{
		Processed:    4,
		Liked:        2,
		AlreadyLiked: 1,
		Failed:       1,
		Commented:    1,
		Skipped:      1,
	}, result.Totals)

	byURL := make(map[string]types.EngagementOutcome)
	for _, o := range result.Outcomes {
		byURL[o.Item.URL] = o
	}
	first := byURL[site.PostURL("alpha", "223100000001")]
	assert.True(t, first.Commented)
	assert.Equal(t, "잘 보고 갑니다", first.CommentText)
	require.NotNil(t, first.Item.PublishedAt)

	// Already liked items are neither clicked nor commented
	second := byURL[site.PostURL("alpha", "223100000002")]
	assert.Equal(t, types.ReasonAlreadyLiked, second.Reason)
	assert.False(t, second.Commented)
	assert.NotContains(t, fs.d.Clicks(), "comment:"+site.PostURL("alpha", "223100000002"))

	third := byURL[site.PostURL("alpha", "223100000003")]
	assert.True(t, third.Failed)
	assert.Equal(t, types.ReasonLikeControlNotFound, third.Reason)

	// Liked without a comment widget: liked, comment failure recorded
	fifth := byURL[site.PostURL("alpha", "223100000005")]
	assert.True(t, fifth.Liked)
	assert.False(t, fifth.Commented)
	assert.Equal(t, types.ReasonCommentButtonNotFound, fifth.Reason)

	assert.Len(t, result.Errors, 3, "undatable item, like failure, comment failure")
	assertConsistent(t, result)
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	fs := newFakeSite(t, []string{"alpha"}, map[string][]post{
		"alpha": {{logNo: "223100000001", daysAgo: 1}},
	})
	launches := 0
	r := newRunner(fs, &launches)

	first, err := r.Run(context.Background(), runConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Totals.Liked)

	// The like control kept its pressed state from the first run
	second, err := r.Run(context.Background(), runConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Totals.Liked)
	assert.Equal(t, 1, second.Totals.AlreadyLiked)
	assert.Equal(t, "true", fs.likes[site.PostURL("alpha", "223100000001")].Pressed)
}

func TestRunDeduplicatesItemsAcrossRelations(t *testing.T) {
	fs := newFakeSite(t, []string{"alpha", "bravo"}, map[string][]post{
		"alpha": {{logNo: "223100000001", daysAgo: 1}},
	})
	// bravo's listing links alpha's post
	fs.d.Page(site.ListingURL(site.BlogURL("bravo"))).Return("discovery.anchors", []discovery.Anchor{
		{Href: site.PostURL("alpha", "223100000001")},
	})
	launches := 0
	cfg := fastSettings()
	cfg.List.Owner = func(string) (string, bool) { return "", false }

	result, err := newRunner(fs, &launches, WithSettings(cfg)).Run(context.Background(), runConfig())
	require.NoError(t, err)
	assert.Len(t, result.Outcomes, 1)
}

func TestRunInvalidConfigLaunchesNothing(t *testing.T) {
	fs := newFakeSite(t, nil, nil)
	launches := 0
	rc := runConfig()
	rc.Secret = ""

	result, err := newRunner(fs, &launches).Run(context.Background(), rc)
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Nil(t, result)
	assert.Zero(t, launches)
}

func TestRunLoginFailureTearsDown(t *testing.T) {
	fs := newFakeSite(t, []string{"alpha"}, nil)
	// Submit never leaves the login host
	fs.d.Page(site.LoginURL).Element("login").OnClick = nil
	launches := 0

	result, err := newRunner(fs, &launches).Run(context.Background(), runConfig())
	require.ErrorIs(t, err, auth.ErrAuthTimeout)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, 1, fs.d.Closed())
	assert.NotEmpty(t, result.Errors)
	assert.False(t, result.CompletedAt.IsZero())
	for _, e := range result.Errors {
		assert.NotContains(t, e, "s3cret")
	}
}

func TestRunNoRelationsIsFatal(t *testing.T) {
	fs := newFakeSite(t, nil, nil)
	launches := 0

	result, err := newRunner(fs, &launches).Run(context.Background(), runConfig())
	require.ErrorIs(t, err, relations.ErrNoRelations)
	assert.False(t, result.Success)
	assert.Equal(t, 1, fs.d.Closed())
}

func TestRunLaunchFailure(t *testing.T) {
	launches := 0
	r := New(func(context.Context) (browser.Driver, error) {
		launches++
		return nil, errors.New("chrome not found")
	}, nil, nil, WithSettings(fastSettings()))

	result, err := r.Run(context.Background(), runConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser launch failed")
	assert.False(t, result.Success)
	assert.Equal(t, 1, launches)
}

func TestRunTimeout(t *testing.T) {
	fs := newFakeSite(t, []string{"alpha"}, nil)
	launches := 0
	rc := runConfig()
	rc.Timeout = time.Nanosecond

	result, err := newRunner(fs, &launches).Run(context.Background(), rc)
	require.ErrorIs(t, err, ErrRunTimeout)
	assert.False(t, result.Success)
	assert.Equal(t, 1, fs.d.Closed())
}

func TestRunCommentsNeedGenerator(t *testing.T) {
	fs := newFakeSite(t, nil, nil)
	launches := 0
	r := New(fs.launcher(&launches), nil, nil)
	rc := runConfig()
	rc.CommentEnabled = true

	_, err := r.Run(context.Background(), rc)
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Zero(t, launches)
}

func TestPauseStaysInRange(t *testing.T) {
	d := browsertest.New()
	r := New(nil, nil, nil, WithSeed(42))
	rc := runConfig()
	for i := 0; i < 50; i++ {
		require.NoError(t, r.pause(context.Background(), d, rc))
	}
	for _, w := range d.Waits() {
		assert.GreaterOrEqual(t, w, rc.ItemDelayMin)
		assert.LessOrEqual(t, w, rc.ItemDelayMax)
	}
}

func assertConsistent(t *testing.T, r *types.RunResult) {
	t.Helper()
	assert.Equal(t, r.Totals.Processed, r.Totals.Liked+r.Totals.AlreadyLiked+r.Totals.Failed)
	assert.Len(t, r.Outcomes, r.Totals.Processed)
	seen := make(map[string]bool)
	for _, o := range r.Outcomes {
		assert.False(t, seen[o.Item.URL], fmt.Sprintf("duplicate outcome for %s", o.Item.URL))
		seen[o.Item.URL] = true
	}
	var fromStats int
	for _, s := range r.PerRelationStats {
		fromStats += s.ItemsProcessed
	}
	assert.Equal(t, r.Totals.Processed, fromStats)
}
