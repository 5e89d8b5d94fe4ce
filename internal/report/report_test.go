package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/like4me/internal/types"
)

func sampleResult() *types.RunResult {
	start := time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)
	published := start.Add(-24 * time.Hour)
	r := &types.RunResult{
		RunID:       "run-1",
		Success:     true,
		StartedAt:   start,
		CompletedAt: start.Add(95 * time.Second),
		PerRelationStats: []types.RelationStats{
			{RelationID: "alpha", Name: "Alpha"},
		},
		Outcomes: []types.EngagementOutcome{
			{Relation: "alpha", Item: types.ContentItem{Title: "봄 <산책>", URL: "https://blog.naver.com/alpha/223100000001", PublishedAt: &published}, Liked: true, Commented: true, CommentText: "잘 보고 갑니다"},
			{Relation: "alpha", Item: types.ContentItem{URL: "https://blog.naver.com/alpha/223100000002"}, Reason: types.ReasonAlreadyLiked},
			{Relation: "alpha", Item: types.ContentItem{URL: "https://blog.naver.com/alpha/223100000003"}, Failed: true, Reason: types.ReasonLikeControlNotFound},
		},
		Totals: types.Totals{Skipped: 2},
		Errors: []string{"https://blog.naver.com/alpha/223100000003: like_control_not_found"},
	}
	r.Reconcile()
	return r
}

func TestBuild(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	rep, err := Build(sampleResult(), seoul)
	require.NoError(t, err)

	assert.Equal(t, "like4me - Mar 15: 1 liked, 1 commented", rep.Subject)
	assert.Equal(t, "run-1", rep.RunID)

	assert.Contains(t, rep.PlainBody, "processed 3: liked 1, already liked 1, failed 1")
	assert.Contains(t, rep.PlainBody, "commented 1, skipped 2")
	assert.Contains(t, rep.PlainBody, "Alpha (alpha): 3 processed, 1 liked")
	assert.Contains(t, rep.PlainBody, "[liked, commented] 봄 <산책>")
	assert.Contains(t, rep.PlainBody, "[already liked]")
	assert.Contains(t, rep.PlainBody, "[failed, (like_control_not_found)]")
	assert.Contains(t, rep.PlainBody, "took 1m35s")

	assert.Contains(t, rep.HTMLBody, "봄 &lt;산책&gt;")
	assert.Contains(t, rep.HTMLBody, "2026-03-14")
	assert.NotContains(t, rep.HTMLBody, "status-failed\">")
}

func TestBuildFailedRun(t *testing.T) {
	r := sampleResult()
	r.Success = false
	r.Errors = append(r.Errors, "login failed: authentication timed out")

	rep, err := Build(r, nil)
	require.NoError(t, err)
	assert.Equal(t, "like4me run failed - Mar 15", rep.Subject)
	assert.Contains(t, rep.PlainBody, "(failed)")
	assert.Contains(t, rep.PlainBody, "  - login failed: authentication timed out")
	assert.Contains(t, rep.HTMLBody, `status-failed">failed`)
}

func TestBuildNil(t *testing.T) {
	_, err := Build(nil, nil)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "가나다라...", truncate("가나다라마바사아자차", 7))
}
