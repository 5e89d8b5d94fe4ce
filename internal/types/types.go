package types

import (
	"fmt"
	"strings"
	"time"
)

// Credential is the account holder's login pair. It lives only in memory for
// the duration of a run and must be cleared on every exit path.
type Credential struct {
	AccountID string
	Secret    string
}

// Clear wipes both fields.
func (c *Credential) Clear() {
	if c == nil {
		return
	}
	c.AccountID = ""
	c.Secret = ""
}

// Empty reports whether the credential has already been cleared.
func (c *Credential) Empty() bool {
	return c == nil || (c.AccountID == "" && c.Secret == "")
}

// String never includes the secret and masks most of the account id.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{account: %s}", MaskAccount(c.AccountID))
}

// GoString keeps %#v from printing the secret.
func (c Credential) GoString() string {
	return c.String()
}

// MaskAccount keeps the first two characters of an account id.
func MaskAccount(id string) string {
	if id == "" {
		return "<none>"
	}
	if len(id) <= 2 {
		return strings.Repeat("*", len(id))
	}
	return id[:2] + strings.Repeat("*", len(id)-2)
}

// SessionState tracks login progress. Transitions only move forward; Failed is terminal.
type SessionState int

const (
	SessionNotStarted SessionState = iota
	SessionSubmitted
	SessionAwaitingSecondFactor
	SessionAuthenticated
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionNotStarted:
		return "not_started"
	case SessionSubmitted:
		return "submitted"
	case SessionAwaitingSecondFactor:
		return "awaiting_second_factor"
	case SessionAuthenticated:
		return "authenticated"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RelationRecord is one account the session holder is connected to
type RelationRecord struct {
	DisplayName string `json:"display_name"`
	ProfileURL  string `json:"profile_url"`
	RelationID  string `json:"relation_id"`
}

// LikeState is the observed state of an item's like control
type LikeState int

const (
	LikeUnknown LikeState = iota
	LikeNotLiked
	LikeLiked
)

func (s LikeState) String() string {
	switch s {
	case LikeNotLiked:
		return "not_liked"
	case LikeLiked:
		return "liked"
	default:
		return "unknown"
	}
}

// ContentItem is a single post belonging to a relation
type ContentItem struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	LikeState   LikeState  `json:"like_state"`
}

// Reason tags why an item ended the way it did. Empty means clean success.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonAlreadyLiked          Reason = "already liked"
	ReasonNavigationFailed      Reason = "navigation_failed"
	ReasonLikeControlNotFound   Reason = "like_control_not_found"
	ReasonLikeClickFailed       Reason = "like_click_failed"
	ReasonCommentButtonNotFound Reason = "comment_button_not_found"
	ReasonCommentEditorTimeout  Reason = "comment_editor_timeout"
	ReasonCommentSurfaceMissing Reason = "comment_surface_not_found"
	ReasonCommentSubmitNotFound Reason = "comment_submit_not_found"
	ReasonCommentUnverified     Reason = "comment_unverified"
	ReasonGenerationFailed      Reason = "generation_failed"
)

// EngagementOutcome is the immutable record of one processed item.
// Relation holds the relation id.
type EngagementOutcome struct {
	Relation    string      `json:"relation"`
	Item        ContentItem `json:"item"`
	Liked       bool        `json:"liked"`
	Commented   bool        `json:"commented"`
	CommentText string      `json:"comment_text,omitempty"`
	Reason      Reason      `json:"reason,omitempty"`
	Failed      bool        `json:"failed"`
}

// Totals aggregates a run. Processed == Liked + AlreadyLiked + Failed.
type Totals struct {
	Processed    int `json:"total_processed"`
	Liked        int `json:"total_liked"`
	AlreadyLiked int `json:"total_already_liked"`
	Failed       int `json:"total_failed"`
	Commented    int `json:"total_commented"`
	Skipped      int `json:"total_skipped"`
}

// RelationStats is the per-relation slice of a run
type RelationStats struct {
	RelationID     string `json:"relation_id"`
	Name           string `json:"name"`
	ItemsProcessed int    `json:"items_processed"`
	ItemsLiked     int    `json:"items_liked"`
}

// RunResult is returned to the caller once per run
type RunResult struct {
	RunID            string              `json:"run_id"`
	Success          bool                `json:"success"`
	StartedAt        time.Time           `json:"started_at"`
	CompletedAt      time.Time           `json:"completed_at"`
	Totals           Totals              `json:"totals"`
	PerRelationStats []RelationStats     `json:"per_relation_stats"`
	Outcomes         []EngagementOutcome `json:"outcomes"`
	Errors           []string            `json:"errors"`
}

// Reconcile recomputes every derived total from the outcomes so the invariant
// Processed == Liked + AlreadyLiked + Failed holds regardless of how the
// counters were bumped during the run. Skipped is not derivable and is kept.
func (r *RunResult) Reconcile() {
	t := Totals{Skipped: r.Totals.Skipped}
	perRelation := make(map[string]*RelationStats, len(r.PerRelationStats))
	for i := range r.PerRelationStats {
		s := &r.PerRelationStats[i]
		s.ItemsProcessed = 0
		s.ItemsLiked = 0
		perRelation[s.RelationID] = s
	}

	for _, o := range r.Outcomes {
		t.Processed++
		switch {
		case o.Failed:
			t.Failed++
		case o.Liked:
			t.Liked++
		default:
			t.AlreadyLiked++
		}
		if o.Commented {
			t.Commented++
		}
		if s, ok := perRelation[o.Relation]; ok {
			s.ItemsProcessed++
			if o.Liked {
				s.ItemsLiked++
			}
		}
	}

	r.Totals = t
}

// Duration is how long the run took
func (r *RunResult) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
