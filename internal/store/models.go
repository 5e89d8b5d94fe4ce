package store

import "time"

// RunSummary is one row of run history
type RunSummary struct {
	RunID        string    `json:"run_id"`
	Success      bool      `json:"success"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	Processed    int       `json:"processed"`
	Liked        int       `json:"liked"`
	AlreadyLiked int       `json:"already_liked"`
	Failed       int       `json:"failed"`
	Commented    int       `json:"commented"`
	Skipped      int       `json:"skipped"`
	Errors       []string  `json:"errors"`
}

// Duration is how long the run took
func (r RunSummary) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// OutcomeRecord is one stored engagement outcome
type OutcomeRecord struct {
	RunID       string     `json:"run_id"`
	RelationID  string     `json:"relation_id"`
	ItemURL     string     `json:"item_url"`
	ItemTitle   string     `json:"item_title"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Liked       bool       `json:"liked"`
	Commented   bool       `json:"commented"`
	CommentText string     `json:"comment_text,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Failed      bool       `json:"failed"`
}
