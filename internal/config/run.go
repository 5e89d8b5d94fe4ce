package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/like4me/internal/types"
)

// ErrInvalid is returned when a run configuration cannot be used
var ErrInvalid = errors.New("invalid run configuration")

const (
	MaxRelationsCap   = 50
	MaxItemsCap       = 30
	DaysLimitCap      = 30
	MinIntervalFloor  = 30
	DefaultRunTimeout = 30 * time.Minute
)

// RunConfig is everything one engine run needs
type RunConfig struct {
	AccountID string
	Secret    string

	DaysLimit    int
	MaxRelations int
	// MaxItems caps items processed per relation
	MaxItems                 int
	MinIntervalMinutes       int
	KeepGoingAfterCompletion bool
	CommentEnabled           bool

	Timeout      time.Duration
	ItemDelayMin time.Duration
	ItemDelayMax time.Duration
}

// RunConfig builds the engine's per-run configuration from the file config
func (c *Config) RunConfig() RunConfig {
	return RunConfig{
		AccountID:                c.Account.ID,
		Secret:                   c.Account.Secret,
		DaysLimit:                c.Run.DaysLimit,
		MaxRelations:             c.Run.MaxRelations,
		MaxItems:                 c.Run.MaxItemsPerRelation,
		MinIntervalMinutes:       c.Run.MinIntervalMinutes,
		KeepGoingAfterCompletion: c.Run.KeepGoing,
		CommentEnabled:           c.Comment.Enabled,
		Timeout:                  time.Duration(c.Run.RunTimeoutMinutes) * time.Minute,
		ItemDelayMin:             time.Duration(c.Run.ItemDelayMinMs) * time.Millisecond,
		ItemDelayMax:             time.Duration(c.Run.ItemDelayMaxMs) * time.Millisecond,
	}
}

// Validate rejects unusable values and clamps the rest into range.
// Nothing is launched for a configuration that fails here.
func (rc *RunConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(rc.AccountID) == "" {
		problems = append(problems, "account id is required")
	}
	if rc.Secret == "" {
		problems = append(problems, "secret is required (set "+EnvSecret+")")
	}
	if rc.DaysLimit < 1 {
		problems = append(problems, fmt.Sprintf("days limit must be at least 1, got %d", rc.DaysLimit))
	}
	if rc.MaxRelations < 1 {
		problems = append(problems, fmt.Sprintf("max relations must be at least 1, got %d", rc.MaxRelations))
	}
	if rc.MaxItems < 1 {
		problems = append(problems, fmt.Sprintf("max items must be at least 1, got %d", rc.MaxItems))
	}
	if rc.ItemDelayMin < 0 || rc.ItemDelayMax < rc.ItemDelayMin {
		problems = append(problems, fmt.Sprintf("item delay range %s..%s is invalid", rc.ItemDelayMin, rc.ItemDelayMax))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}

	rc.DaysLimit = min(rc.DaysLimit, DaysLimitCap)
	rc.MaxRelations = min(rc.MaxRelations, MaxRelationsCap)
	rc.MaxItems = min(rc.MaxItems, MaxItemsCap)
	rc.MinIntervalMinutes = max(rc.MinIntervalMinutes, MinIntervalFloor)
	if rc.Timeout <= 0 {
		rc.Timeout = DefaultRunTimeout
	}
	return nil
}

// Credential moves the account pair out of the config into a credential the
// caller must clear. The config no longer holds the secret afterwards.
func (rc *RunConfig) Credential() *types.Credential {
	cred := &types.Credential{AccountID: rc.AccountID, Secret: rc.Secret}
	rc.Secret = ""
	return cred
}

// String never includes the secret
func (rc RunConfig) String() string {
	return fmt.Sprintf("RunConfig{account: %s, days: %d, relations: %d, items: %d, comments: %t}",
		types.MaskAccount(rc.AccountID), rc.DaysLimit, rc.MaxRelations, rc.MaxItems, rc.CommentEnabled)
}

// GoString keeps %#v from printing the secret
func (rc RunConfig) GoString() string {
	return rc.String()
}
