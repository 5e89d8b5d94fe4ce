// Package relations reads the session holder's relation list from the admin
// view, which renders its table inside a nested frame some time after load.
package relations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/like4me/internal/browser"
	"github.com/ibeckermayer/like4me/internal/logging"
	"github.com/ibeckermayer/like4me/internal/poll"
	"github.com/ibeckermayer/like4me/internal/site"
	"github.com/ibeckermayer/like4me/internal/types"
)

var (
	// ErrViewNotLoaded means the relation frame or table never appeared
	ErrViewNotLoaded = errors.New("relation view did not load")
	// ErrNoRelations means the table loaded but held no usable rows
	ErrNoRelations = errors.New("no relations found")
)

// Config describes where the relation table lives
type Config struct {
	ViewURL    func(accountID string) string
	ProfileURL func(relationID string) string
	RelationID func(href string) (string, bool)

	Frames []string
	Table  string
	Row    string
	Cell   string
	Link   string

	// Settle is the pause after navigation before the first poll
	Settle time.Duration
	// Rows bounds the wait for rows to render
	Rows poll.Policy
}

// DefaultConfig polls every 500ms for up to 15 seconds
func DefaultConfig() Config {
	return Config{
		ViewURL:    site.RelationViewURL,
		ProfileURL: site.BlogURL,
		RelationID: site.RelationIDFromHref,
		Frames:     []string{site.AdminFrame},
		Table:      site.RelationTable,
		Row:        site.RelationRow,
		Cell:       site.RelationCell,
		Link:       site.RelationLink,
		Settle:     time.Second,
		Rows:       poll.Policy{Interval: 500 * time.Millisecond, MaxAttempts: 30},
	}
}

// tableScript reads every row's relation link inside the framed table
var tableScript = browser.NewScript("relations.table", `function(args) {
	const doc = __frameDoc(args.frames);
	if (!doc) return { frameReady: false, tableReady: false, rows: [] };
	const table = doc.querySelector(args.table);
	if (!table) return { frameReady: true, tableReady: false, rows: [] };
	const rows = [];
	table.querySelectorAll(args.row).forEach(function(tr) {
		const cell = tr.querySelector(args.cell);
		if (!cell) return;
		const link = cell.querySelector(args.link);
		if (!link) return;
		rows.push({
			name: (link.textContent || '').replace(/\s+/g, ' ').trim(),
			href: link.href || link.getAttribute('href') || ''
		});
	});
	return { frameReady: true, tableReady: true, rows: rows };
}`)

type tableArgs struct {
	Frames []string `json:"frames"`
	Table  string   `json:"table"`
	Row    string   `json:"row"`
	Cell   string   `json:"cell"`
	Link   string   `json:"link"`
}

// Row is one raw table row
type Row struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

// TableState is what one poll of the relation view observed
type TableState struct {
	FrameReady bool  `json:"frameReady"`
	TableReady bool  `json:"tableReady"`
	Rows       []Row `json:"rows"`
}

// Enumerator lists relations
type Enumerator struct {
	driver browser.Driver
	cfg    Config
	logger logging.Logger
}

// NewEnumerator creates an enumerator
func NewEnumerator(driver browser.Driver, cfg Config, logger logging.Logger) *Enumerator {
	return &Enumerator{driver: driver, cfg: cfg, logger: logging.OrDiscard(logger)}
}

// List returns up to maxCount relations of accountID in table order,
// de-duplicated by relation id.
func (e *Enumerator) List(ctx context.Context, accountID string, maxCount int) ([]types.RelationRecord, error) {
	viewURL := e.cfg.ViewURL(accountID)
	if err := e.driver.Navigate(ctx, viewURL, browser.WaitLoad); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrViewNotLoaded, err)
	}
	if err := e.driver.Wait(ctx, e.cfg.Settle); err != nil {
		return nil, err
	}

	args := tableArgs{Frames: e.cfg.Frames, Table: e.cfg.Table, Row: e.cfg.Row, Cell: e.cfg.Cell, Link: e.cfg.Link}
	state, err := poll.Until(ctx, e.cfg.Rows, func(ctx context.Context, attempt int) (TableState, bool, error) {
		var s TableState
		if err := e.driver.Evaluate(ctx, tableScript, args, &s); err != nil {
			return s, false, err
		}
		e.logger.WithFields(logging.Fields{
			"attempt":     attempt,
			"frame_ready": s.FrameReady,
			"table_ready": s.TableReady,
			"rows":        len(s.Rows),
		}).Debug("Polled relation table")
		return s, s.TableReady && len(s.Rows) > 0, nil
	})

	if err != nil && !errors.Is(err, poll.ErrExhausted) {
		return nil, err
	}
	if err != nil {
		if state.TableReady {
			return nil, ErrNoRelations
		}
		return nil, fmt.Errorf("%w after %s: %v", ErrViewNotLoaded, e.cfg.Rows.Ceiling(), err)
	}

	records := e.records(state.Rows, maxCount)
	if len(records) == 0 {
		return nil, ErrNoRelations
	}

	e.logger.WithFields(logging.Fields{
		"found":    len(state.Rows),
		"returned": len(records),
	}).Info("Relations enumerated")
	return records, nil
}

func (e *Enumerator) records(rows []Row, maxCount int) []types.RelationRecord {
	seen := make(map[string]bool, len(rows))
	var out []types.RelationRecord
	for _, row := range rows {
		if maxCount > 0 && len(out) >= maxCount {
			break
		}
		id, ok := e.cfg.RelationID(row.Href)
		if !ok {
			e.logger.WithField("href", row.Href).Debug("Skipping row without relation id")
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		name := strings.TrimSpace(row.Name)
		if name == "" {
			name = id
		}
		out = append(out, types.RelationRecord{
			DisplayName: name,
			ProfileURL:  e.cfg.ProfileURL(id),
			RelationID:  id,
		})
	}
	return out
}
