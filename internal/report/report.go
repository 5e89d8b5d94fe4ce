// Package report renders a run result as an email-ready summary
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ibeckermayer/like4me/internal/types"
)

// Report is a rendered run summary ready for printing or sending
type Report struct {
	Subject   string
	HTMLBody  string
	PlainBody string
	RunID     string
	CreatedAt time.Time
}

// Data is the template data structure
type Data struct {
	Title     string
	Date      string
	Status    string
	Success   bool
	Duration  string
	Totals    types.Totals
	Relations []types.RelationStats
	Items     []ItemData
	Errors    []string
}

// ItemData is one processed item in the report
type ItemData struct {
	Relation  string
	Title     string
	URL       string
	Result    string
	Comment   string
	Failed    bool
	Published string
}

var htmlTemplate = template.Must(template.New("report").Parse(defaultTemplate))

// Build renders r. Times are shown in loc; nil means UTC.
func Build(r *types.RunResult, loc *time.Location) (*Report, error) {
	if r == nil {
		return nil, fmt.Errorf("no run result to report")
	}
	if loc == nil {
		loc = time.UTC
	}

	data := newData(r, loc)
	var htmlBuf bytes.Buffer
	if err := htmlTemplate.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Report{
		Subject:   subject(r, loc),
		HTMLBody:  htmlBuf.String(),
		PlainBody: PlainText(data),
		RunID:     r.RunID,
		CreatedAt: r.CompletedAt,
	}, nil
}

func newData(r *types.RunResult, loc *time.Location) Data {
	data := Data{
		Title:     "like4me run report",
		Date:      r.StartedAt.In(loc).Format("Monday, January 2 15:04"),
		Status:    "completed",
		Success:   r.Success,
		Duration:  r.Duration().Round(time.Second).String(),
		Totals:    r.Totals,
		Relations: r.PerRelationStats,
		Errors:    r.Errors,
	}
	if !r.Success {
		data.Status = "failed"
	}

	for _, o := range r.Outcomes {
		item := ItemData{
			Relation: o.Relation,
			Title:    truncate(o.Item.Title, 80),
			URL:      o.Item.URL,
			Result:   outcomeLabel(o),
			Comment:  o.CommentText,
			Failed:   o.Failed,
		}
		if o.Item.PublishedAt != nil {
			item.Published = o.Item.PublishedAt.In(loc).Format(time.DateOnly)
		}
		data.Items = append(data.Items, item)
	}
	return data
}

func subject(r *types.RunResult, loc *time.Location) string {
	date := r.StartedAt.In(loc).Format("Jan 2")
	if !r.Success {
		return fmt.Sprintf("like4me run failed - %s", date)
	}
	return fmt.Sprintf("like4me - %s: %d liked, %d commented", date, r.Totals.Liked, r.Totals.Commented)
}

func outcomeLabel(o types.EngagementOutcome) string {
	var parts []string
	switch {
	case o.Failed:
		parts = append(parts, "failed")
	case o.Liked:
		parts = append(parts, "liked")
	default:
		parts = append(parts, "already liked")
	}
	if o.Commented {
		parts = append(parts, "commented")
	}
	if o.Reason != types.ReasonNone && o.Reason != types.ReasonAlreadyLiked {
		parts = append(parts, "("+string(o.Reason)+")")
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes-3]) + "..."
}

// PlainText renders the summary used on the terminal and as the text part
// of the email
func PlainText(data Data) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s (%s)\n%s, took %s\n\n", data.Title, data.Status, data.Date, data.Duration)

	t := data.Totals
	fmt.Fprintf(&buf, "processed %d: liked %d, already liked %d, failed %d\n", t.Processed, t.Liked, t.AlreadyLiked, t.Failed)
	fmt.Fprintf(&buf, "commented %d, skipped %d\n", t.Commented, t.Skipped)

	if len(data.Relations) > 0 {
		buf.WriteString("\nRelations:\n")
		for _, rel := range data.Relations {
			fmt.Fprintf(&buf, "  %s (%s): %d processed, %d liked\n", rel.Name, rel.RelationID, rel.ItemsProcessed, rel.ItemsLiked)
		}
	}

	if len(data.Items) > 0 {
		buf.WriteString("\nItems:\n")
		for i, item := range data.Items {
			fmt.Fprintf(&buf, "%d. [%s] %s\n   %s\n", i+1, item.Result, item.Title, item.URL)
			if item.Comment != "" {
				fmt.Fprintf(&buf, "   comment: %s\n", item.Comment)
			}
		}
	}

	if len(data.Errors) > 0 {
		buf.WriteString("\nErrors:\n")
		for _, e := range data.Errors {
			fmt.Fprintf(&buf, "  - %s\n", e)
		}
	}
	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #03c75a; margin-bottom: 5px; }
        .date { color: #666; margin-bottom: 20px; }
        .status-failed { color: #d93025; font-weight: bold; }
        .totals td { padding: 2px 12px 2px 0; }
        .item { border-bottom: 1px solid #eee; padding: 10px 0; }
        .item:last-child { border-bottom: none; }
        .result { font-size: 13px; color: #666; }
        .failed { color: #d93025; }
        .comment { font-style: italic; margin: 4px 0; }
        .link { color: #03c75a; text-decoration: none; }
        .errors { color: #d93025; font-size: 13px; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}} · {{.Duration}}{{if not .Success}} · <span class="status-failed">{{.Status}}</span>{{end}}</div>

        <table class="totals">
            <tr><td>Processed</td><td>{{.Totals.Processed}}</td></tr>
            <tr><td>Liked</td><td>{{.Totals.Liked}}</td></tr>
            <tr><td>Already liked</td><td>{{.Totals.AlreadyLiked}}</td></tr>
            <tr><td>Failed</td><td>{{.Totals.Failed}}</td></tr>
            <tr><td>Commented</td><td>{{.Totals.Commented}}</td></tr>
            <tr><td>Skipped</td><td>{{.Totals.Skipped}}</td></tr>
        </table>

        {{range .Items}}
        <div class="item">
            <a href="{{.URL}}" class="link">{{if .Title}}{{.Title}}{{else}}{{.URL}}{{end}}</a>
            <div class="result{{if .Failed}} failed{{end}}">{{.Relation}}{{if .Published}} · {{.Published}}{{end}} · {{.Result}}</div>
            {{if .Comment}}<div class="comment">{{.Comment}}</div>{{end}}
        </div>
        {{end}}

        {{if .Errors}}
        <div class="errors">
            {{range .Errors}}<div>{{.}}</div>{{end}}
        </div>
        {{end}}

        <div class="footer">
            {{len .Relations}} relations · Generated by like4me
        </div>
    </div>
</body>
</html>`
