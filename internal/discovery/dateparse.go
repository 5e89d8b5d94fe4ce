package discovery

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	absoluteDate = regexp.MustCompile(`(\d{4})\s*\.\s*(\d{1,2})\s*\.\s*(\d{1,2})\s*\.(?:\s*(\d{1,2}):(\d{2}))?`)

	// Relative forms must be the whole string; a word like 오늘 inside prose
	// is not a date.
	justNow   = regexp.MustCompile(`^(?:방금(?:\s*전)?|just now|today|오늘)$`)
	minutes   = regexp.MustCompile(`^(\d+)\s*(?:분|minutes?|mins?)\s*(?:전|ago)$`)
	hours     = regexp.MustCompile(`^(\d+)\s*(?:시간|hours?|hrs?)\s*(?:전|ago)$`)
	days      = regexp.MustCompile(`^(\d+)\s*(?:일|days?)\s*(?:전|ago)$`)
	yesterday = regexp.MustCompile(`^(?:어제|yesterday)(?:\s+(\d{1,2}):(\d{2}))?$`)
)

// ParseDateText interprets a publish-date label relative to now.
// It understands absolute "YYYY. M. D." dates (with an optional "HH:MM"),
// and, when they make up the whole label, the words for today and
// yesterday and "N minutes/hours/days ago" in Korean or English. Text is
// NFKC-normalized first so full-width digits parse.
func ParseDateText(text string, now time.Time) (time.Time, bool) {
	s := normalize(text)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseAbsolute(s, now.Location()); ok {
		return t, true
	}

	if m := minutes.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Minute), true
	}
	if m := hours.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Hour), true
	}
	if m := days.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -n), true
	}
	if m := yesterday.FindStringSubmatch(s); m != nil {
		prev := now.AddDate(0, 0, -1)
		if m[1] == "" {
			return prev, true
		}
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if hh > 23 || mm > 59 {
			return time.Time{}, false
		}
		y, mo, d := prev.Date()
		return time.Date(y, mo, d, hh, mm, 0, 0, now.Location()), true
	}
	if justNow.MatchString(s) {
		return now, true
	}
	return time.Time{}, false
}

// ParseAbsoluteDate finds an absolute "YYYY. M. D." date anywhere in text.
// Relative words are ignored, so it is safe on free-form page text.
func ParseAbsoluteDate(text string, loc *time.Location) (time.Time, bool) {
	s := normalize(text)
	if s == "" {
		return time.Time{}, false
	}
	return parseAbsolute(s, loc)
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(text)))
}

func parseAbsolute(s string, loc *time.Location) (time.Time, bool) {
	m := absoluteDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	hh, mm := 0, 0
	if m[4] != "" {
		hh, _ = strconv.Atoi(m[4])
		mm, _ = strconv.Atoi(m[5])
	}
	t := time.Date(y, time.Month(mo), d, hh, mm, 0, 0, loc)
	// Reject rollovers like 2024.2.30.
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d || hh > 23 || mm > 59 {
		return time.Time{}, false
	}
	return t, true
}

// IsEligible reports whether published falls on or after the calendar day
// daysLimit days before now, in now's location.
func IsEligible(published, now time.Time, daysLimit int) bool {
	cutoff := startOfDay(now).AddDate(0, 0, -daysLimit)
	return !startOfDay(published.In(now.Location())).Before(cutoff)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
