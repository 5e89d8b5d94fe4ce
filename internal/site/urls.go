package site

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	blogHost       = "blog.naver.com"
	mobileBlogHost = "m.blog.naver.com"
)

var (
	blogIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	logNoPattern  = regexp.MustCompile(`^\d{6,}$`)

	// Relation links come in a few shapes; the query form wins when present.
	relationIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[?&]blogId=([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`blog\.naver\.com/([A-Za-z0-9_-]+)`),
	}

	// Paths on the blog host that are views, not blog ids
	reservedPaths = map[string]bool{
		"PostList.naver": true, "PostView.naver": true, "PostView.nhn": true,
		"PostList.nhn": true, "BuddyListManage.naver": true, "prologue": true,
		"PostList": true, "PostView": true,
	}
)

// RelationViewURL is the admin page listing an account's relations
func RelationViewURL(accountID string) string {
	return fmt.Sprintf("https://admin.blog.naver.com/BuddyListManage.naver?blogId=%s", url.QueryEscape(accountID))
}

// BlogURL is a relation's profile
func BlogURL(blogID string) string {
	return fmt.Sprintf("https://%s/%s", blogHost, blogID)
}

// ListingURL is the post list view for a profile URL. Unknown shapes are
// returned unchanged.
func ListingURL(profileURL string) string {
	id, ok := BlogIDFromURL(profileURL)
	if !ok {
		return profileURL
	}
	return fmt.Sprintf("https://%s/PostList.naver?blogId=%s&categoryNo=0&from=postList", blogHost, id)
}

// PostURL is the canonical URL of a post
func PostURL(blogID, logNo string) string {
	return fmt.Sprintf("https://%s/%s/%s", blogHost, blogID, logNo)
}

// RelationIDFromHref extracts a relation id from a link in the relation table
func RelationIDFromHref(href string) (string, bool) {
	for _, re := range relationIDPatterns {
		m := re.FindStringSubmatch(href)
		if m == nil || reservedPaths[m[1]] || strings.HasSuffix(m[1], ".naver") {
			continue
		}
		return m[1], true
	}
	return "", false
}

// BlogIDFromURL extracts the blog id from a profile, listing or post URL
func BlogIDFromURL(raw string) (string, bool) {
	if blogID, _, ok := ParsePostURL(raw); ok {
		return blogID, true
	}
	u, err := url.Parse(raw)
	if err != nil || !isBlogHost(u.Host) {
		return "", false
	}
	if id := u.Query().Get("blogId"); blogIDPattern.MatchString(id) {
		return id, true
	}
	segments := pathSegments(u.Path)
	if len(segments) >= 1 && !reservedPaths[segments[0]] && blogIDPattern.MatchString(segments[0]) {
		return segments[0], true
	}
	return "", false
}

// ParsePostURL recognizes the known post URL shapes:
//
//	https://blog.naver.com/{blogId}/{logNo}
//	https://m.blog.naver.com/{blogId}/{logNo}
//	https://blog.naver.com/PostView.naver?blogId={blogId}&logNo={logNo}
func ParsePostURL(raw string) (blogID, logNo string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !isBlogHost(u.Host) {
		return "", "", false
	}

	segments := pathSegments(u.Path)
	if len(segments) == 1 && (segments[0] == "PostView.naver" || segments[0] == "PostView.nhn") {
		q := u.Query()
		blogID, logNo = q.Get("blogId"), q.Get("logNo")
	} else if len(segments) == 2 {
		blogID, logNo = segments[0], segments[1]
	}

	if !blogIDPattern.MatchString(blogID) || !logNoPattern.MatchString(logNo) {
		return "", "", false
	}
	return blogID, logNo, true
}

// CanonicalPostURL rewrites any known post URL shape to PostURL.
func CanonicalPostURL(raw string) (string, bool) {
	blogID, logNo, ok := ParsePostURL(raw)
	if !ok {
		return "", false
	}
	return PostURL(blogID, logNo), true
}

// PostID returns the post number of a post URL, or "" when unknown
func PostID(raw string) string {
	_, logNo, _ := ParsePostURL(raw)
	return logNo
}

func isBlogHost(host string) bool {
	host = strings.ToLower(host)
	return host == blogHost || host == mobileBlogHost
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
