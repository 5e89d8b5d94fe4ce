// Package site holds everything specific to the blogging platform's markup:
// URLs, frame names, CSS selectors and ranked locator strategies.
package site

// Naver Blog DOM selectors
// These are isolated here because the platform changes its DOM frequently
// Update these when a step starts failing to locate elements

const (
	// Login form
	LoginURL  = "https://nid.naver.com/nidlogin.login?mode=form&url=https%3A%2F%2Fwww.naver.com"
	LoginHost = "nid.naver.com"

	// Frames. Posts render inside mainFrame; the admin pages inside papermain.
	MainFrame  = "mainFrame"
	AdminFrame = "papermain"

	// Relation management table
	RelationTable = `table.tbl_buddy, #buddyListManageForm table`
	RelationRow   = `tbody tr`
	RelationCell  = `td.buddy`
	RelationLink  = `a`

	// Publish date sources, most specific first
	PublishDate   = `.se_publishDate`
	ProfileRegion = `.blog_author, .profile_area, #profile-area`

	// Post text used as generator input
	PostTitle = `.se-title-text, .pcol1, .htitle`
	PostBody  = `.se-main-container, #postViewArea, #post-view`

	// Comment widget
	CommentContainer = `[id^="naverComment"]`
	CommentWriteArea = `.u_cbox_write_area`
	CommentUpload    = `.u_cbox_upload`
	StickerControl   = `[class*="sticker"]`

	// Like control state
	LikeOffClass = "off"
)

// PublishDateAlternates are tried when PublishDate is absent
var PublishDateAlternates = []string{
	`span.se_publishDate.pcol2`,
	`.blog2_container .se_publishDate`,
	`p._postAddDate`,
	`.blog_date`,
	`span.date`,
}

// DateTextPattern is a JavaScript regex source matching text that looks like
// a publish date. It pre-filters text nodes before parsing in Go.
const DateTextPattern = `\d{4}\.\s*\d{1,2}\.\s*\d{1,2}\.`

// Overlays covers advertising and promotional layers that intercept clicks
var Overlays = []string{
	`[id^="ad_"]`,
	`.ad_area`,
	`.spot_ad`,
	`[class*="float_banner"]`,
	`.layer_popup`,
	`iframe[src*="adcr"]`,
}
