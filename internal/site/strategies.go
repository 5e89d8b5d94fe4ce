package site

import (
	"github.com/ibeckermayer/like4me/internal/selector"
)

// Login form fields, in the top document

var LoginIDField = []selector.Strategy{
	{Name: "login-id", Kind: selector.KindID, Value: "id"},
	{Name: "login-id-name", Kind: selector.KindCSS, Selector: `input[name="id"]`},
	{Name: "login-id-placeholder", Kind: selector.KindAttrContains, Selector: "input", Attr: "placeholder", Value: "아이디"},
}

var LoginSecretField = []selector.Strategy{
	{Name: "login-pw", Kind: selector.KindID, Value: "pw"},
	{Name: "login-pw-name", Kind: selector.KindCSS, Selector: `input[name="pw"]`},
	{Name: "login-pw-type", Kind: selector.KindCSS, Selector: `input[type="password"]`},
}

var LoginSubmit = []selector.Strategy{
	{Name: "login-submit", Kind: selector.KindID, Value: "log.login"},
	{Name: "login-submit-type", Kind: selector.KindCSS, Selector: `button[type="submit"]`},
	{Name: "login-submit-label", Kind: selector.KindText, Selector: "button", Value: "로그인"},
}

// LoggedInMarkers are present only when a session is active
var LoggedInMarkers = []selector.Strategy{
	{Name: "session-namebox", Kind: selector.KindCSS, Selector: "#gnb_my_namebox"},
	{Name: "session-my-view", Kind: selector.KindAttrContains, Selector: "div", Attr: "class", Value: "MyView-module__my_info"},
	{Name: "session-logout", Kind: selector.KindText, Selector: "a, button", Value: "로그아웃"},
}

// ContentRegion is the post body, scrolled into view before looking for controls
func ContentRegion(postID string) []selector.Strategy {
	var out []selector.Strategy
	if postID != "" {
		out = append(out, selector.Strategy{Name: "content-post-view", Kind: selector.KindID, Value: "post-view" + postID})
	}
	out = append(out,
		selector.Strategy{Name: "content-smart-editor", Kind: selector.KindCSS, Selector: ".se-main-container"},
		selector.Strategy{Name: "content-legacy-view", Kind: selector.KindCSS, Selector: "#postViewArea"},
	)
	return selector.InFrames([]string{MainFrame}, out...)
}

// LikeControl locates the like button for a post. The post-specific container
// comes first, then the generic sympathy region, then the label.
func LikeControl(postID string) []selector.Strategy {
	var out []selector.Strategy
	if postID != "" {
		out = append(out, selector.Strategy{
			Name:     "like-post-container",
			Kind:     selector.KindCSS,
			Selector: "#area_sympathy" + postID + " a.u_likeit_list_btn",
		})
	}
	out = append(out,
		selector.Strategy{Name: "like-region", Kind: selector.KindCSS, Scope: ".area_sympathy, .wrap_postcomment", Selector: "a.u_likeit_list_btn"},
		selector.Strategy{Name: "like-label", Kind: selector.KindTextContains, Selector: "a, button", Value: "공감", Exclude: CommentContainer},
	)
	return selector.InFrames([]string{MainFrame}, out...)
}

// CommentOpen locates the button that arms the comment widget
func CommentOpen(postID string) []selector.Strategy {
	var out []selector.Strategy
	if postID != "" {
		out = append(out, selector.Strategy{Name: "comment-post-button", Kind: selector.KindID, Value: "Comi" + postID})
	}
	out = append(out,
		selector.Strategy{Name: "comment-region", Kind: selector.KindCSS, Scope: ".wrap_postcomment", Selector: "a.btn_comment"},
		selector.Strategy{Name: "comment-label", Kind: selector.KindTextContains, Selector: "a.btn_comment, a, button", Value: "댓글", Exclude: CommentContainer},
	)
	return selector.InFrames([]string{MainFrame}, out...)
}

// CommentSurface locates the editable comment field
var CommentSurface = selector.InFrames([]string{MainFrame},
	selector.Strategy{Name: "surface-id-pattern", Kind: selector.KindAttrContains, Selector: "[contenteditable]", Attr: "id", Value: "write_textarea"},
	selector.Strategy{Name: "surface-write-area", Kind: selector.KindCSS, Scope: CommentWriteArea, Selector: `[contenteditable="true"]`},
	selector.Strategy{Name: "surface-container", Kind: selector.KindCSS, Selector: `[contenteditable="true"]`, Within: CommentContainer},
)

// CommentSubmit locates the submit control, never the sticker picker
var CommentSubmit = selector.InFrames([]string{MainFrame},
	selector.Strategy{Name: "submit-label", Kind: selector.KindText, Selector: "button, a", Value: "등록", Within: CommentContainer, Exclude: StickerControl},
	selector.Strategy{Name: "submit-upload-area", Kind: selector.KindCSS, Scope: CommentUpload, Selector: "button", Exclude: StickerControl, Last: true},
	selector.Strategy{Name: "submit-class-pattern", Kind: selector.KindAttrContains, Selector: "button, a", Attr: "class", Value: "btn_upload", Exclude: StickerControl},
)
