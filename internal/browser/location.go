package browser

import "context"

// PageLocation is where the top document currently is
type PageLocation struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// LocationScript reads the top document's URL and title.
var LocationScript = NewScript("browser.location", `function() {
	return { href: String(window.location.href), title: String(document.title || '') };
}`)

// Location returns the current location of the top document
func Location(ctx context.Context, d Driver) (PageLocation, error) {
	var loc PageLocation
	err := d.Evaluate(ctx, LocationScript, nil, &loc)
	return loc, err
}
