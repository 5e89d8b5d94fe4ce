package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/like4me/internal/browser/browsertest"
	"github.com/ibeckermayer/like4me/internal/site"
)

func listConfig() ListConfig {
	cfg := DefaultListConfig()
	cfg.Settle = 0
	return cfg
}

func TestListRecentFiltersAndDeduplicates(t *testing.T) {
	d := browsertest.New()
	profile := site.BlogURL("friend")
	d.Page(site.ListingURL(profile)).Return("discovery.anchors", []Anchor{
		{Href: "https://blog.naver.com/friend/223000000001", Text: ""},
		{Href: "https://blog.naver.com/friend/223000000001", Text: " First post "},
		{Href: "https://blog.naver.com/PostView.naver?blogId=friend&logNo=223000000002", Text: "Second"},
		{Href: "https://m.blog.naver.com/friend/223000000002", Text: "Second again"},
		{Href: "https://blog.naver.com/stranger/223000000009", Text: "Someone else"},
		{Href: "https://blog.naver.com/friend", Text: "Profile"},
		{Href: "https://section.blog.naver.com/", Text: "Home"},
		{Href: "https://blog.naver.com/friend/223000000003", Text: "Third"},
	})

	items, err := NewLister(d, listConfig(), nil).ListRecent(context.Background(), profile)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "https://blog.naver.com/friend/223000000001", items[0].URL)
	assert.Equal(t, "First post", items[0].Title)
	assert.Equal(t, "https://blog.naver.com/friend/223000000002", items[1].URL)
	assert.Equal(t, "Second", items[1].Title)
	assert.Equal(t, "https://blog.naver.com/friend/223000000003", items[2].URL)
	for _, it := range items {
		assert.Nil(t, it.PublishedAt)
	}
}

func TestListRecentCapsItems(t *testing.T) {
	d := browsertest.New()
	profile := site.BlogURL("busy")
	var anchors []Anchor
	for i := 0; i < 45; i++ {
		anchors = append(anchors, Anchor{Href: fmt.Sprintf("https://blog.naver.com/busy/2230000%05d", i)})
	}
	d.Page(site.ListingURL(profile)).Return("discovery.anchors", anchors)

	items, err := NewLister(d, listConfig(), nil).ListRecent(context.Background(), profile)
	require.NoError(t, err)
	assert.Len(t, items, MaxListItems)
}

func TestListRecentNavigationFailure(t *testing.T) {
	d := browsertest.New()
	profile := site.BlogURL("gone")
	d.Page(site.ListingURL(profile)).NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	_, err := NewLister(d, listConfig(), nil).ListRecent(context.Background(), profile)
	assert.Error(t, err)
}
