package platforms

import (
	"context"
	"net/http"
	"regexp"
)

var instagramURLPattern = regexp.MustCompile(`^https?://(www\.)?instagram\.com/(reel|reels|p|tv)/\S+`)

// InstagramHandler covers reels and classic posts. Instagram has no public
// oEmbed endpoint anymore, so metadata comes from the Open-Graph tags.
type InstagramHandler struct {
	baseHandler
}

func NewInstagramHandler(downloader *Downloader, client *http.Client) *InstagramHandler {
	return &InstagramHandler{baseHandler{
		name:       NameInstagram,
		pattern:    instagramURLPattern,
		downloader: downloader,
		client:     client,
	}}
}

func (h *InstagramHandler) FetchMetadata(ctx context.Context, rawURL string) (*Metadata, error) {
	return fetchOpenGraph(ctx, h.client, rawURL)
}

// CleanDescription drops hashtags and links; reels captions rarely carry
// timestamps.
func (h *InstagramHandler) CleanDescription(text string) string {
	return stripAndCollapse(text, hashtagPattern, urlTextPattern)
}
