package platforms

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
)

var tiktokURLPattern = regexp.MustCompile(`^https?://(www\.|vm\.|vt\.)?tiktok\.com/\S+`)

// TikTokHandler covers tiktok.com plus the vm/vt short-link hosts.
type TikTokHandler struct {
	baseHandler
}

func NewTikTokHandler(downloader *Downloader, client *http.Client) *TikTokHandler {
	return &TikTokHandler{baseHandler{
		name:       NameTikTok,
		pattern:    tiktokURLPattern,
		downloader: downloader,
		client:     client,
	}}
}

func (h *TikTokHandler) FetchMetadata(ctx context.Context, rawURL string) (*Metadata, error) {
	endpoint := "https://www.tiktok.com/oembed?url=" + url.QueryEscape(rawURL)
	return fetchOEmbed(ctx, h.client, endpoint)
}

// CleanDescription drops hashtags, which make up most of a TikTok caption,
// and collapses the leftover whitespace.
func (h *TikTokHandler) CleanDescription(text string) string {
	return stripAndCollapse(text, hashtagPattern)
}
