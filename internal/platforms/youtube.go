package platforms

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
)

var youtubeURLPattern = regexp.MustCompile(`^https?://(www\.|m\.)?(youtube\.com/(watch\?|shorts/)|youtu\.be/)\S+`)

// YouTubeHandler covers full videos, shorts and youtu.be short links.
type YouTubeHandler struct {
	baseHandler
}

func NewYouTubeHandler(downloader *Downloader, client *http.Client) *YouTubeHandler {
	return &YouTubeHandler{baseHandler{
		name:       NameYouTube,
		pattern:    youtubeURLPattern,
		downloader: downloader,
		client:     client,
	}}
}

func (h *YouTubeHandler) FetchMetadata(ctx context.Context, rawURL string) (*Metadata, error) {
	endpoint := "https://www.youtube.com/oembed?format=json&url=" + url.QueryEscape(rawURL)
	return fetchOEmbed(ctx, h.client, endpoint)
}

// CleanDescription drops hashtags, chapter timestamps and promo links, the
// usual noise in YouTube descriptions.
func (h *YouTubeHandler) CleanDescription(text string) string {
	return stripAndCollapse(text, hashtagPattern, timestampPattern, urlTextPattern)
}
