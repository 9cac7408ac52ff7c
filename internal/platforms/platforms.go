// Package platforms detects which social platform a video URL belongs to and
// gives the pipeline a uniform handle for metadata retrieval, audio
// extraction, description cleaning and temp-file cleanup.
package platforms

import (
	"context"
	"errors"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Platform keys. Generated is assigned, never matched: it marks recipes
// created from user preferences instead of a source video.
const (
	NameTikTok    = "tiktok"
	NameYouTube   = "youtube"
	NameInstagram = "instagram"
	NameGenerated = "generated"
)

// ErrUnsupported is returned when no registered handler matches a URL.
var ErrUnsupported = errors.New("unsupported platform")

// Metadata is what a platform exposes about a video. All fields optional.
type Metadata struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Handler is one platform's behavior.
type Handler interface {
	Name() string
	Matches(rawURL string) bool
	FetchMetadata(ctx context.Context, rawURL string) (*Metadata, error)
	ExtractAudio(ctx context.Context, rawURL, outputDir string) (string, error)
	CleanDescription(text string) string
	Cleanup(path string)
}

// Registry holds the known handlers in detection order.
type Registry struct {
	handlers []Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	return &Registry{handlers: handlers}
}

// NewDefaultRegistry wires the three supported platforms over a shared
// downloader and HTTP client.
func NewDefaultRegistry(downloader *Downloader, client *http.Client) *Registry {
	return NewRegistry(
		NewTikTokHandler(downloader, client),
		NewYouTubeHandler(downloader, client),
		NewInstagramHandler(downloader, client),
	)
}

// Detect returns the first handler whose pattern matches the URL.
func (r *Registry) Detect(rawURL string) (Handler, error) {
	for _, h := range r.handlers {
		if h.Matches(rawURL) {
			return h, nil
		}
	}
	return nil, ErrUnsupported
}

var (
	hashtagPattern   = regexp.MustCompile(`#\S+`)
	urlTextPattern   = regexp.MustCompile(`https?://\S+`)
	timestampPattern = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
)

// stripAndCollapse removes every match of the given patterns and collapses
// the remaining whitespace to single spaces.
func stripAndCollapse(text string, patterns ...*regexp.Regexp) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}

// baseHandler carries the pieces every platform shares.
type baseHandler struct {
	name       string
	pattern    *regexp.Regexp
	downloader *Downloader
	client     *http.Client
}

func (h *baseHandler) Name() string {
	return h.name
}

func (h *baseHandler) Matches(rawURL string) bool {
	return h.pattern.MatchString(rawURL)
}

func (h *baseHandler) ExtractAudio(ctx context.Context, rawURL, outputDir string) (string, error) {
	return h.downloader.ExtractAudio(ctx, rawURL, outputDir)
}

// Cleanup removes an extracted audio file. Best effort: a leftover temp file
// is worth a warning, not a failed request.
func (h *baseHandler) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove temp audio file")
	}
}
