package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
)

// fetchOEmbed queries a platform's oEmbed endpoint and maps the common
// fields into Metadata.
func fetchOEmbed(ctx context.Context, client *http.Client, endpoint string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build oEmbed request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oEmbed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oEmbed endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		Title        string `json:"title"`
		AuthorName   string `json:"author_name"`
		AuthorURL    string `json:"author_url"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode oEmbed response: %w", err)
	}

	return &Metadata{
		Title:        payload.Title,
		Author:       payload.AuthorName,
		AuthorURL:    payload.AuthorURL,
		ThumbnailURL: payload.ThumbnailURL,
	}, nil
}

var (
	ogTitlePattern = regexp.MustCompile(`<meta[^>]+property="og:title"[^>]+content="([^"]*)"`)
	ogImagePattern = regexp.MustCompile(`<meta[^>]+property="og:image"[^>]+content="([^"]*)"`)
)

// fetchOpenGraph downloads a page and scrapes og:title and og:image. Pages
// without both tags yield whatever subset is present.
func fetchOpenGraph(ctx context.Context, client *http.Client, pageURL string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build page request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; RecipeReelBot/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	// 512 KiB is plenty: Open-Graph tags live in <head>
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}

	meta := &Metadata{}
	if m := ogTitlePattern.FindSubmatch(body); m != nil {
		meta.Title = html.UnescapeString(string(m[1]))
	}
	if m := ogImagePattern.FindSubmatch(body); m != nil {
		meta.ThumbnailURL = html.UnescapeString(string(m[1]))
	}
	return meta, nil
}
