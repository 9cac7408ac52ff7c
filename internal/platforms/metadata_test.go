package platforms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchOEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "Carbonara en 60s #pasta",
			"author_name": "chef.luigi",
			"author_url": "https://www.tiktok.com/@chef.luigi",
			"thumbnail_url": "https://cdn.example.com/thumb.jpg"
		}`))
	}))
	defer server.Close()

	meta, err := fetchOEmbed(context.Background(), server.Client(), server.URL)
	assert.NoError(t, err)
	assert.Equal(t, "Carbonara en 60s #pasta", meta.Title)
	assert.Equal(t, "chef.luigi", meta.Author)
	assert.Equal(t, "https://www.tiktok.com/@chef.luigi", meta.AuthorURL)
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", meta.ThumbnailURL)
}

func TestFetchOEmbedErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		meta, err := fetchOEmbed(context.Background(), server.Client(), server.URL)
		assert.Nil(t, meta)
		assert.ErrorContains(t, err, "status 404")
	})

	t.Run("invalid json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<!doctype html>"))
		}))
		defer server.Close()

		meta, err := fetchOEmbed(context.Background(), server.Client(), server.URL)
		assert.Nil(t, meta)
		assert.ErrorContains(t, err, "decode")
	})
}

func TestFetchOpenGraph(t *testing.T) {
	page := `<!doctype html><html><head>
		<meta property="og:title" content="Tarte Tatin maison &#233;tape par &#233;tape" />
		<meta property="og:image" content="https://cdn.example.com/tatin.jpg" />
	</head><body></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(page))
	}))
	defer server.Close()

	meta, err := fetchOpenGraph(context.Background(), server.Client(), server.URL)
	assert.NoError(t, err)
	assert.Equal(t, "Tarte Tatin maison étape par étape", meta.Title)
	assert.Equal(t, "https://cdn.example.com/tatin.jpg", meta.ThumbnailURL)
}

func TestFetchOpenGraphMissingTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>plain page</title></head></html>"))
	}))
	defer server.Close()

	meta, err := fetchOpenGraph(context.Background(), server.Client(), server.URL)
	assert.NoError(t, err)
	assert.Empty(t, meta.Title)
	assert.Empty(t, meta.ThumbnailURL)
}
