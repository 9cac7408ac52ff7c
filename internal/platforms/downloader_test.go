package platforms

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAudioNonZeroExit(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("no false binary available")
	}

	d := NewDownloader()
	d.Binary = "false"

	path, err := d.ExtractAudio(context.Background(), "https://www.tiktok.com/@x/video/1", t.TempDir())
	assert.Empty(t, path)
	assert.ErrorContains(t, err, "downloader failed")
}

func TestExtractAudioNoOutputFile(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no true binary available")
	}

	// Exits zero without writing anything: must still be an error
	d := NewDownloader()
	d.Binary = "true"

	path, err := d.ExtractAudio(context.Background(), "https://www.tiktok.com/@x/video/1", t.TempDir())
	assert.Empty(t, path)
	assert.ErrorContains(t, err, "no audio file")
}

func TestExtractAudioCancelledContext(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("no sleep binary available")
	}

	d := NewDownloader()
	d.Binary = "sleep"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path, err := d.ExtractAudio(ctx, "10", t.TempDir())
	assert.Empty(t, path)
	assert.Error(t, err)
}
