package platforms

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultDownloadTimeout = 60 * time.Second

// Downloader shells out to yt-dlp to pull the audio track of a video into a
// uniquely named file under the caller's temp directory.
type Downloader struct {
	Binary  string
	Timeout time.Duration
}

func NewDownloader() *Downloader {
	return &Downloader{
		Binary:  "yt-dlp",
		Timeout: defaultDownloadTimeout,
	}
}

// ExtractAudio runs the downloader and returns the path of the produced
// file. It fails loudly: a non-zero exit, a missing output file or an empty
// output file are all errors, never a silent empty result.
func (d *Downloader) ExtractAudio(ctx context.Context, rawURL, outputDir string) (string, error) {
	outPath := filepath.Join(outputDir, fmt.Sprintf("audio-%s.m4a", uuid.New().String()))

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.Binary,
		"-x",
		"--audio-format", "m4a",
		"--audio-quality", "5",
		"--no-playlist",
		"-o", outPath,
		rawURL,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		// Partial downloads must not outlive the request
		_ = os.Remove(outPath)
		return "", fmt.Errorf("downloader failed: %w: %s", err, truncateOutput(output))
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return "", fmt.Errorf("downloader produced no audio file: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("downloader produced an empty audio file for %s", rawURL)
	}

	log.Debug().Str("path", outPath).Int64("bytes", info.Size()).Msg("Audio extracted")
	return outPath, nil
}

func truncateOutput(output []byte) string {
	const limit = 512
	if len(output) <= limit {
		return string(output)
	}
	return string(output[:limit]) + "..."
}
