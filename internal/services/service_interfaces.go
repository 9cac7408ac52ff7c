package services

import (
	"context"
)

// ChatCompleter produces one text completion for one prompt.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Transcriber turns an audio file into text in the requested language.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// ImageGenerator renders one square dish image and resolves it to raw bytes
// with their content type, whether the provider answered with a URL or
// inline base64 data.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// StorageManager persists recipe images. Both methods return nil on any
// failure: a recipe is stored without an image rather than failing.
type StorageManager interface {
	StoreThumbnail(ctx context.Context, platform, thumbnailURL string) *string
	StoreGeneratedImage(ctx context.Context, data []byte, contentType string) *string
}

// RecipePipeline runs a whole analysis or generation flow and hands back the
// structured recipe plus everything persistence needs.
type RecipePipeline interface {
	AnalyzeVideo(ctx context.Context, rawURL, language string) (*PipelineResult, error)
	GeneratePersonalRecipe(ctx context.Context, prefs GenerationPreferences, language string) (*PipelineResult, error)
}
