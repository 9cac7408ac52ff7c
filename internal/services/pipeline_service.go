package services

import (
	"context"
	"fmt"
	"os"

	"recipe_reel_go_backend/internal/errors"
	"recipe_reel_go_backend/internal/platforms"

	"github.com/rs/zerolog/log"
)

// PipelineResult is the pipeline's output. For analyses Metadata carries the
// thumbnail URL; for generated recipes ImageData carries the rendered dish.
type PipelineResult struct {
	Recipe           *ExtractedRecipe
	Platform         string
	Metadata         *platforms.Metadata
	ImageData        []byte
	ImageContentType string
}

// PipelineService chains platform detection, metadata, audio extraction,
// transcription and the LLM into one analysis. It owns the per-request temp
// directory and removes it on every path.
type PipelineService struct {
	registry    *platforms.Registry
	transcriber Transcriber
	ai          *RecipeAIService
	imageGen    ImageGenerator
}

func NewPipelineService(registry *platforms.Registry, transcriber Transcriber, ai *RecipeAIService, imageGen ImageGenerator) *PipelineService {
	return &PipelineService{
		registry:    registry,
		transcriber: transcriber,
		ai:          ai,
		imageGen:    imageGen,
	}
}

// AnalyzeVideo runs the full extraction flow for one video URL.
func (s *PipelineService) AnalyzeVideo(ctx context.Context, rawURL, language string) (*PipelineResult, error) {
	handler, err := s.registry.Detect(rawURL)
	if err != nil {
		return nil, errors.New400Error(errors.ErrorTypePlatformUnsupported,
			"Only TikTok, YouTube and Instagram links are supported")
	}

	// Metadata failures are tolerated: the recipe just loses its thumbnail
	// and the description signal.
	metadata, err := handler.FetchMetadata(ctx, rawURL)
	if err != nil {
		log.Warn().Err(err).Str("platform", handler.Name()).Msg("Metadata fetch failed, continuing without it")
		metadata = nil
	}

	tempDir, err := os.MkdirTemp("", "recipe-analysis-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	audioPath, err := handler.ExtractAudio(ctx, rawURL, tempDir)
	if err != nil {
		return nil, fmt.Errorf("audio extraction failed: %v", err)
	}
	defer handler.Cleanup(audioPath)

	transcript, err := s.transcriber.Transcribe(ctx, audioPath, language)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %v", err)
	}

	description := ""
	if metadata != nil {
		description = handler.CleanDescription(metadata.Title)
	}

	recipe, err := s.ai.ExtractRecipe(ctx, transcript, description, language)
	if err != nil {
		return nil, err
	}

	return &PipelineResult{
		Recipe:   recipe,
		Platform: handler.Name(),
		Metadata: metadata,
	}, nil
}

// GeneratePersonalRecipe asks the model for a real recipe matching the
// user's preferences and renders one dish image for it.
func (s *PipelineService) GeneratePersonalRecipe(ctx context.Context, prefs GenerationPreferences, language string) (*PipelineResult, error) {
	recipe, err := s.ai.GenerateRecipe(ctx, prefs, language)
	if err != nil {
		return nil, err
	}

	result := &PipelineResult{
		Recipe:   recipe,
		Platform: platforms.NameGenerated,
	}

	// A failed render costs the image, not the recipe.
	imageData, contentType, err := s.imageGen.GenerateImage(ctx, buildImagePrompt(recipe))
	if err != nil {
		log.Warn().Err(err).Msg("Dish image generation failed, continuing without image")
		return result, nil
	}
	result.ImageData = imageData
	result.ImageContentType = contentType
	return result, nil
}

func buildImagePrompt(recipe *ExtractedRecipe) string {
	prompt := fmt.Sprintf("Professional overhead food photography of %s, plated and ready to serve, natural light, appetizing, square composition", recipe.Title)
	if recipe.CuisineOrigin != nil {
		prompt += fmt.Sprintf(", %s cuisine", *recipe.CuisineOrigin)
	}
	return prompt
}
