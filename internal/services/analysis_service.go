package services

import (
	"context"

	"recipe_reel_go_backend/internal/errors"
	"recipe_reel_go_backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// generationLockTag stands in for the source URL in the single-flight
// registry: generation has no URL but still takes the per-user slot.
const generationLockTag = "generation"

// AnalysisResponse is the payload of a successful analyze or generate call.
type AnalysisResponse struct {
	Recipe        *models.Recipe
	AlreadyExists bool
	Duplicated    bool
	Generated     bool
}

// AnalysisService is the admission controller. The HTTP layer has already
// authenticated the caller and run the rate and cost gates; from here the
// sequence is idempotence, single flight, quota, pipeline, persistence,
// debit, with the lock released on every exit path.
type AnalysisService struct {
	locks    *AnalysisLockService
	recipes  RecipeServiceDB
	quota    *QuotaService
	pipeline RecipePipeline
	storage  StorageManager
}

func NewAnalysisService(locks *AnalysisLockService, recipes RecipeServiceDB, quota *QuotaService, pipeline RecipePipeline, storage StorageManager) *AnalysisService {
	return &AnalysisService{
		locks:    locks,
		recipes:  recipes,
		quota:    quota,
		pipeline: pipeline,
		storage:  storage,
	}
}

func premiumRequiredError() *errors.CustomError {
	return errors.New403Error(errors.ErrorTypePremiumRequired,
		"You have used all your free generations, upgrade to premium to continue")
}

func analysisInProgressError(heldURL string) *errors.CustomError {
	return errors.New429Error(errors.ErrorTypeAnalysisInProgress,
		"An analysis is already running for this account", 0).
		WithDetails(map[string]interface{}{"current_url": heldURL})
}

// AnalyzeURL turns one video URL into a persisted recipe, or returns the
// recipe that already answers it.
func (s *AnalysisService) AnalyzeURL(ctx context.Context, userID uuid.UUID, rawURL, language string) (*AnalysisResponse, error) {
	normalizedURL := NormalizeSourceURL(rawURL)

	// Owner duplicate: the cheapest exit, no lock and no quota involved
	owned, err := s.recipes.FindOwnerRecipeByURLDB(userID, normalizedURL)
	if err != nil {
		return nil, errors.New500Error(err)
	}
	if owned != nil {
		return &AnalysisResponse{Recipe: s.hydrateOr(owned), AlreadyExists: true}, nil
	}

	heldURL, acquired := s.locks.TryAcquire(userID, normalizedURL)
	if !acquired {
		return nil, analysisInProgressError(heldURL)
	}
	defer s.locks.Release(userID)

	// Someone else already analyzed this video: clone their result. Still
	// billable, so quota runs first.
	global, err := s.recipes.FindGlobalRecipeByURLDB(normalizedURL)
	if err != nil {
		return nil, errors.New500Error(err)
	}
	if global != nil {
		decision, err := s.quota.CanGenerate(userID)
		if err != nil {
			return nil, errors.New500Error(err)
		}
		if !decision.Allowed {
			return nil, premiumRequiredError()
		}
		clone, err := s.recipes.CloneRecipeDB(global.ID, userID, decision.Mode())
		if err != nil {
			return nil, errors.New500Error(err)
		}
		s.quota.Debit(userID, decision)
		return &AnalysisResponse{Recipe: s.hydrateOr(clone), AlreadyExists: true, Duplicated: true}, nil
	}

	decision, err := s.quota.CanGenerate(userID)
	if err != nil {
		return nil, errors.New500Error(err)
	}
	if !decision.Allowed {
		return nil, premiumRequiredError()
	}

	result, err := s.pipeline.AnalyzeVideo(ctx, rawURL, language)
	if err != nil {
		return nil, err
	}

	var imageURL *string
	if result.Metadata != nil && result.Metadata.ThumbnailURL != "" {
		imageURL = s.storage.StoreThumbnail(ctx, result.Platform, result.Metadata.ThumbnailURL)
	}

	sourceURL := normalizedURL
	created, err := s.recipes.CreateRecipeDB(userID, RecipeDraft{
		Recipe:         result.Recipe,
		SourceURL:      &sourceURL,
		Platform:       result.Platform,
		ImageURL:       imageURL,
		GenerationMode: decision.Mode(),
	})
	if err != nil {
		return nil, errors.New500Error(err)
	}

	s.quota.Debit(userID, decision)

	return &AnalysisResponse{Recipe: s.hydrateOr(created)}, nil
}

// GenerateRecipe produces a recipe from preferences instead of a video. The
// sequence matches AnalyzeURL minus the duplicate lookups.
func (s *AnalysisService) GenerateRecipe(ctx context.Context, userID uuid.UUID, prefs GenerationPreferences, language string) (*AnalysisResponse, error) {
	heldURL, acquired := s.locks.TryAcquire(userID, generationLockTag)
	if !acquired {
		return nil, analysisInProgressError(heldURL)
	}
	defer s.locks.Release(userID)

	decision, err := s.quota.CanGenerate(userID)
	if err != nil {
		return nil, errors.New500Error(err)
	}
	if !decision.Allowed {
		return nil, premiumRequiredError()
	}

	result, err := s.pipeline.GeneratePersonalRecipe(ctx, prefs, language)
	if err != nil {
		return nil, err
	}

	var imageURL *string
	if len(result.ImageData) > 0 {
		imageURL = s.storage.StoreGeneratedImage(ctx, result.ImageData, result.ImageContentType)
	}

	created, err := s.recipes.CreateRecipeDB(userID, RecipeDraft{
		Recipe:         result.Recipe,
		Platform:       result.Platform,
		ImageURL:       imageURL,
		GenerationMode: decision.Mode(),
	})
	if err != nil {
		return nil, errors.New500Error(err)
	}

	s.quota.Debit(userID, decision)

	return &AnalysisResponse{Recipe: s.hydrateOr(created), Generated: true}, nil
}

// hydrateOr returns the fully loaded recipe. When the read back fails the
// caller gets the bare row: the write is already committed at this point.
func (s *AnalysisService) hydrateOr(recipe *models.Recipe) *models.Recipe {
	hydrated, err := s.recipes.HydrateRecipeDB(recipe.ID)
	if err != nil {
		log.Error().Err(err).Str("recipe_id", recipe.ID.String()).Msg("Failed to hydrate recipe for response")
		return recipe
	}
	return hydrated
}
