package services

import (
	"strings"
	"time"

	"recipe_reel_go_backend/internal/models"
	"recipe_reel_go_backend/internal/utils/fuzzy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecipeDraft is everything the pipeline hands to persistence for a new row.
type RecipeDraft struct {
	Recipe         *ExtractedRecipe
	SourceURL      *string
	Platform       string
	ImageURL       *string
	GenerationMode models.GenerationMode
}

// RecipeServiceDB is the persistence layer for recipes and their children.
type RecipeServiceDB interface {
	FindOwnerRecipeByURLDB(userID uuid.UUID, normalizedURL string) (*models.Recipe, error)
	FindGlobalRecipeByURLDB(normalizedURL string) (*models.Recipe, error)
	CreateRecipeDB(userID uuid.UUID, draft RecipeDraft) (*models.Recipe, error)
	CloneRecipeDB(recipeID, newOwner uuid.UUID, mode models.GenerationMode) (*models.Recipe, error)
	HydrateRecipeDB(recipeID uuid.UUID) (*models.Recipe, error)
	CountRecipesByUserDB(userID uuid.UUID) (int64, error)
	DeleteUserRecipesDB(userID uuid.UUID) error
}

// DefaultRecipeService implements RecipeServiceDB
type DefaultRecipeService struct {
	db *gorm.DB
}

func NewRecipeServiceDB(db *gorm.DB) RecipeServiceDB {
	return &DefaultRecipeService{db: db}
}

// escapeLike neutralizes LIKE wildcards so a stored URL is matched literally.
// Percent signs are common in URLs because of percent-encoding.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FindOwnerRecipeByURLDB returns the user's most recent recipe whose
// source_url begins with the normalized URL, or nil when there is none.
func (s *DefaultRecipeService) FindOwnerRecipeByURLDB(userID uuid.UUID, normalizedURL string) (*models.Recipe, error) {
	var recipe models.Recipe
	result := s.db.
		Where("user_id = ? AND source_url LIKE ? ESCAPE '\\'", userID, escapeLike(normalizedURL)+"%").
		Order("created_at DESC").
		First(&recipe)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &recipe, nil
}

// FindGlobalRecipeByURLDB is the cross-user variant of the URL lookup.
func (s *DefaultRecipeService) FindGlobalRecipeByURLDB(normalizedURL string) (*models.Recipe, error) {
	var recipe models.Recipe
	result := s.db.
		Where("source_url LIKE ? ESCAPE '\\'", escapeLike(normalizedURL)+"%").
		Order("created_at DESC").
		First(&recipe)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &recipe, nil
}

// CreateRecipeDB writes the recipe row, then the ingredient and step batches.
// The recipe insert is the one that must succeed; child batch failures are
// logged and the recipe is kept, so the caller still gets a usable artifact.
func (s *DefaultRecipeService) CreateRecipeDB(userID uuid.UUID, draft RecipeDraft) (*models.Recipe, error) {
	extracted := draft.Recipe

	recipe := models.Recipe{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          extracted.Title,
		SourceURL:      draft.SourceURL,
		Platform:       draft.Platform,
		PrepTime:       extracted.PrepTime,
		CookTime:       extracted.CookTime,
		TotalTime:      extracted.TotalTime,
		Servings:       extracted.Servings,
		CuisineOrigin:  extracted.CuisineOrigin,
		MealType:       extracted.MealType,
		DietType:       datatypes.JSONSlice[string](extracted.DietType),
		Calories:       extracted.Calories,
		Proteins:       extracted.Proteins,
		Carbs:          extracted.Carbs,
		Fats:           extracted.Fats,
		Equipment:      datatypes.JSONSlice[string](extracted.Equipment),
		ImageURL:       draft.ImageURL,
		GenerationMode: draft.GenerationMode,
	}
	if err := s.db.Create(&recipe).Error; err != nil {
		return nil, err
	}

	if len(extracted.Ingredients) > 0 {
		ingredients := s.linkIngredients(recipe.ID, extracted.Ingredients)
		if err := s.db.Create(&ingredients).Error; err != nil {
			log.Error().Err(err).Str("recipe_id", recipe.ID.String()).Msg("Failed to save ingredients, keeping recipe")
		}
	}

	if len(extracted.Steps) > 0 {
		steps := make([]models.Step, 0, len(extracted.Steps))
		for _, st := range extracted.Steps {
			steps = append(steps, models.Step{
				ID:              uuid.New(),
				RecipeID:        recipe.ID,
				Order:           st.Order,
				Text:            st.Text,
				Duration:        st.Duration,
				Temperature:     st.Temperature,
				IngredientsUsed: datatypes.JSONSlice[string](st.IngredientsUsed),
			})
		}
		if err := s.db.Create(&steps).Error; err != nil {
			log.Error().Err(err).Str("recipe_id", recipe.ID.String()).Msg("Failed to save steps, keeping recipe")
		}
	}

	return &recipe, nil
}

// linkIngredients builds the ingredient rows, matching each name against the
// food table. Rows are listed by name so tie-breaking stays deterministic.
func (s *DefaultRecipeService) linkIngredients(recipeID uuid.UUID, extracted []ExtractedIngredient) []models.Ingredient {
	var foodItems []models.FoodItem
	if err := s.db.Order("name ASC").Find(&foodItems).Error; err != nil {
		log.Warn().Err(err).Msg("Food table unavailable, skipping ingredient linking")
		foodItems = nil
	}

	names := make([]string, len(foodItems))
	for i, item := range foodItems {
		names[i] = item.Name
	}
	matcher := fuzzy.NewMatcher(names)

	ingredients := make([]models.Ingredient, 0, len(extracted))
	for _, ing := range extracted {
		row := models.Ingredient{
			ID:       uuid.New(),
			RecipeID: recipeID,
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		}
		if idx, _ := matcher.Best(ing.Name); idx >= 0 {
			row.FoodItemID = &foodItems[idx].ID
		}
		ingredients = append(ingredients, row)
	}
	return ingredients
}

// CloneRecipeDB copies a recipe and its children under a new id and owner.
// The accounting mode is the cloning user's, not the source owner's.
func (s *DefaultRecipeService) CloneRecipeDB(recipeID, newOwner uuid.UUID, mode models.GenerationMode) (*models.Recipe, error) {
	var source models.Recipe
	if err := s.db.Preload("Ingredients").Preload("Steps").Where("id = ?", recipeID).First(&source).Error; err != nil {
		return nil, err
	}

	clone := source
	clone.ID = uuid.New()
	clone.UserID = newOwner
	clone.CreatedAt = time.Time{}
	clone.GenerationMode = mode
	clone.Ingredients = nil
	clone.Steps = nil

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&clone).Error; err != nil {
			return err
		}
		if len(source.Ingredients) > 0 {
			ingredients := make([]models.Ingredient, 0, len(source.Ingredients))
			for _, ing := range source.Ingredients {
				copied := ing
				copied.ID = uuid.New()
				copied.RecipeID = clone.ID
				ingredients = append(ingredients, copied)
			}
			if err := tx.Create(&ingredients).Error; err != nil {
				return err
			}
		}
		if len(source.Steps) > 0 {
			steps := make([]models.Step, 0, len(source.Steps))
			for _, st := range source.Steps {
				copied := st
				copied.ID = uuid.New()
				copied.RecipeID = clone.ID
				steps = append(steps, copied)
			}
			if err := tx.Create(&steps).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &clone, nil
}

// HydrateRecipeDB loads the full row set for a response: ingredients ordered
// by name, steps by their position.
func (s *DefaultRecipeService) HydrateRecipeDB(recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	result := s.db.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order(`"order" ASC`) }).
		Where("id = ?", recipeID).
		First(&recipe)
	if result.Error != nil {
		return nil, result.Error
	}
	return &recipe, nil
}

func (s *DefaultRecipeService) CountRecipesByUserDB(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Recipe{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeleteUserRecipesDB removes every recipe of a user with its children.
func (s *DefaultRecipeService) DeleteUserRecipesDB(userID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.Recipe{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("recipe_id IN ?", ids).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id IN ?", ids).Delete(&models.Step{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&models.Recipe{}).Error
	})
}
