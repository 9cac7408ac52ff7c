package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"recipe_reel_go_backend/internal/errors"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultLanguage = "fr"

	extractionTemperature = 0.3
	generationTemperature = 0.7
)

// Closed vocabularies, one set per supported language. Prompts enumerate
// them and the ingress validator checks user preferences against them.
var (
	mealTypeVocabulary = map[string][]string{
		"fr": {"petit-déjeuner", "déjeuner", "dîner", "dessert", "collation", "apéritif"},
		"en": {"breakfast", "lunch", "dinner", "dessert", "snack", "appetizer"},
	}

	dietTypeVocabulary = map[string][]string{
		"fr": {"végétarien", "végétalien", "sans gluten", "sans lactose", "pescétarien", "halal", "casher"},
		"en": {"vegetarian", "vegan", "gluten-free", "lactose-free", "pescatarian", "halal", "kosher"},
	}

	equipmentVocabulary = map[string][]string{
		"fr": {"four", "micro-ondes", "mixeur", "robot de cuisine", "poêle", "casserole", "friteuse à air", "barbecue", "cuiseur vapeur", "batteur électrique"},
		"en": {"oven", "microwave", "blender", "food processor", "pan", "pot", "air fryer", "barbecue", "steamer", "hand mixer"},
	}

	cuisineOriginVocabulary = map[string][]string{
		"fr": {"française", "italienne", "espagnole", "grecque", "méditerranéenne", "mexicaine", "américaine", "indienne", "chinoise", "japonaise", "coréenne", "thaïlandaise", "vietnamienne", "moyen-orientale", "africaine"},
		"en": {"french", "italian", "spanish", "greek", "mediterranean", "mexican", "american", "indian", "chinese", "japanese", "korean", "thai", "vietnamese", "middle eastern", "african"},
	}

	languageNames = map[string]string{
		"fr": "French",
		"en": "English",
	}
)

// SupportedLanguage reports whether the caller's language is one we prompt in.
func SupportedLanguage(language string) bool {
	_, ok := languageNames[language]
	return ok
}

func inVocabulary(vocab []string, value string) bool {
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, entry := range vocab {
		if strings.ToLower(entry) == needle {
			return true
		}
	}
	return false
}

// ValidMealType checks a user-supplied meal type against the closed set.
func ValidMealType(language, value string) bool {
	return inVocabulary(mealTypeVocabulary[language], value)
}

// ValidDietTypes checks every entry against the closed set.
func ValidDietTypes(language string, values []string) bool {
	for _, v := range values {
		if !inVocabulary(dietTypeVocabulary[language], v) {
			return false
		}
	}
	return true
}

// ValidEquipment checks every entry against the closed set.
func ValidEquipment(language string, values []string) bool {
	for _, v := range values {
		if !inVocabulary(equipmentVocabulary[language], v) {
			return false
		}
	}
	return true
}

// ExtractedIngredient is one ingredient as the model reports it.
type ExtractedIngredient struct {
	Name     string   `json:"name" validate:"required"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
}

// ExtractedStep is one preparation step as the model reports it.
type ExtractedStep struct {
	Order           int      `json:"order"`
	Text            string   `json:"text" validate:"required"`
	Duration        *int     `json:"duration"`
	Temperature     *string  `json:"temperature"`
	IngredientsUsed []string `json:"ingredients_used"`
}

// ExtractedRecipe is the model's structured answer. Keys are English, the
// textual values follow the caller's language.
type ExtractedRecipe struct {
	Title         string                `json:"title" validate:"required"`
	PrepTime      *int                  `json:"prep_time"`
	CookTime      *int                  `json:"cook_time"`
	TotalTime     *int                  `json:"total_time"`
	Servings      *int                  `json:"servings"`
	CuisineOrigin *string               `json:"cuisine_origin"`
	MealType      *string               `json:"meal_type"`
	DietType      []string              `json:"diet_type"`
	Calories      *float64              `json:"calories"`
	Proteins      *float64              `json:"proteins"`
	Carbs         *float64              `json:"carbs"`
	Fats          *float64              `json:"fats"`
	Equipment     []string              `json:"equipment"`
	Ingredients   []ExtractedIngredient `json:"ingredients" validate:"required,min=1,dive"`
	Steps         []ExtractedStep       `json:"steps" validate:"required,min=1,dive"`
}

// GenerationPreferences are the validated inputs of the generation flow.
type GenerationPreferences struct {
	MealType    string
	DietTypes   []string
	Equipment   []string
	Ingredients []string
}

// RecipeAIService owns the LLM contract: prompts out, validated and
// normalized recipes back.
type RecipeAIService struct {
	chat     ChatCompleter
	validate *validator.Validate
}

func NewRecipeAIService(chat ChatCompleter) *RecipeAIService {
	return &RecipeAIService{
		chat:     chat,
		validate: validator.New(),
	}
}

// ExtractRecipe turns a transcript and cleaned description into a recipe.
func (s *RecipeAIService) ExtractRecipe(ctx context.Context, transcript, description, language string) (*ExtractedRecipe, error) {
	prompt := buildExtractionPrompt(transcript, description, language)
	raw, err := s.chat.Complete(ctx, prompt, extractionTemperature)
	if err != nil {
		return nil, fmt.Errorf("recipe extraction failed: %v", err)
	}
	return s.parseRecipe(raw, language)
}

// GenerateRecipe asks for a real existing recipe matching the preferences.
func (s *RecipeAIService) GenerateRecipe(ctx context.Context, prefs GenerationPreferences, language string) (*ExtractedRecipe, error) {
	prompt := buildGenerationPrompt(prefs, language)
	raw, err := s.chat.Complete(ctx, prompt, generationTemperature)
	if err != nil {
		return nil, fmt.Errorf("recipe generation failed: %v", err)
	}
	return s.parseRecipe(raw, language)
}

func recipeSchemaBlock(language string) string {
	var b strings.Builder
	b.WriteString("Respond ONLY with a single valid JSON object, no markdown fences, no commentary, with exactly these keys:\n")
	b.WriteString("- \"title\": string\n")
	b.WriteString("- \"prep_time\": integer minutes or null\n")
	b.WriteString("- \"cook_time\": integer minutes or null\n")
	b.WriteString("- \"total_time\": integer minutes or null\n")
	b.WriteString("- \"servings\": integer or null\n")
	fmt.Fprintf(&b, "- \"cuisine_origin\": one of [%s] or null\n", quoteJoin(cuisineOriginVocabulary[language]))
	fmt.Fprintf(&b, "- \"meal_type\": one of [%s] or null\n", quoteJoin(mealTypeVocabulary[language]))
	fmt.Fprintf(&b, "- \"diet_type\": array of values from [%s], empty if none apply\n", quoteJoin(dietTypeVocabulary[language]))
	b.WriteString("- \"calories\", \"proteins\", \"carbs\", \"fats\": numbers per serving or null\n")
	fmt.Fprintf(&b, "- \"equipment\": array of values from [%s]\n", quoteJoin(equipmentVocabulary[language]))
	b.WriteString("- \"ingredients\": array of {\"name\": string, \"quantity\": number or null, \"unit\": string or null}\n")
	b.WriteString("- \"steps\": array of {\"order\": integer starting at 1, \"text\": string, \"duration\": integer minutes or null, \"temperature\": string or null, \"ingredients_used\": array of ingredient names}\n")
	fmt.Fprintf(&b, "JSON keys stay in English; every textual value must be written in %s.\n", languageNames[language])
	return b.String()
}

func buildExtractionPrompt(transcript, description, language string) string {
	var b strings.Builder
	b.WriteString("You are a culinary assistant. Below are the audio transcript and the text description of a social media cooking video.\n\n")
	fmt.Fprintf(&b, "TRANSCRIPT:\n%s\n\n", transcript)
	fmt.Fprintf(&b, "DESCRIPTION:\n%s\n\n", description)
	fmt.Fprintf(&b, "If this content is not about cooking a recipe, respond ONLY with {\"error\": \"NOT_RECIPE\", \"message\": \"<one short sentence in %s explaining why>\"}.\n\n", languageNames[language])
	b.WriteString("Otherwise extract the complete recipe. ")
	b.WriteString(recipeSchemaBlock(language))
	return b.String()
}

func buildGenerationPrompt(prefs GenerationPreferences, language string) string {
	var b strings.Builder
	b.WriteString("You are a culinary assistant. Propose ONE real, existing recipe that people actually cook. Never invent a fantasy dish and never combine the preferences into something that does not exist as a known recipe.\n\n")
	b.WriteString("Preferences:\n")
	if prefs.MealType != "" {
		fmt.Fprintf(&b, "- meal type: %s\n", prefs.MealType)
	}
	if len(prefs.DietTypes) > 0 {
		fmt.Fprintf(&b, "- diets to respect strictly: %s\n", strings.Join(prefs.DietTypes, ", "))
	}
	if len(prefs.Equipment) > 0 {
		fmt.Fprintf(&b, "- only this equipment is available: %s\n", strings.Join(prefs.Equipment, ", "))
	}
	if len(prefs.Ingredients) > 0 {
		fmt.Fprintf(&b, "- ingredients to build on: %s\n", strings.Join(prefs.Ingredients, ", "))
	}
	b.WriteString("\nIgnore any preference that contradicts the others rather than inventing a dish. ")
	b.WriteString(recipeSchemaBlock(language))
	return b.String()
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return strings.Join(quoted, ", ")
}

// stripCodeFences removes a markdown wrapper when the model adds one anyway.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

var notRecipeFallback = map[string]string{
	"fr": "Ce lien ne semble pas contenir de recette de cuisine.",
	"en": "This link does not appear to contain a cooking recipe.",
}

func (s *RecipeAIService) parseRecipe(raw, language string) (*ExtractedRecipe, error) {
	cleaned := stripCodeFences(raw)

	var sentinel struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(cleaned), &sentinel); err == nil && sentinel.Error != "" {
		if sentinel.Error == string(errors.ErrorTypeNotRecipe) {
			message := sentinel.Message
			if message == "" {
				message = notRecipeFallback[language]
			}
			return nil, errors.New400Error(errors.ErrorTypeNotRecipe, message)
		}
		return nil, fmt.Errorf("model returned error %q: %s", sentinel.Error, sentinel.Message)
	}

	var recipe ExtractedRecipe
	if err := json.Unmarshal([]byte(cleaned), &recipe); err != nil {
		return nil, fmt.Errorf("model response is not valid JSON: %v", err)
	}
	if err := s.validate.Struct(&recipe); err != nil {
		return nil, fmt.Errorf("model response failed validation: %v", err)
	}

	normalizeExtracted(&recipe, language)
	return &recipe, nil
}

// normalizeExtracted enforces the parts of the contract a model tends to
// drift on: empty strings instead of nulls, equipment outside the closed
// set, missing step numbering.
func normalizeExtracted(recipe *ExtractedRecipe, language string) {
	recipe.Title = strings.TrimSpace(recipe.Title)

	if recipe.CuisineOrigin != nil && strings.TrimSpace(*recipe.CuisineOrigin) == "" {
		recipe.CuisineOrigin = nil
	}
	if recipe.MealType != nil && strings.TrimSpace(*recipe.MealType) == "" {
		recipe.MealType = nil
	}

	if recipe.DietType == nil {
		recipe.DietType = []string{}
	}

	allowed := equipmentVocabulary[language]
	kept := make([]string, 0, len(recipe.Equipment))
	for _, item := range recipe.Equipment {
		if inVocabulary(allowed, item) {
			kept = append(kept, item)
		}
	}
	recipe.Equipment = kept

	numbered := false
	for _, st := range recipe.Steps {
		if st.Order != 0 {
			numbered = true
			break
		}
	}
	if !numbered {
		for i := range recipe.Steps {
			recipe.Steps[i].Order = i + 1
		}
	}
}
