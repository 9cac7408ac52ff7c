package api

import (
	"net/http"
	"strings"

	"recipe_reel_go_backend/internal/auth"
	"recipe_reel_go_backend/internal/errors"
	"recipe_reel_go_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gates bundles the per-endpoint admission services so SetupRoutes stays
// readable: one rate profile per endpoint, one shared cost gate.
type Gates struct {
	Standard *services.RateLimitService
	Strict   *services.RateLimitService
	Usage    *services.UsageService
}

func SetupRoutes(r *gin.Engine, verifier *auth.Verifier, gates Gates, analysisService *services.AnalysisService, accountService *services.AccountService, lockService *services.AnalysisLockService, adminKey string) {
	authn := auth.AuthMiddleware(verifier)

	r.GET("/health", healthHandler)

	r.POST("/analyze", authn, RateLimitMiddleware(gates.Standard), CostGateMiddleware(gates.Usage), analyzeHandler(analysisService))
	r.POST("/generate", authn, RateLimitMiddleware(gates.Strict), CostGateMiddleware(gates.Usage), generateHandler(analysisService))

	r.GET("/user/stats", authn, userStatsHandler(accountService))
	r.DELETE("/account", authn, deleteAccountHandler(accountService))

	admin := r.Group("/admin", AdminKeyMiddleware(adminKey))
	{
		admin.GET("/stats", adminStatsHandler(gates, lockService))
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// resolveLanguage applies the default and validates against the supported
// set. The language drives prompts, vocabularies and user-facing messages.
func resolveLanguage(language string) (string, *errors.CustomError) {
	if language == "" {
		return services.DefaultLanguage, nil
	}
	if !services.SupportedLanguage(language) {
		return "", errors.New400Error(errors.ErrorTypeInvalidLanguage, `Language must be "fr" or "en"`)
	}
	return language, nil
}

// analysisBody builds the success envelope. The optional flags only appear
// when set so clients can treat their presence as truth.
func analysisBody(userID uuid.UUID, resp *services.AnalysisResponse) gin.H {
	body := gin.H{
		"success": true,
		"recipe":  resp.Recipe,
		"user_id": userID,
	}
	if resp.AlreadyExists {
		body["alreadyExists"] = true
	}
	if resp.Duplicated {
		body["duplicated"] = true
	}
	if resp.Generated {
		body["generated"] = true
	}
	return body
}

func analyzeHandler(analysisService *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := auth.CurrentUser(c)

		var request struct {
			URL      string `json:"url"`
			Language string `json:"language"`
		}
		if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.URL) == "" {
			errors.HandleError(c, errors.New400Error(errors.ErrorTypeURLMissing, "A video URL is required"))
			return
		}

		language, cerr := resolveLanguage(request.Language)
		if cerr != nil {
			errors.HandleError(c, cerr)
			return
		}

		resp, err := analysisService.AnalyzeURL(c.Request.Context(), user.ID, strings.TrimSpace(request.URL), language)
		if err != nil {
			errors.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, analysisBody(user.ID, resp))
	}
}

func generateHandler(analysisService *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := auth.CurrentUser(c)

		var request struct {
			MealType    string   `json:"mealType"`
			DietTypes   []string `json:"dietTypes"`
			Equipment   []string `json:"equipment"`
			Ingredients []string `json:"ingredients"`
			Language    string   `json:"language"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			errors.HandleError(c, errors.New400Error(errors.ErrorTypeInvalidIngredients, "Request body must be a JSON object of preferences"))
			return
		}

		language, cerr := resolveLanguage(request.Language)
		if cerr != nil {
			errors.HandleError(c, cerr)
			return
		}

		if request.MealType != "" && !services.ValidMealType(language, request.MealType) {
			errors.HandleError(c, errors.New400Error(errors.ErrorTypeInvalidMealType, "Unknown meal type for this language"))
			return
		}
		if !services.ValidDietTypes(language, request.DietTypes) {
			errors.HandleError(c, errors.New400Error(errors.ErrorTypeInvalidDietTypes, "Unknown diet type for this language"))
			return
		}
		if !services.ValidEquipment(language, request.Equipment) {
			errors.HandleError(c, errors.New400Error(errors.ErrorTypeInvalidEquipment, "Unknown equipment for this language"))
			return
		}

		ingredients := make([]string, 0, len(request.Ingredients))
		for _, ing := range request.Ingredients {
			trimmed := strings.TrimSpace(ing)
			if trimmed == "" {
				errors.HandleError(c, errors.New400Error(errors.ErrorTypeInvalidIngredients, "Ingredients must be non-empty strings"))
				return
			}
			ingredients = append(ingredients, trimmed)
		}

		prefs := services.GenerationPreferences{
			MealType:    strings.TrimSpace(request.MealType),
			DietTypes:   request.DietTypes,
			Equipment:   request.Equipment,
			Ingredients: ingredients,
		}

		resp, err := analysisService.GenerateRecipe(c.Request.Context(), user.ID, prefs, language)
		if err != nil {
			errors.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, analysisBody(user.ID, resp))
	}
}

func userStatsHandler(accountService *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := auth.CurrentUser(c)

		stats, err := accountService.Stats(user.ID)
		if err != nil {
			errors.HandleError(c, errors.New500Error(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":                    true,
			"is_premium":                 stats.IsPremium,
			"free_generations_remaining": stats.FreeGenerationsRemaining,
			"recipe_count":               stats.RecipeCount,
			"analyses_today":             stats.AnalysesToday,
		})
	}
}

func deleteAccountHandler(accountService *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := auth.CurrentUser(c)

		if err := accountService.DeleteAccount(user.ID); err != nil {
			errors.HandleError(c, errors.New500Error(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func adminStatsHandler(gates Gates, lockService *services.AnalysisLockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"rate": gin.H{
				"standard": gates.Standard.Snapshot(),
				"strict":   gates.Strict.Snapshot(),
			},
			"usage":           gates.Usage.Snapshot(),
			"active_analyses": lockService.ActiveCount(),
		})
	}
}
