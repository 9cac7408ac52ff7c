package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"recipe_reel_go_backend/cmd/api/config"
	"recipe_reel_go_backend/internal/api"
	"recipe_reel_go_backend/internal/auth"
	"recipe_reel_go_backend/internal/database"
	"recipe_reel_go_backend/internal/platforms"
	"recipe_reel_go_backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	if supabaseURL == "" {
		log.Fatal("SUPABASE_URL is not set in the environment")
	}
	jwtSecret := os.Getenv("SUPABASE_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("SUPABASE_JWT_SECRET is not set in the environment")
	}
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		log.Fatal("OPENAI_API_KEY is not set in the environment")
	}

	ctx := context.Background()
	cfg := config.NewConfig()

	database.InitDB()

	verifier, err := auth.NewVerifier(jwtSecret, strings.TrimRight(supabaseURL, "/")+"/auth/v1")
	if err != nil {
		log.Fatalf("Failed to build token verifier: %v", err)
	}

	// Chat follows AI_PROVIDER; transcription and image generation always
	// run on OpenAI.
	var openaiProvider *services.OpenAIProvider
	var chat services.ChatCompleter

	switch strings.ToLower(os.Getenv("AI_PROVIDER")) {
	case "openai":
		openaiProvider = services.NewOpenAIProvider(openaiKey, os.Getenv("AI_MODEL"), os.Getenv("IMAGE_MODEL"))
		chat = openaiProvider
	case "", "gemini":
		geminiKey := os.Getenv("GEMINI_API_KEY")
		if geminiKey == "" {
			log.Fatal("GEMINI_API_KEY is not set in the environment")
		}
		genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(geminiKey))
		if err != nil {
			log.Fatalf("Failed to create GenAI client: %v", err)
		}
		defer genaiClient.Close()
		openaiProvider = services.NewOpenAIProvider(openaiKey, "", os.Getenv("IMAGE_MODEL"))
		chat = services.NewGeminiProvider(genaiClient, os.Getenv("AI_MODEL"))
	default:
		log.Fatalf("Unsupported AI_PROVIDER %q", os.Getenv("AI_PROVIDER"))
	}

	if imageProvider := strings.ToLower(os.Getenv("IMAGE_PROVIDER")); imageProvider != "" && imageProvider != "openai" {
		log.Fatalf("Unsupported IMAGE_PROVIDER %q, image generation runs on OpenAI", imageProvider)
	}

	bucket := os.Getenv("STORAGE_BUCKET")
	if bucket == "" {
		bucket = "recipe-thumbnails"
	}
	storageEndpoint := os.Getenv("STORAGE_ENDPOINT")
	storage, err := services.NewStorageService(services.StorageConfig{
		Endpoint:      storageEndpoint,
		Region:        os.Getenv("STORAGE_REGION"),
		AccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
		SecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
		Bucket:        bucket,
		PublicBaseURL: os.Getenv("STORAGE_PUBLIC_BASE_URL"),
		UsePathStyle:  storageEndpoint != "",
	})
	if err != nil {
		log.Fatalf("Failed to create storage service: %v", err)
	}

	// Durable store shared by the rate gate, the cost gate and retention
	store := services.NewRateLimitStoreDB(database.DB)

	standardGate := services.NewRateLimitService(services.StandardProfile(), store, cfg.RateSweepInterval)
	strictGate := services.NewRateLimitService(services.StrictProfile(), store, cfg.RateSweepInterval)
	usageService := services.NewUsageService(store, services.UsageLimits{
		DailyGlobal:  cfg.DailyGlobalLimit,
		HourlyGlobal: cfg.HourlyGlobalLimit,
		DailyUser:    cfg.DailyUserLimit,
	}, cfg.UsageCacheTTL, cfg.AlertThreshold)

	retentionService := services.NewRetentionService(store, cfg.RetentionWindow)
	retentionService.Start(cfg.RetentionInterval)

	recipeStore := services.NewRecipeServiceDB(database.DB)
	profileStore := services.NewProfileServiceDB(database.DB)

	downloader := platforms.NewDownloader()
	downloader.Timeout = cfg.DownloadTimeout
	registry := platforms.NewDefaultRegistry(
		downloader,
		&http.Client{Timeout: cfg.ExternalHTTPTimeout},
	)
	aiService := services.NewRecipeAIService(chat)
	pipelineService := services.NewPipelineService(registry, openaiProvider, aiService, openaiProvider)

	lockService := services.NewAnalysisLockService()
	quotaService := services.NewQuotaService(profileStore)
	analysisService := services.NewAnalysisService(lockService, recipeStore, quotaService, pipelineService, storage)
	accountService := services.NewAccountService(profileStore, recipeStore, usageService)

	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173" // Default to your local frontend
	}

	// CORS middleware configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(allowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	gates := api.Gates{Standard: standardGate, Strict: strictGate, Usage: usageService}
	api.SetupRoutes(r, verifier, gates, analysisService, accountService, lockService, os.Getenv("ADMIN_API_KEY"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
