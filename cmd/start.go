/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/docqa-be/cache"
	"github.com/tieubaoca/docqa-be/config"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/handler"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/service"
)

// startServerCmd represents the startServer command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the document Q&A server",
	Long:  `Starts the server that handles file uploads and chat questions`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		mongoClient, err := database.Connect(context.Background(), cfg.MongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		mongoDb := mongoClient.Database(database.DatabaseName)

		chatRepo := repository.NewChatRepo(
			mongoDb.Collection(database.ChatCollection),
			mongoDb.Collection(database.MessageCollection),
			mongoDb.Collection(database.FileDataCollection),
		)

		// Caches share one backing store; key prefixes keep them apart
		store := cache.NewInMemoryCache()
		queryCache := cache.NewQueryCache(store)
		partialCache := cache.NewPartialResultCache(store)

		monitor := service.NewResourceMonitor(cfg.Processing.MaxMemoryMB, cfg.Processing.MaxCPUPercent)
		enhanced := service.NewEnhancedExtractor(
			service.NewCLIConverter(),
			monitor,
			partialCache,
			cfg.Processing.ProcessingTimeout,
		)
		basic := service.NewBasicExtractor()
		processor := service.NewFileProcessor(service.NewFormatRouter(), enhanced, basic, nil)

		var aiService service.AIService
		if len(cfg.GeminiAPIKeys) > 0 {
			aiService, err = service.NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
			if err != nil {
				log.Fatalf("Failed to initialize Gemini service: %v", err)
			}
		} else {
			aiService = service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model)
		}
		searchService := service.NewSearchService(cfg.Search.APIKey, cfg.Search.EngineID)
		contextBuilder := service.NewContextBuilder(aiService, cfg.Processing.MaxContextChars, cfg.Processing.SummaryMaxTokens)

		fileService := service.NewFileService(chatRepo, processor, queryCache, partialCache)
		chatService := service.NewChatService(chatRepo, aiService, searchService, contextBuilder, queryCache)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		uploadHandler := handler.NewUploadHandler(fileService)
		chatHandler := handler.NewChatHandler(chatService)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/upload", uploadHandler.UploadFileHandler)
			apiV1.POST("/chat", chatHandler.HandleChat)
		}

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
	startServerCmd.Flags().StringP("config", "c", "config/config.yaml", "config file")
}
