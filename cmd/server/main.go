package main

import (
	"context"
	"log"

	"drawparty-backend/internal/ai"
	"drawparty-backend/internal/cache"
	"drawparty-backend/internal/config"
	"drawparty-backend/internal/database"
	"drawparty-backend/internal/game"
	"drawparty-backend/internal/server"
	"drawparty-backend/internal/storage"
	"drawparty-backend/internal/store"
)

func main() {
	cfg := config.Load()

	db, err := database.ConnectDB()
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer database.Close()

	if err := database.Ping(); err != nil {
		log.Fatalf("❌ Database ping failed: %v", err)
	}
	log.Printf("✅ Database connected successfully")

	// Redis is optional; result polling falls back to Postgres without it
	var redisClient *cache.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("⚠️ Redis connection failed: %v (result caching disabled)", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Printf("✅ Redis connected successfully")
		}
	} else {
		log.Println("ℹ️ Redis not configured (result caching disabled)")
	}

	resultStore := store.NewGormResultStore(db, redisClient)

	// S3 is optional; without it results carry analysis but no image URLs
	var objectStore storage.ObjectStore
	if cfg.S3.BucketName != "" && cfg.S3.AccessKeyID != "" {
		s3Service, err := storage.NewS3Service(&cfg.S3)
		if err != nil {
			log.Printf("⚠️ S3 service initialization failed: %v (image storage disabled)", err)
		} else {
			objectStore = s3Service
			log.Printf("✅ S3 service initialized (bucket: %s)", cfg.S3.BucketName)
		}
	} else {
		log.Println("ℹ️ S3 not configured (image storage disabled)")
	}

	var analyzer ai.Analyzer
	var generator ai.Generator
	if cfg.AI.Enabled {
		bedrock, err := ai.NewBedrockClient(context.Background(), cfg)
		if err != nil {
			log.Printf("⚠️ Bedrock client initialization failed: %v (AI stages disabled)", err)
		} else {
			analyzer = ai.NewBedrockAnalyzer(bedrock, cfg.AI.AnalysisModelID)
			generator = ai.NewBedrockGenerator(bedrock, cfg.AI.ImageModelID)
			log.Printf("✅ Bedrock AI initialized (analysis: %s, image: %s)",
				cfg.AI.AnalysisModelID, cfg.AI.ImageModelID)
		}
	} else {
		log.Println("ℹ️ AI pipeline not enabled (rounds will record FAILED analysis)")
	}

	pipeline := ai.NewPipeline(analyzer, generator, resultStore, objectStore, cfg.AI.StageTimeout)
	manager := game.NewManager(cfg.Game, cfg.Canvas, pipeline)

	srv := server.New(cfg, db, manager, resultStore, objectStore)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
