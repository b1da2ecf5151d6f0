package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/darkruden/mock-interview-ai/config"
	"github.com/darkruden/mock-interview-ai/internal/api/handlers"
	"github.com/darkruden/mock-interview-ai/internal/api/middleware"
	"github.com/darkruden/mock-interview-ai/internal/api/routes"
	"github.com/darkruden/mock-interview-ai/internal/events"
	"github.com/darkruden/mock-interview-ai/internal/logger"
	"github.com/darkruden/mock-interview-ai/internal/models"
	"github.com/darkruden/mock-interview-ai/internal/providers/llm"
	mongorepo "github.com/darkruden/mock-interview-ai/internal/repositories/mongo"
	postgresrepo "github.com/darkruden/mock-interview-ai/internal/repositories/postgres"
	"github.com/darkruden/mock-interview-ai/internal/services"
	"github.com/darkruden/mock-interview-ai/internal/storage"
	"github.com/darkruden/mock-interview-ai/internal/workers"
	"github.com/darkruden/mock-interview-ai/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	appLog := logger.New()
	ctx := context.Background()

	// Record store
	mongoClient, err := config.NewMongo(ctx)
	if err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	defer func() { _ = mongoClient.Disconnect(ctx) }()
	db := config.MongoDatabase(mongoClient)
	if err := config.EnsureMongoIndexes(ctx, db); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}

	// Workflow broker / event bus
	rdb, err := config.NewRedis(ctx)
	if err != nil {
		log.Fatalf("Redis init error: %v", err)
	}

	// Question bank (optional)
	var questions postgresrepo.QuestionRepository
	if os.Getenv("POSTGRES_URI") != "" {
		pg, err := config.NewPostgres()
		if err != nil {
			log.Fatalf("PostgreSQL init error: %v", err)
		}
		if err := pg.AutoMigrate(&models.Question{}); err != nil {
			log.Fatalf("PostgreSQL migrate error: %v", err)
		}
		questions = postgresrepo.NewQuestionRepo(pg)
		if err := questions.Seed(ctx, defaultQuestions()); err != nil {
			appLog.WithError(err).Warn("question seed failed")
		}
	} else {
		appLog.Warn("POSTGRES_URI not set, running without the question bank")
	}

	// Object store
	bucket := os.Getenv("AUDIO_BUCKET")
	if bucket == "" {
		log.Fatal("AUDIO_BUCKET environment variable is not set")
	}
	store, err := storage.NewGCSStore(ctx, bucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}
	defer func() { _ = store.Close() }()

	// Inference
	provider, err := llm.NewProvider(ctx)
	if err != nil {
		log.Fatalf("LLM init error: %v", err)
	}
	defer func() { _ = provider.Close() }()

	publisher := events.NewRedisPublisher(rdb)
	sessions := services.NewSessionService(mongorepo.NewSessionRepo(db), store, publisher)

	processor := &workers.Processor{
		Sessions:  sessions,
		Questions: questions,
		Store:     store,
		LLM:       provider,
		Logger:    appLog,
	}

	orchestrator := &workflow.Orchestrator{
		Broker:      workflow.NewRedisBroker(rdb),
		Worker:      processor,
		Recorder:    sessions,
		Logger:      appLog,
		NumWorkers:  envInt("WORKER_POOL_SIZE", 5),
		MaxAttempts: envInt("WORKER_MAX_ATTEMPTS", 3),
	}
	if err := orchestrator.Start(ctx); err != nil {
		log.Fatalf("Orchestrator start error: %v", err)
	}

	r := gin.Default()
	r.Use(middleware.RequestLogger(appLog))
	routes.RegisterRoutes(r, routes.Deps{
		Session: handlers.NewSessionHandler(sessions),
		Trigger: handlers.NewTriggerHandler(orchestrator, appLog),
		Token:   handlers.NewTokenHandler(),
		WS:      handlers.NewWSHandler(sessions, rdb),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func defaultQuestions() []models.Question {
	return []models.Question{
		{
			ID:    "Q1",
			Text:  "Tell me about a technically challenging project you worked on. What made it hard, and what was your specific contribution?",
			Topic: "general",
		},
		{
			ID:    "Q2",
			Text:  "Describe a production incident you helped resolve. How did you find the root cause?",
			Topic: "operations",
		},
		{
			ID:    "Q3",
			Text:  "Walk me through how you would design a URL shortening service.",
			Topic: "system-design",
		},
	}
}
