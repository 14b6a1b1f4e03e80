package main

import (
	"fmt"
	"os"

	"ai-derm-assistant/config"
	"ai-derm-assistant/internal/api/auth"
	"ai-derm-assistant/internal/api/chat"
	"ai-derm-assistant/internal/api/files"
	"ai-derm-assistant/internal/api/healthcheck"
	"ai-derm-assistant/internal/core/answer"
	"ai-derm-assistant/internal/core/classifier"
	"ai-derm-assistant/internal/core/embedding"
	"ai-derm-assistant/internal/core/knowledge"
	"ai-derm-assistant/internal/core/llm"
	"ai-derm-assistant/internal/core/pipeline"
	"ai-derm-assistant/internal/core/retriever"
	"ai-derm-assistant/internal/core/vocab"
	"ai-derm-assistant/internal/database"
	"ai-derm-assistant/internal/database/model"
	"ai-derm-assistant/internal/middleware"
	"ai-derm-assistant/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

func main() {
	configPath := os.Getenv("APP_CONFIG")
	if configPath == "" {
		configPath = "config.yml"
	}
	if err := config.Init(configPath); err != nil {
		logger.Fatal(err, "config load failed")
	}

	labels, err := vocab.Load(config.Cfg.Classifier.LabelsDir)
	if err != nil {
		logger.Fatal(err, "label vocabulary load failed")
	}
	logger.Info("loaded %d class labels", len(labels))

	cls, err := classifier.New(classifier.Config{
		ModelPath:  config.Cfg.Classifier.ModelPath,
		OrtLibrary: config.Cfg.Classifier.OrtLibrary,
		InputSize:  config.Cfg.Classifier.InputSize,
		InputName:  config.Cfg.Classifier.InputName,
		OutputName: config.Cfg.Classifier.OutputName,
	}, labels)
	if err != nil {
		logger.Fatal(err, "classifier load failed")
	}
	defer cls.Close()

	kb, err := knowledge.Load(config.Cfg.Knowledge.Path)
	if err != nil {
		logger.Fatal(err, "knowledge base load failed")
	}
	logger.Info("loaded knowledge for %d diseases", kb.Len())

	encoder, err := embedding.New(embedding.Config{
		APIKey:  config.Cfg.OpenAI.Key,
		BaseURL: config.Cfg.OpenAI.BaseURL,
		Model:   config.Cfg.OpenAI.EmbeddingModel,
	})
	if err != nil {
		logger.Fatal(err, "embedding client init failed")
	}

	chatModel, err := llm.New(llm.Config{
		APIKey:      config.Cfg.OpenAI.Key,
		BaseURL:     config.Cfg.OpenAI.BaseURL,
		Model:       config.Cfg.OpenAI.Model,
		Temperature: config.Cfg.OpenAI.Temperature,
		TopP:        config.Cfg.OpenAI.TopP,
	})
	if err != nil {
		logger.Fatal(err, "chat model init failed")
	}

	ret := retriever.New(kb, encoder, chatModel, retriever.Config{
		HybridAlpha:    float32(config.Cfg.Knowledge.HybridAlpha),
		ScoreThreshold: float32(config.Cfg.Knowledge.ScoreThreshold),
		TopK:           config.Cfg.Knowledge.TopK,
	})
	gen := answer.New(chatModel)
	pipe := pipeline.New(cls, ret, gen)

	if err := database.Migrate(&model.User{}, &model.Session{}, &model.Chat{}, &model.Message{}); err != nil {
		logger.Fatal(err, "database migration failed")
	}

	app := fiber.New(fiber.Config{
		AppName:     config.Cfg.Server.AppName,
		Concurrency: config.Cfg.Server.Concurrency,
		BodyLimit:   config.Cfg.Server.BodyLimit,
	})

	app.Use(middleware.PanicRecovery())
	app.Use(middleware.RequestID())
	app.Use(middleware.ConnectionLimit(middleware.NewConnectionLimiter(config.Cfg.Server.Concurrency)))
	if len(config.Cfg.Cors.AllowOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: config.Cfg.Cors.AllowOrigins,
			AllowMethods: config.Cfg.Cors.AllowMethods,
			AllowHeaders: config.Cfg.Cors.AllowHeaders,
		}))
	}

	healthcheck.RegisterRoutes(app, healthcheck.Models{
		Vocabulary: labels,
		Knowledge:  kb,
		Classifier: true,
	})
	auth.RegisterRoutes(app)
	chat.RegisterRoutes(app, pipe)
	files.RegisterRoutes(app)

	addr := fmt.Sprintf(":%d", config.Cfg.Server.Port)
	logger.Info("listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal(err, "server error")
	}
}
