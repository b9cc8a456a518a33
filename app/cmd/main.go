package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flowdiagram/app/config"
	"flowdiagram/app/usecase"
	"flowdiagram/internal/infrastructure/llm"
	"flowdiagram/internal/infrastructure/metrics"
	"flowdiagram/internal/infrastructure/store/filesystem"
	mongorepo "flowdiagram/internal/infrastructure/store/mongodb"
	"flowdiagram/internal/infrastructure/transport"
	"flowdiagram/internal/infrastructure/validator"
)

func main() {
	// logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// load config
	cfg := loadConfig()

	// Connect to MongoDB
	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer mongoCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Error("mongo connect failed", "err", err)
		log.Fatalf("mongo connect: %v", err)
	}
	if err := mongoClient.Ping(mongoCtx, nil); err != nil {
		logger.Error("mongo ping failed", "err", err)
		log.Fatalf("mongo ping: %v", err)
	}
	logger.Info("connected to mongo", "uri", cfg.Mongo.URI)
	db := mongoClient.Database(cfg.Mongo.Database)

	// Repositories
	diagramRepo := mongorepo.NewMongoDiagramRepo(db)
	archive, err := filesystem.NewArchive(cfg.Archive.Dir)
	if err != nil {
		log.Printf("err init archive: %s", err)
		return
	}

	// LLM client
	llmClient := llm.NewChatGenerator(
		cfg.LLM.APIKey,
		cfg.LLM.BaseURL,
		cfg.LLM.Model,
		cfg.LLM.Timeout,
	)

	// Usecases / services
	generateSvc := usecase.NewGenerateService(
		llmClient,
		diagramRepo,
		archive,
		validator.NewSequenceAnalyzer(),
		logger,
	)
	diagramSvc := usecase.NewDiagramService(diagramRepo, archive)

	// Transport (HTTP handlers)
	handler := transport.NewDiagramHandler(
		generateSvc,
		diagramSvc,
		logger,
		prometheus.DefaultRegisterer,
	)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	staticHandler, err := transport.StaticHandler()
	if err != nil {
		log.Fatalf("static handler: %v", err)
	}
	r.PathPrefix("/").Handler(staticHandler)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)
	rootHandler := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
	)(corsHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      rootHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting metrics server on :2112")
		metrics.StartMetricsServer()
	}()

	// Start HTTP server
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	// Shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	logger.Info("disconnecting mongo")
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error("mongo disconnect error", "err", err)
	}

	logger.Info("service stopped")
}

func loadConfig() *config.Config {
	cfg := &config.Config{
		Server: config.HTTPServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         8080,
			ReadTimeout:  2 * time.Minute,
			WriteTimeout: 2 * time.Minute,
		},
		LLM: config.LLMConfig{
			APIKey:      getEnv("LLM_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1/chat/completions"),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature: 0.2,
			Timeout:     2 * time.Minute,
		},
		Mongo: config.MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "flowdiagram"),
		},
		Archive: config.ArchiveConfig{
			Dir: getEnv("ARCHIVE_DIR", "./diagrams"),
		},
	}

	if cfg.LLM.APIKey == "" {
		log.Fatal("LLM_API_KEY env variable is required")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
