package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/msdawood/analyse-with-rekognition/cmd"
	"github.com/msdawood/analyse-with-rekognition/internal/api"
	"github.com/msdawood/analyse-with-rekognition/internal/database"
	"github.com/msdawood/analyse-with-rekognition/internal/labelcheck"
	"github.com/msdawood/analyse-with-rekognition/internal/messaging"
	"github.com/msdawood/analyse-with-rekognition/internal/storage"
	"github.com/msdawood/analyse-with-rekognition/internal/vision"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	Root          string  `env:"ROOT" envDefault:"./label-check"`
	Port          int     `env:"PORT" envDefault:"3001"`
	TargetLabel   string  `env:"TARGET_LABEL" envDefault:"car"`
	MinConfidence float32 `env:"MIN_CONFIDENCE" envDefault:"70"`
}

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "label-check.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func createQueue(db *gorm.DB) *messaging.InMemoryQueue {
	var invocations []database.Invocation
	if err := db.Where("status = ?", database.JobQueued).Find(&invocations).Error; err != nil {
		log.Fatalf("Failed to fetch tasks from database: %v", err)
	}

	queue := messaging.NewInMemoryQueue()

	for _, invocation := range invocations {
		if err := queue.PublishAnalysisTask(context.Background(), messaging.AnalysisTaskPayload{
			InvocationId: invocation.Id,
			Bucket:       invocation.Bucket,
			ObjectKey:    invocation.ObjectKey,
		}); err != nil {
			log.Fatalf("Failed to publish analysis task: %v", err)
		}
	}

	return queue
}

func createServer(db *gorm.DB, store storage.Provider, queue messaging.Publisher, port int) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	service := api.NewBackendService(db, store, queue)
	service.AddRoutes(r)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating root directory: %v", err)
	}

	slog.Info("starting local backend", "root", cfg.Root, "port", cfg.Port, "target_label", cfg.TargetLabel)

	db := createDatabase(cfg.Root)

	store, err := storage.NewLocalProvider(filepath.Join(cfg.Root, "storage"))
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	queue := createQueue(db)

	// Canned labels stand in for Rekognition so the full pipeline runs
	// without AWS credentials.
	detector := &vision.StaticDetector{Labels: []vision.Label{
		{Name: "Car", Confidence: 98.2, Parents: []vision.Parent{{Name: "Vehicle"}, {Name: "Transportation"}}},
		{Name: "Wheel", Confidence: 91.5, Parents: []vision.Parent{{Name: "Machine"}}},
		{Name: "Road", Confidence: 74.3},
	}}

	checker := labelcheck.NewChecker(store, detector, cfg.TargetLabel, cfg.MinConfidence)
	worker := messaging.NewWorker(db, checker, queue)

	server := createServer(db, store, queue, cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())

	slog.Info("starting worker")
	go worker.Start(ctx)

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		slog.Info("shutting down worker")
		cancel()
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v", cfg.Port, err)
	}

	slog.Info("server stopped")
}
