package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/msdawood/analyse-with-rekognition/cmd"
	"github.com/msdawood/analyse-with-rekognition/internal/database"
	"github.com/msdawood/analyse-with-rekognition/internal/labelcheck"
	"github.com/msdawood/analyse-with-rekognition/internal/messaging"
	"github.com/msdawood/analyse-with-rekognition/internal/storage"
	"github.com/msdawood/analyse-with-rekognition/internal/vision"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	DatabaseURL       string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL       string `env:"RABBITMQ_URL,notEmpty,required"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	RekognitionEndpointURL string `env:"REKOGNITION_ENDPOINT_URL"`

	TargetLabel   string  `env:"TARGET_LABEL" envDefault:"car"`
	MinConfidence float32 `env:"MIN_CONFIDENCE" envDefault:"70"`
}

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := storage.NewS3Provider(&storage.S3ProviderConfig{
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 provider: %v", err)
	}

	detector, err := vision.NewRekognitionDetector(&vision.RekognitionConfig{
		EndpointURL:     cfg.RekognitionEndpointURL,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Failed to create Rekognition detector: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer receiver.Close()

	checker := labelcheck.NewChecker(store, detector, cfg.TargetLabel, cfg.MinConfidence)
	worker := messaging.NewWorker(db, checker, receiver)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutdown signal received, stopping worker...")
		cancel()
	}()

	worker.Start(ctx)

	log.Println("Worker process stopped.")
}
