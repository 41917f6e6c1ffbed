package main

import (
	"context"
	"log"
	"os"

	"github.com/msdawood/analyse-with-rekognition/internal/labelcheck"
	"github.com/msdawood/analyse-with-rekognition/internal/storage"
	"github.com/msdawood/analyse-with-rekognition/internal/vision"

	"github.com/aws/aws-lambda-go/lambda"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
)

func main() {
	awsCfg, err := aws_config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}

	// TARGET_LABEL is optional; the checker defaults to "car" at a 70%
	// confidence floor.
	checker := labelcheck.NewChecker(
		storage.NewS3ProviderFromConfig(awsCfg),
		vision.NewRekognitionDetectorFromConfig(awsCfg),
		os.Getenv("TARGET_LABEL"),
		0,
	)

	lambda.Start(checker.HandleS3Event)
}
