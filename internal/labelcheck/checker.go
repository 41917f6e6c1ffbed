package labelcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msdawood/analyse-with-rekognition/internal/storage"
	"github.com/msdawood/analyse-with-rekognition/internal/vision"
)

const (
	DefaultTargetLabel   = "car"
	DefaultMinConfidence = 70

	// OutputKey is the fixed destination in the source bucket. Overwritten on
	// every invocation, last writer wins.
	OutputKey = "output/response.json"

	StatusNotFound = "Not Found"
)

// Result is the record written to OutputKey after every invocation. Body
// holds the raw label records nested one level: the whole list is appended as
// a single element, so the output serializes as {"Status": ..., "body": [[...]]}.
// Consumers of output/response.json rely on that shape.
type Result struct {
	Status string
	Body   [][]vision.Label `json:"body"`
}

// Checker runs label detection for stored images and persists the outcome.
// Stateless; safe for concurrent use.
type Checker struct {
	store         storage.Provider
	detector      vision.Detector
	target        string
	minConfidence float32
}

func NewChecker(store storage.Provider, detector vision.Detector, target string, minConfidence float32) *Checker {
	if target == "" {
		target = DefaultTargetLabel
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	return &Checker{
		store:         store,
		detector:      detector,
		target:        strings.ToLower(target),
		minConfidence: minConfidence,
	}
}

func (c *Checker) SuccessStatus() string {
	return fmt.Sprintf("Success! %s found", c.target)
}

func (c *Checker) FailureStatus() string {
	return fmt.Sprintf("Failure! %s not found", c.target)
}

// Matched reports whether the result carries the success status.
func (c *Checker) Matched(result Result) bool {
	return result.Status == c.SuccessStatus()
}

// Check runs label detection against the stored image and writes the result
// as indented JSON to OutputKey in the same bucket. A detection failure is
// logged and degrades to the default result; the write happens regardless. A
// failed write is returned to the caller and fails the invocation.
func (c *Checker) Check(ctx context.Context, bucket, key string) (Result, error) {
	result := Result{Status: StatusNotFound}

	labels, err := c.detector.DetectLabels(ctx, bucket, key, c.minConfidence)
	if err != nil {
		slog.Error("label detection failed", "bucket", bucket, "key", key, "error", err)
	} else if len(labels) > 0 {
		result.Status = c.FailureStatus()
		for _, label := range labels {
			if strings.ToLower(label.Name) == c.target {
				result.Status = c.SuccessStatus()
				break
			}
		}
		result.Body = append(result.Body, labels)
	}

	data, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return result, fmt.Errorf("failed to marshal result for s3://%s/%s: %w", bucket, key, err)
	}

	if err := c.store.PutObject(ctx, bucket, OutputKey, bytes.NewReader(data)); err != nil {
		return result, fmt.Errorf("failed to write result to s3://%s/%s: %w", bucket, OutputKey, err)
	}

	slog.Info("label check complete", "bucket", bucket, "key", key, "status", result.Status)

	return result, nil
}
