package vision

import "context"

// Label is one detected entity as returned by the vision service. Field names
// match the service response so records pass through to the output record
// unmodified.
type Label struct {
	Name       string
	Confidence float64
	Parents    []Parent `json:",omitempty"`
}

type Parent struct {
	Name string
}

type Detector interface {
	// DetectLabels returns the labels detected in the stored image, ordered by
	// confidence, excluding labels scored below minConfidence.
	DetectLabels(ctx context.Context, bucket, key string, minConfidence float32) ([]Label, error)
}
