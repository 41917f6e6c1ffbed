package vision

import "context"

// StaticDetector returns a fixed label list, applying the same confidence
// floor the managed service would. Used by local mode and tests.
type StaticDetector struct {
	Labels []Label
	Err    error
}

var _ Detector = (*StaticDetector)(nil)

func (d *StaticDetector) DetectLabels(ctx context.Context, bucket, key string, minConfidence float32) ([]Label, error) {
	if d.Err != nil {
		return nil, d.Err
	}

	var out []Label
	for _, label := range d.Labels {
		if label.Confidence >= float64(minConfidence) {
			out = append(out, label)
		}
	}
	return out, nil
}
