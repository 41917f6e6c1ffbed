package labelcheck_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/msdawood/analyse-with-rekognition/internal/labelcheck"
	"github.com/msdawood/analyse-with-rekognition/internal/storage"
	"github.com/msdawood/analyse-with-rekognition/internal/vision"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChecker(t *testing.T, detector vision.Detector) (*labelcheck.Checker, *storage.LocalProvider) {
	t.Helper()
	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)
	return labelcheck.NewChecker(provider, detector, "car", 70), provider
}

func readResult(t *testing.T, provider *storage.LocalProvider, bucket string) labelcheck.Result {
	t.Helper()
	data, err := provider.GetObject(context.Background(), bucket, labelcheck.OutputKey)
	require.NoError(t, err)

	var result labelcheck.Result
	require.NoError(t, json.Unmarshal(data, &result))
	return result
}

func TestCheckTargetFound(t *testing.T) {
	labels := []vision.Label{
		{Name: "Car", Confidence: 95.2, Parents: []vision.Parent{{Name: "Vehicle"}}},
		{Name: "Vehicle", Confidence: 88.0},
	}
	checker, provider := setupChecker(t, &vision.StaticDetector{Labels: labels})

	result, err := checker.Check(context.Background(), "photos", "input/car1.jpg")
	require.NoError(t, err)

	assert.Equal(t, "Success! car found", result.Status)
	// Body keeps the original records, non-lowercased, nested one level.
	assert.Equal(t, [][]vision.Label{labels}, result.Body)

	written := readResult(t, provider, "photos")
	assert.Equal(t, result, written)
}

func TestCheckTargetMissing(t *testing.T) {
	checker, provider := setupChecker(t, &vision.StaticDetector{Labels: []vision.Label{
		{Name: "Tree", Confidence: 91.0},
		{Name: "Park", Confidence: 84.3},
	}})

	result, err := checker.Check(context.Background(), "photos", "input/tree.jpg")
	require.NoError(t, err)

	assert.Equal(t, "Failure! car not found", result.Status)
	assert.Len(t, result.Body, 1)

	written := readResult(t, provider, "photos")
	assert.Equal(t, result, written)
}

func TestCheckMatchIsCaseInsensitive(t *testing.T) {
	for _, name := range []string{"Car", "CAR", "car"} {
		checker, _ := setupChecker(t, &vision.StaticDetector{Labels: []vision.Label{
			{Name: name, Confidence: 90.0},
		}})

		result, err := checker.Check(context.Background(), "photos", "input/car1.jpg")
		require.NoError(t, err)
		assert.Equal(t, "Success! car found", result.Status, "label %q should match", name)
	}
}

func TestCheckNoLabels(t *testing.T) {
	checker, provider := setupChecker(t, &vision.StaticDetector{})

	result, err := checker.Check(context.Background(), "photos", "input/blank.jpg")
	require.NoError(t, err)

	assert.Equal(t, labelcheck.StatusNotFound, result.Status)
	assert.Empty(t, result.Body)

	// The output record is written even when nothing was detected.
	written := readResult(t, provider, "photos")
	assert.Equal(t, result, written)
}

func TestCheckDetectionErrorIsSwallowed(t *testing.T) {
	checker, provider := setupChecker(t, &vision.StaticDetector{Err: errors.New("service unavailable")})

	result, err := checker.Check(context.Background(), "photos", "input/car1.jpg")
	require.NoError(t, err)

	assert.Equal(t, labelcheck.StatusNotFound, result.Status)
	assert.Empty(t, result.Body)

	written := readResult(t, provider, "photos")
	assert.Equal(t, result, written)
}

func TestCheckOutputIsIndentedJSON(t *testing.T) {
	checker, provider := setupChecker(t, &vision.StaticDetector{Labels: []vision.Label{
		{Name: "Car", Confidence: 95.2},
	}})

	_, err := checker.Check(context.Background(), "photos", "input/car1.jpg")
	require.NoError(t, err)

	data, err := provider.GetObject(context.Background(), "photos", labelcheck.OutputKey)
	require.NoError(t, err)

	var result labelcheck.Result
	require.NoError(t, json.Unmarshal(data, &result))

	indented, err := json.MarshalIndent(result, "", "    ")
	require.NoError(t, err)
	assert.Equal(t, string(indented), string(data))
}

func TestCheckOutputOverwritten(t *testing.T) {
	detector := &vision.StaticDetector{Labels: []vision.Label{{Name: "Car", Confidence: 95.2}}}
	checker, provider := setupChecker(t, detector)

	_, err := checker.Check(context.Background(), "photos", "input/car1.jpg")
	require.NoError(t, err)

	detector.Labels = []vision.Label{{Name: "Tree", Confidence: 91.0}}
	_, err = checker.Check(context.Background(), "photos", "input/tree.jpg")
	require.NoError(t, err)

	written := readResult(t, provider, "photos")
	assert.Equal(t, "Failure! car not found", written.Status)
}

func TestCheckDefaultsApplied(t *testing.T) {
	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	// Zero values fall back to "car" at 70.
	checker := labelcheck.NewChecker(provider, &vision.StaticDetector{Labels: []vision.Label{
		{Name: "Car", Confidence: 71.0},
		{Name: "Wheel", Confidence: 69.0},
	}}, "", 0)

	result, err := checker.Check(context.Background(), "photos", "input/car1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "Success! car found", result.Status)
	require.Len(t, result.Body, 1)
	assert.Len(t, result.Body[0], 1)
}

type failingStore struct {
	storage.Provider
}

func (s *failingStore) PutObject(ctx context.Context, bucket, key string, data io.Reader) error {
	return errors.New("write denied")
}

func TestCheckWriteFailurePropagates(t *testing.T) {
	checker := labelcheck.NewChecker(&failingStore{}, &vision.StaticDetector{Labels: []vision.Label{
		{Name: "Car", Confidence: 95.2},
	}}, "car", 70)

	_, err := checker.Check(context.Background(), "photos", "input/car1.jpg")
	assert.Error(t, err)
}

func s3Event(bucket, key string) events.S3Event {
	return events.S3Event{
		Records: []events.S3EventRecord{
			{
				S3: events.S3Entity{
					Bucket: events.S3Bucket{Name: bucket},
					Object: events.S3Object{Key: key},
				},
			},
		},
	}
}

func TestHandleS3Event(t *testing.T) {
	checker, provider := setupChecker(t, &vision.StaticDetector{Labels: []vision.Label{
		{Name: "Car", Confidence: 95.2},
	}})

	result, err := checker.HandleS3Event(context.Background(), s3Event("photos", "input/car1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "Success! car found", result.Status)

	written := readResult(t, provider, "photos")
	assert.Equal(t, result, written)
}

func TestHandleS3EventDecodesKey(t *testing.T) {
	detector := &recordingDetector{labels: []vision.Label{{Name: "Car", Confidence: 95.2}}}
	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)
	checker := labelcheck.NewChecker(provider, detector, "car", 70)

	_, err = checker.HandleS3Event(context.Background(), s3Event("photos", "input/my+car+%281%29.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "input/my car (1).jpg", detector.key)
}

func TestHandleS3EventFirstRecordOnly(t *testing.T) {
	detector := &recordingDetector{labels: []vision.Label{{Name: "Car", Confidence: 95.2}}}
	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)
	checker := labelcheck.NewChecker(provider, detector, "car", 70)

	event := s3Event("photos", "input/first.jpg")
	event.Records = append(event.Records, s3Event("photos", "input/second.jpg").Records...)

	_, err = checker.HandleS3Event(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "input/first.jpg", detector.key)
	assert.Equal(t, 1, detector.calls)
}

func TestHandleS3EventNoRecords(t *testing.T) {
	checker, _ := setupChecker(t, &vision.StaticDetector{})

	_, err := checker.HandleS3Event(context.Background(), events.S3Event{})
	assert.Error(t, err)
}

type recordingDetector struct {
	labels []vision.Label
	bucket string
	key    string
	calls  int
}

func (d *recordingDetector) DetectLabels(ctx context.Context, bucket, key string, minConfidence float32) ([]vision.Label, error) {
	d.bucket = bucket
	d.key = key
	d.calls++
	return d.labels, nil
}
