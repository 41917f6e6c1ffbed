package vision_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msdawood/analyse-with-rekognition/internal/vision"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRekognition struct {
	input  *rekognition.DetectLabelsInput
	output *rekognition.DetectLabelsOutput
	err    error
}

func (m *mockRekognition) DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	m.input = params
	return m.output, m.err
}

func TestDetectLabels(t *testing.T) {
	mock := &mockRekognition{
		output: &rekognition.DetectLabelsOutput{
			Labels: []types.Label{
				{
					Name:       aws.String("Car"),
					Confidence: aws.Float32(95.2),
					Parents:    []types.Parent{{Name: aws.String("Vehicle")}, {Name: aws.String("Transportation")}},
				},
				{Name: aws.String("Wheel"), Confidence: aws.Float32(88.5)},
			},
		},
	}
	detector := vision.NewRekognitionDetectorFromClient(mock)

	labels, err := detector.DetectLabels(context.Background(), "photos", "input/car1.jpg", 70)
	require.NoError(t, err)

	assert.Equal(t, []vision.Label{
		{Name: "Car", Confidence: float64(float32(95.2)), Parents: []vision.Parent{{Name: "Vehicle"}, {Name: "Transportation"}}},
		{Name: "Wheel", Confidence: float64(float32(88.5))},
	}, labels)

	require.NotNil(t, mock.input)
	assert.Equal(t, "photos", aws.ToString(mock.input.Image.S3Object.Bucket))
	assert.Equal(t, "input/car1.jpg", aws.ToString(mock.input.Image.S3Object.Name))
	assert.Equal(t, float32(70), aws.ToFloat32(mock.input.MinConfidence))
}

func TestDetectLabelsError(t *testing.T) {
	detector := vision.NewRekognitionDetectorFromClient(&mockRekognition{err: errors.New("access denied")})

	_, err := detector.DetectLabels(context.Background(), "photos", "input/car1.jpg", 70)
	assert.Error(t, err)
}

func TestStaticDetectorAppliesConfidenceFloor(t *testing.T) {
	detector := &vision.StaticDetector{
		Labels: []vision.Label{
			{Name: "Car", Confidence: 95.2},
			{Name: "Bumper", Confidence: 42.0},
		},
	}

	labels, err := detector.DetectLabels(context.Background(), "photos", "input/car1.jpg", 70)
	require.NoError(t, err)
	assert.Equal(t, []vision.Label{{Name: "Car", Confidence: 95.2}}, labels)
}
