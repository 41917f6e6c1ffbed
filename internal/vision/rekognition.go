package vision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionAPI is the subset of the Rekognition client the detector uses.
type RekognitionAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

type RekognitionDetector struct {
	client RekognitionAPI
}

var _ Detector = (*RekognitionDetector)(nil)

type RekognitionConfig struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

func NewRekognitionDetector(cfg *RekognitionConfig) (*RekognitionDetector, error) {
	opts := []func(*aws_config.LoadOptions) error{
		aws_config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := rekognition.NewFromConfig(awsCfg, func(o *rekognition.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
	})

	return &RekognitionDetector{client: client}, nil
}

func NewRekognitionDetectorFromConfig(awsCfg aws.Config) *RekognitionDetector {
	return &RekognitionDetector{client: rekognition.NewFromConfig(awsCfg)}
}

func NewRekognitionDetectorFromClient(client RekognitionAPI) *RekognitionDetector {
	return &RekognitionDetector{client: client}
}

func (d *RekognitionDetector) DetectLabels(ctx context.Context, bucket, key string, minConfidence float32) ([]Label, error) {
	out, err := d.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
		MinConfidence: aws.Float32(minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect labels for s3://%s/%s: %w", bucket, key, err)
	}

	return fromRekognitionLabels(out.Labels), nil
}

func fromRekognitionLabels(labels []types.Label) []Label {
	out := make([]Label, 0, len(labels))
	for _, l := range labels {
		label := Label{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		}
		for _, p := range l.Parents {
			label.Parents = append(label.Parents, Parent{Name: aws.ToString(p.Name)})
		}
		out = append(out, label)
	}
	return out
}
