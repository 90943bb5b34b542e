package receipt

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/zombor/receipt-pipeline/internal/scanning"
)

// S3API is the subset of the S3 client used by S3Storage
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Storage implements the Storage interface using Amazon S3
type S3Storage struct {
	client S3API
}

// NewS3Storage creates a new S3Storage instance
func NewS3Storage(client S3API) *S3Storage {
	return &S3Storage{client: client}
}

// Exists issues a HeadObject for the location
func (s *S3Storage) Exists(ctx context.Context, loc scanning.Location) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return fmt.Errorf("s3 head object failed: %w", err)
	}
	return nil
}

// Get downloads the object body
func (s *S3Storage) Get(ctx context.Context, loc scanning.Location) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("s3 get object failed: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading object body: %w", err)
	}
	return data, aws.ToString(out.ContentType), nil
}
