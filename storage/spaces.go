// Package storage uploads recipe and family images to an S3-compatible
// object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/familyrecipes/family-recipes-api/config"
)

// SpacesService wraps the S3 client for image uploads
type SpacesService struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewSpacesService builds the S3 client from the project config
func NewSpacesService(conf *config.Config) (*SpacesService, error) {
	endpoint := conf.S3Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", conf.S3Region)
	}
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint}, nil
	})

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(conf.S3AccessKey, conf.S3SecretKey, "")),
		awsconfig.WithRegion(conf.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load object store config: %w", err)
	}

	return &SpacesService{
		client:   s3.NewFromConfig(cfg),
		bucket:   conf.S3Bucket,
		region:   conf.S3Region,
		endpoint: endpoint,
	}, nil
}

// UploadImage stores the image under key and returns its public URL
func (s *SpacesService) UploadImage(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	key = strings.TrimPrefix(key, "/")
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
}

// DeleteImage removes a previously uploaded image
func (s *SpacesService) DeleteImage(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// GetBucket returns the configured bucket name
func (s *SpacesService) GetBucket() string {
	return s.bucket
}
