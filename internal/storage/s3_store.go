package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"globomart/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client used by the store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Store implements Store on an S3 bucket.
type s3Store struct {
	client  S3API
	bucket  string
	prefix  string
	baseURL string
	logger  zerolog.Logger
}

// NewS3Store creates an S3-backed store using the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, region, prefix, publicBaseURL string, logger zerolog.Logger) (Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 image store initialised")

	return NewS3StoreWithClient(s3.NewFromConfig(cfg), bucket, prefix, publicBaseURL, logger), nil
}

// NewS3StoreWithClient creates a store over an existing client.
func NewS3StoreWithClient(client S3API, bucket, prefix, publicBaseURL string, logger zerolog.Logger) Store {
	return &s3Store{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger.With().Str("component", "s3-image-store").Logger(),
	}
}

// Upload puts the object at <prefix><folder>/<uuid><ext>.
func (s *s3Store) Upload(ctx context.Context, folder, contentType string, data []byte) (model.Image, error) {
	key := s.prefix + folder + "/" + uuid.NewString() + extensionFor(contentType)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return model.Image{}, fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("image uploaded")

	return model.Image{PublicID: key, URL: s.baseURL + "/" + key}, nil
}

// Delete removes the object. A missing key is treated as already deleted.
func (s *s3Store) Delete(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil
		}
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", publicID).
			Msg("failed to delete object from S3")
		return fmt.Errorf("failed to delete object from S3 (bucket=%s, key=%s): %w", s.bucket, publicID, err)
	}
	return nil
}
