package adapter

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of *s3.Client the storage adapter needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

const (
	storageMaxRetries = 2
	storageBaseDelay  = 200 * time.Millisecond
)

type StorageAdapter struct {
	client       S3API
	bucket       string
	region       string
	publicDomain string
}

func NewStorageAdapter(cfg *config.AppConfig, client S3API) *StorageAdapter {
	return &StorageAdapter{
		client:       client,
		bucket:       cfg.S3Bucket,
		region:       cfg.S3Region,
		publicDomain: strings.TrimRight(cfg.S3PublicDomain, "/"),
	}
}

// Upload stores data under folder and returns its public URL plus the object
// key, which doubles as the delete key.
func (s *StorageAdapter) Upload(ctx context.Context, data []byte, folder string) (entity.PhotoRef, error) {
	if s.client == nil {
		return entity.PhotoRef{}, errors.New("s3 client is not initialized")
	}

	contentType, ext, err := helper.DetectImage(data)
	if err != nil {
		return entity.PhotoRef{}, err
	}

	key := helper.ObjectKey(folder, helper.GenerateUniqueFileName(ext))

	_, err = helper.RetryWithBackoff(ctx, func(ctx context.Context) (struct{}, bool, error) {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return struct{}{}, shouldRetry(ctx, err), err
	}, storageMaxRetries, storageBaseDelay)
	if err != nil {
		return entity.PhotoRef{}, fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return entity.PhotoRef{
		URL:       s.GetPublicURL(key),
		DeleteKey: key,
	}, nil
}

func (s *StorageAdapter) Delete(ctx context.Context, deleteKey string) error {
	if s.client == nil {
		return errors.New("s3 client is not initialized")
	}
	if deleteKey == "" {
		return errors.New("delete key is empty")
	}

	_, err := helper.RetryWithBackoff(ctx, func(ctx context.Context) (struct{}, bool, error) {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(deleteKey),
		})
		return struct{}{}, shouldRetry(ctx, err), err
	}, storageMaxRetries, storageBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", deleteKey, err)
	}
	return nil
}

func (s *StorageAdapter) GetPublicURL(key string) string {
	if s.publicDomain != "" {
		return fmt.Sprintf("%s/%s", s.publicDomain, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func shouldRetry(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
