package adapter

import (
	"GreenSnapAPI/internal/config"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeS3 struct {
	mu        sync.Mutex
	putErrs   []error
	deleteErr error
	puts      []*s3.PutObjectInput
	deletes   []string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, params)
	if len(f.putErrs) > 0 {
		err := f.putErrs[0]
		f.putErrs = f.putErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, *params.Key)
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

func newTestStorage(client S3API) *StorageAdapter {
	return NewStorageAdapter(&config.AppConfig{
		S3Bucket:       "greensnap",
		S3Region:       "eu-west-1",
		S3PublicDomain: "https://cdn.example.com/",
	}, client)
}

func TestStorageUpload(t *testing.T) {
	fake := &fakeS3{}
	s := newTestStorage(fake)

	ref, err := s.Upload(context.Background(), pngHeader, "resolutions")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref.DeleteKey, "resolutions/"))
	assert.True(t, strings.HasSuffix(ref.DeleteKey, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+ref.DeleteKey, ref.URL)
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "image/png", *fake.puts[0].ContentType)
}

func TestStorageUploadRetriesTransientFailure(t *testing.T) {
	fake := &fakeS3{putErrs: []error{errors.New("connection reset"), nil}}
	s := newTestStorage(fake)

	_, err := s.Upload(context.Background(), pngHeader, "reports")
	require.NoError(t, err)
	assert.Len(t, fake.puts, 2)
}

func TestStorageUploadRejectsNonImage(t *testing.T) {
	fake := &fakeS3{}
	s := newTestStorage(fake)

	_, err := s.Upload(context.Background(), []byte("plain text"), "reports")
	assert.Error(t, err)
	assert.Empty(t, fake.puts)
}

func TestStorageUploadStopsOnCancelledContext(t *testing.T) {
	fake := &fakeS3{putErrs: []error{context.Canceled}}
	s := newTestStorage(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Upload(ctx, pngHeader, "reports")
	assert.Error(t, err)
	assert.Len(t, fake.puts, 1)
}

func TestStorageDelete(t *testing.T) {
	fake := &fakeS3{}
	s := newTestStorage(fake)

	require.NoError(t, s.Delete(context.Background(), "reports/a.png"))
	assert.Equal(t, []string{"reports/a.png"}, fake.deletes)

	assert.Error(t, s.Delete(context.Background(), ""))
}

func TestGetPublicURLFallsBackToBucketHost(t *testing.T) {
	s := NewStorageAdapter(&config.AppConfig{S3Bucket: "b", S3Region: "r"}, &fakeS3{})
	assert.Equal(t, "https://b.s3.r.amazonaws.com/k.png", s.GetPublicURL("k.png"))
}
