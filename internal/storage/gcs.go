package storage

import (
	"context"
	"fmt"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSStore hosts generated images in a bucket behind a download-token URL.
type GCSStore struct {
	client   *storage.Client
	bucket   string
	newToken func() string
}

// NewGCSStore uses application default credentials unless credentialsFile is set.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: STORAGE_BUCKET is not set", ErrNotConfigured)
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, newToken: uuid.NewString}, nil
}

func (s *GCSStore) PutImage(ctx context.Context, data []byte, contentType, objectPath string) (string, error) {
	token := s.newToken()
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return DownloadURL(s.bucket, objectPath, token), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// DownloadURL is the tokenized media URL for an object.
func DownloadURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectPath), url.QueryEscape(token))
}
