package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// StorageAdapter provides blob storage operations using Google Cloud Storage.
type StorageAdapter struct {
	Client *storage.Client
}

func (a *StorageAdapter) Write(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	wc := a.Client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if contentType != "" {
		wc.ContentType = contentType
	}
	if _, err := wc.Write(data); err != nil {
		return err
	}
	return wc.Close()
}

func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// SignedURL returns a V4 GET URL with a bounded expiration so transient
// credentials are never leaked past the configured TTL.
func (a *StorageAdapter) SignedURL(bucketName, objectName string, ttl time.Duration) (string, error) {
	url, err := a.Client.Bucket(bucketName).SignedURL(objectName, &storage.SignedURLOptions{
		Method:  "GET",
		Scheme:  storage.SigningSchemeV4,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("signed url for gs://%s/%s: %w", bucketName, objectName, err)
	}
	return url, nil
}
