package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"civicvoice/api/internal/util"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig describes the object store used for uploaded images.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL objects are served from. Defaults to the
	// endpoint.
	PublicURL string
}

// MinioUploader stores images in a MinIO/S3 bucket.
type MinioUploader struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioUploader connects to MinIO and creates the bucket if it is missing.
func NewMinioUploader(ctx context.Context, cfg MinioConfig) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("media: created bucket %s", cfg.Bucket)
	}

	publicURL := strings.TrimSpace(cfg.PublicURL)
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &MinioUploader{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload writes the image under issues/<date>/<id><ext> and returns its URL.
func (u *MinioUploader) Upload(ctx context.Context, img Image) (string, error) {
	name := fmt.Sprintf("issues/%s/%s%s", time.Now().UTC().Format("2006-01-02"), util.NewID("img"), extensionFor(img.ContentType))
	_, err := u.client.PutObject(ctx, u.bucket, name, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: img.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", name, err)
	}
	return u.publicURL + "/" + u.bucket + "/" + name, nil
}

// Remove deletes an object by the URL Upload returned for it.
func (u *MinioUploader) Remove(ctx context.Context, location string) error {
	name, ok := strings.CutPrefix(location, u.publicURL+"/"+u.bucket+"/")
	if !ok {
		return fmt.Errorf("%s is not in bucket %s", location, u.bucket)
	}
	if err := u.client.RemoveObject(ctx, u.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", name, err)
	}
	return nil
}

func (u *MinioUploader) Ping(ctx context.Context) error {
	if _, err := u.client.BucketExists(ctx, u.bucket); err != nil {
		return fmt.Errorf("minio: %w", err)
	}
	return nil
}
