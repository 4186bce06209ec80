package remote

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// KeyPrefix is where uploaded tribute media lives in the bucket.
const KeyPrefix = "tributes/"

// Blobs is the hosted blob area.
type Blobs interface {
	Bucket() string
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	// PublicURL resolves the public address of key. PublicURL("") is the
	// common prefix of every object URL.
	PublicURL(key string) string
}

// StorageKey builds a collision-resistant object key:
// tributes/<unix-ms>-<random>.<ext>
func StorageKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." {
		ext = ".bin"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s%d-%s%s", KeyPrefix, now.UnixMilli(), random, ext)
}

type MinioBlobs struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioBlobs connects to an S3-compatible endpoint. endpoint may carry
// an http(s) scheme; publicBase defaults to the endpoint itself.
func NewMinioBlobs(endpoint, accessKey, secretKey, bucket, publicBase string) (*MinioBlobs, error) {
	secure := true
	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
		secure = u.Scheme != "http"
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	if publicBase == "" {
		scheme := "https"
		if !secure {
			scheme = "http"
		}
		publicBase = scheme + "://" + host
	}
	return &MinioBlobs{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

func (b *MinioBlobs) Bucket() string { return b.bucket }

func (b *MinioBlobs) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

func (b *MinioBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if size <= 0 {
		size = -1
	}
	_, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (b *MinioBlobs) Remove(ctx context.Context, key string) error {
	return b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{})
}

func (b *MinioBlobs) PublicURL(key string) string {
	return b.publicBase + "/" + b.bucket + "/" + key
}

// absoluteURL reports whether s is a fully qualified http(s) URL.
func absoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
