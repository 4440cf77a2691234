// Package storage keeps rendered documents either in an S3 compatible bucket
// or, when no endpoint is configured, on the local filesystem.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"talent/internal/platform/config"
)

// Store saves an object and returns a URL or path it can be fetched from.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// New picks the bucket store when STORAGE_ENDPOINT is set.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	if strings.TrimSpace(cfg.StorageEndpoint) == "" {
		return NewLocal(cfg.CertificateDir), nil
	}
	return NewObjectStore(ctx, cfg.StorageEndpoint, cfg.StoragePublicURL, cfg.StorageAccessKey, cfg.StorageSecretKey, cfg.StorageBucket)
}

type ObjectStore struct {
	cli       *minio.Client
	bucket    string
	publicURL string
}

func newMinioClient(address, accessKey, secretKey string) (*minio.Client, error) {
	endpoint := address
	secure := false

	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		u, err := url.Parse(address)
		if err != nil {
			return nil, err
		}
		if u.Path != "" && u.Path != "/" {
			return nil, errors.New("storage endpoint cannot have a path")
		}
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
}

// NewObjectStore connects and creates the bucket if it is missing.
func NewObjectStore(ctx context.Context, endpoint, publicURL, accessKey, secretKey, bucket string) (*ObjectStore, error) {
	cli, err := newMinioClient(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	if publicURL == "" {
		publicURL = cli.EndpointURL().String()
	}
	return &ObjectStore{cli: cli, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (o *ObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := o.cli.PutObject(ctx, o.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return objectURL(o.publicURL, o.bucket, key), nil
}

func objectURL(base, bucket, key string) string {
	return base + "/" + bucket + "/" + url.PathEscape(key)
}

// Local writes objects under a directory.
type Local struct {
	Dir string
}

func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

func (l *Local) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	name := filepath.Base(key)
	if name == "." || name == string(filepath.Separator) || name != key {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(l.Dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
