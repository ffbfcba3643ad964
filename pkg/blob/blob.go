// Package blob archives remediation clips in an S3 compatible object store.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const clipContentType = "video/mp4"

type Opts func(c *blobConfig)

type blobConfig struct {
	endpoint  string
	bucket    string
	accessKey string
	secretKey string
	useSSL    bool
}

func WithEndpoint(endpoint string) Opts {
	return func(c *blobConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) Opts {
	return func(c *blobConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) Opts {
	return func(c *blobConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) Opts {
	return func(c *blobConfig) {
		c.secretKey = secretKey
	}
}

func WithSSL(useSSL bool) Opts {
	return func(c *blobConfig) {
		c.useSSL = useSSL
	}
}

type Store struct {
	cfg    *blobConfig
	client *minio.Client
}

func New(opts ...Opts) (*Store, error) {
	cfg := &blobConfig{}
	for _, o := range opts {
		o(cfg)
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &Store{cfg: cfg, client: client}, nil
}

// Put uploads the payload under the given key.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.client.PutObject(ctx, s.cfg.bucket, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: clipContentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Get streams the archived object into dst.
func (s *Store) Get(ctx context.Context, key string, dst io.Writer) error {
	object, err := s.client.GetObject(ctx, s.cfg.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer object.Close()

	if _, err := io.Copy(dst, object); err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	return nil
}
