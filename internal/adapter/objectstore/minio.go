package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/niksmo/e-label/internal/core/port"
)

var _ port.ImageCache = (*ImageCache)(nil)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

func (c Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("objectstore endpoint is required")
	case c.AccessKey == "" || c.SecretKey == "":
		return errors.New("objectstore credentials are required")
	case c.Bucket == "":
		return errors.New("objectstore bucket is required")
	}
	return nil
}

// An ImageCache keeps rendered label images in an S3 compatible bucket.
type ImageCache struct {
	cl     *minio.Client
	bucket string
}

// NewImageCache connects to the object store and creates the bucket when
// it is missing.
func NewImageCache(ctx context.Context, cfg Config) (*ImageCache, error) {
	const op = "NewImageCache"

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := ensureBucket(ctx, cl, cfg.Bucket, cfg.Region); err != nil {
		return nil, fmt.Errorf("%s: ensure bucket: %w", op, err)
	}
	return &ImageCache{cl: cl, bucket: cfg.Bucket}, nil
}

func (c *ImageCache) ReadImage(
	ctx context.Context, key string,
) ([]byte, bool, error) {
	const op = "ImageCache.ReadImage"

	obj, err := c.cl.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return data, true, nil
}

func (c *ImageCache) StoreImage(
	ctx context.Context, key string, data []byte, contentType string,
) error {
	const op = "ImageCache.StoreImage"

	_, err := c.cl.PutObject(
		ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: "public, max-age=86400",
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

func ensureBucket(ctx context.Context, cl *minio.Client, bucket, region string) error {
	exists, err := cl.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return cl.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
