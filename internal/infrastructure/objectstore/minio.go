package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrUnsupportedRef = errors.New("objectstore: unsupported document reference")

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Region is fixed so presigning never needs a bucket-location round trip.
	Region string
	Expiry time.Duration
}

// MinioSigner turns stored document references into short-lived download URLs.
// References look like s3://<bucket>/<object>; http(s) references pass through untouched.
type MinioSigner struct {
	client *minio.Client
	cfg    MinioConfig
}

func NewMinioSigner(cfg MinioConfig) (*MinioSigner, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 15 * time.Minute
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioSigner{client: client, cfg: cfg}, nil
}

// ParseRef splits s3://bucket/object.
func ParseRef(ref string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedRef, ref)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedRef, ref)
	}
	return bucket, object, nil
}

func (s *MinioSigner) SignedURL(ctx context.Context, ref, fileName string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	bucket, object, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	params := url.Values{}
	if fileName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, object, s.cfg.Expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", ref, err)
	}
	return u.String(), nil
}
