package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedPost содержит URL и поля формы для прямой загрузки в бакет
type PresignedPost struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Presigner выдает pre-signed POST политики для S3-совместимого хранилища
type S3Presigner struct {
	client *minio.Client
	bucket string
}

func NewS3Presigner(cfg S3Config) (*S3Presigner, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &S3Presigner{client: client, bucket: cfg.Bucket}, nil
}

// PresignPost подписывает загрузку одного объекта: ключ, тип содержимого,
// размер от 0 до maxSize и срок действия expiry
func (p *S3Presigner) PresignPost(ctx context.Context, key, contentType string, maxSize int64, expiry time.Duration) (*PresignedPost, error) {
	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(p.bucket); err != nil {
		return nil, err
	}
	if err := policy.SetKey(key); err != nil {
		return nil, err
	}
	if err := policy.SetExpires(time.Now().UTC().Add(expiry)); err != nil {
		return nil, err
	}
	if contentType != "" {
		if err := policy.SetContentType(contentType); err != nil {
			return nil, err
		}
	}
	if err := policy.SetContentLengthRange(0, maxSize); err != nil {
		return nil, err
	}

	u, fields, err := p.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, err
	}

	return &PresignedPost{URL: u.String(), Fields: fields}, nil
}
