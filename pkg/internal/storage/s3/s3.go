// Package s3 封装 MinIO 客户端，为资料附件提供对象存储能力.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/studyvault/pkg/configs"
	nlog "github.com/yeisme/studyvault/pkg/log"
)

// Client 包装 MinIO 客户端和默认存储桶.
type Client struct {
	*minio.Client
	bucket string
}

// New 创建 S3 客户端并确保默认存储桶存在.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	client := &Client{Client: mc, bucket: cfg.BucketName}

	if err := client.EnsureBucket(ctx, cfg.BucketName); err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.BucketName).
		Msg("s3 storage connected")

	return client, nil
}

// Bucket 返回默认存储桶名称.
func (c *Client) Bucket() string {
	return c.bucket
}

// EnsureBucket 确保存储桶存在，不存在则创建.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}

	if !exists {
		if err := c.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return nil
}

// Upload 上传对象到默认存储桶.
func (c *Client) Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	_, err := c.PutObject(ctx, c.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}

	return nil
}

// Download 获取对象读取流，调用方负责关闭.
func (c *Client) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := c.GetObject(ctx, c.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectKey, err)
	}

	return obj, nil
}

// Remove 删除对象.
func (c *Client) Remove(ctx context.Context, objectKey string) error {
	return c.RemoveObject(ctx, c.bucket, objectKey, minio.RemoveObjectOptions{})
}

// PresignedGet 生成限时下载 URL.
func (c *Client) PresignedGet(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := c.PresignedGetObject(ctx, c.bucket, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", objectKey, err)
	}

	return u.String(), nil
}

// HealthCheck 检查 S3 连通性.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.BucketExists(ctx, c.bucket); err != nil {
		return fmt.Errorf("s3 health check failed: %w", err)
	}

	return nil
}
