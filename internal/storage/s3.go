package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Options configures the S3 client. Empty credentials fall back to the
// default AWS credential chain.
type Options struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Client wraps the AWS S3 client with upload, presign and download helpers.
type S3Client struct {
	client     *s3.Client
	uploader   *manager.Uploader
	presign    *s3.PresignClient
	bucketName string
}

// NewS3Client creates a new S3 client
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Client{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		presign:    s3.NewPresignClient(cli),
		bucketName: bucketName(opts.Bucket),
	}, nil
}

func bucketName(b string) string { return strings.TrimPrefix(strings.TrimSuffix(b, "/"), "s3://") }

// Bucket returns the configured bucket.
func (s *S3Client) Bucket() string { return s.bucketName }

// UploadFile streams the local file at path to key.
func (s *S3Client) UploadFile(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
		Metadata:    map[string]string{"name": filepath.Base(path)},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Info().Str("bucket", s.bucketName).Str("key", key).Msg("uploaded file to S3")
	return nil
}

// PresignGet returns a GET URL for key valid for ttl.
func (s *S3Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign: %w", err)
	}
	return req.URL, nil
}

// DownloadToFile copies bucket/key into a new temp file matching pattern and
// returns its path. An empty bucket means the configured one.
func (s *S3Client) DownloadToFile(ctx context.Context, bucket, key, pattern string) (string, error) {
	if bucket == "" {
		bucket = s.bucketName
	}
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	n, err := io.Copy(f, result.Body)
	if err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to read S3 object: %w", err)
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Int64("size", n).Msg("downloaded S3 object")
	return f.Name(), nil
}

// HeadBucket checks that the configured bucket is reachable.
func (s *S3Client) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err
}

// ParseURL splits s3://bucket/key.
func ParseURL(u string) (bucket, key string, err error) {
	path := strings.TrimPrefix(u, "s3://")
	slash := strings.Index(path, "/")
	if !strings.HasPrefix(u, "s3://") || slash <= 0 || slash == len(path)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", u)
	}
	return path[:slash], path[slash+1:], nil
}
