package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Options configures an S3-compatible bucket (AWS, R2, MinIO)
type Options struct {
	Endpoint        string // empty means AWS
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	LinkExpiry      time.Duration // 0 returns plain object URLs
}

// Publisher uploads rendered files and hands back a link to them
type Publisher struct {
	opts    Options
	S3      *s3.Client
	presign *s3.PresignClient
	logger  *zap.Logger
	now     func() time.Time
}

func NewPublisher(ctx context.Context, opts Options, logger *zap.Logger) (*Publisher, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("missing storage bucket")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Publisher{
		opts:    opts,
		S3:      client,
		presign: s3.NewPresignClient(client),
		logger:  logger.With(zap.String("component", "storage")),
		now:     time.Now,
	}, nil
}

// ObjectKey is <prefix>/<yyyy-mm-dd>/<file name>
func ObjectKey(prefix string, at time.Time, localPath string) string {
	return path.Join(strings.Trim(prefix, "/"), at.UTC().Format("2006-01-02"), filepath.Base(localPath))
}

// Publish uploads localPath and returns a link to the object
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	key := ObjectKey(p.opts.Prefix, p.now(), localPath)
	if err := p.UploadFromFile(ctx, key, localPath, contentType(localPath)); err != nil {
		return "", err
	}
	p.logger.Info("published", zap.String("bucket", p.opts.Bucket), zap.String("key", key))
	return p.Link(ctx, key)
}

func (p *Publisher) UploadFromFile(ctx context.Context, key, srcPath, contentType string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer f.Close()

	_, err = p.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.opts.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put object %q: %w", key, err)
	}
	return nil
}

// Link presigns a download URL when LinkExpiry is set, otherwise it
// returns the plain object URL
func (p *Publisher) Link(ctx context.Context, key string) (string, error) {
	if p.opts.LinkExpiry <= 0 {
		return p.objectURL(key), nil
	}
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.opts.LinkExpiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign %q: %w", key, err)
	}
	return req.URL, nil
}

func (p *Publisher) objectURL(key string) string {
	if p.opts.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(p.opts.Endpoint, "/"), p.opts.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", p.opts.Bucket, key)
}

func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
