// Package archive stores a copy of every accepted signed event in an
// S3-compatible bucket for audit.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/proofofplace/internal/server/config"
)

type Archiver interface {
	// ArchiveEvent stores eventJSON and returns the object key.
	ArchiveEvent(ctx context.Context, verificationID string, eventJSON []byte) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes events under events/YYYY/MM/DD/<verification id>.json.
type S3Archiver struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

// newS3Client is a seam for tests.
var newS3Client = func(ctx context.Context, cfg *config.Config) (objectPutter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewS3Archiver(ctx context.Context, cfg *config.Config) (*S3Archiver, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3Archiver{client: client, bucket: cfg.S3Bucket, now: time.Now}, nil
}

// Key returns the object key for a verification archived at d.
func Key(verificationID string, d time.Time) string {
	d = d.UTC()
	return fmt.Sprintf("events/%04d/%02d/%02d/%s.json", d.Year(), d.Month(), d.Day(), verificationID)
}

func (a *S3Archiver) ArchiveEvent(ctx context.Context, verificationID string, eventJSON []byte) (string, error) {
	key := Key(verificationID, a.now())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(eventJSON),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put %s: %w", key, err)
	}
	return key, nil
}

type nopArchiver struct{}

func (nopArchiver) ArchiveEvent(context.Context, string, []byte) (string, error) { return "", nil }

// Nop returns an Archiver that stores nothing.
func Nop() Archiver {
	return nopArchiver{}
}
