// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package offsite mirrors finished backup archives to S3-compatible object
// storage (AWS S3, MinIO, R2, Wasabi). Mirroring is best effort: the local
// archive is the source of truth and a failed copy never fails a backup.
package offsite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/logging"
)

const archiveContentType = "application/zip"

// ObjectAPI is the subset of the S3 client used by the mirror.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Mirror stores archive copies under a key prefix in one bucket.
type S3Mirror struct {
	client ObjectAPI
	bucket string
	prefix string
}

// New builds an S3 client from cfg. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg *config.OffsiteConfig) (*S3Mirror, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("offsite: bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("offsite: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	logging.Info().
		Str("bucket", cfg.Bucket).
		Str("prefix", cfg.Prefix).
		Str("endpoint", cfg.Endpoint).
		Msg("Off-site archive mirror enabled")

	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient creates a mirror over an existing client.
func NewWithClient(client ObjectAPI, bucket, prefix string) *S3Mirror {
	return &S3Mirror{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key for an archive name.
func (m *S3Mirror) Key(name string) string {
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

// Upload copies the archive at filePath to the bucket.
//
//nolint:gosec // G304: filePath is an archive path produced by the packager
func (m *S3Mirror) Upload(ctx context.Context, name, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("offsite: open %s: %w", name, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("offsite: stat %s: %w", name, err)
	}

	key := m.Key(name)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(archiveContentType),
	})
	if err != nil {
		return fmt.Errorf("offsite: upload %s: %w", key, err)
	}

	logging.Debug().Str("key", key).Int64("size", info.Size()).Msg("Archive mirrored off-site")
	return nil
}

// Delete removes the archive's off-site copy.
func (m *S3Mirror) Delete(ctx context.Context, name string) error {
	key := m.Key(name)
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("offsite: delete %s: %w", key, err)
	}
	return nil
}
