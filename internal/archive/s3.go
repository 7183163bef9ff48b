// Package archive snapshots generated schedule reports to object storage so
// monthly cost reviews can reference the figures a decision was made on.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archiver uploads report JSON to object storage.
type Archiver interface {
	ArchiveReport(ctx context.Context, projectID uuid.UUID, kind string, report interface{}) error
}

// NopArchiver discards reports. Used when no bucket is configured.
type NopArchiver struct{}

func (NopArchiver) ArchiveReport(ctx context.Context, projectID uuid.UUID, kind string, report interface{}) error {
	return nil
}

// S3Archiver writes report snapshots to S3 paths like:
//
//	s3://<bucket>/<prefix>/reports/YYYY/MM/DD/<projectID>-<kind>.json
type S3Archiver struct {
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

// NewS3Archiver creates an S3Archiver. Region and credentials come from the
// environment (AWS_REGION, AWS_PROFILE, AWS_ACCESS_KEY_ID/SECRET etc.).
func NewS3Archiver(ctx context.Context, bucket, prefix string) (*S3Archiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Archiver{
		bucket:   bucket,
		prefix:   prefix,
		uploader: manager.NewUploader(client),
	}, nil
}

// ArchiveReport marshals the report and uploads it under a date-partitioned key.
func (a *S3Archiver) ArchiveReport(ctx context.Context, projectID uuid.UUID, kind string, report interface{}) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal %s report: %w", kind, err)
	}

	now := time.Now().UTC()
	key := path.Join(a.prefix, "reports", now.Format("2006/01/02"),
		fmt.Sprintf("%s-%s.json", projectID, kind))

	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload %s report: %w", key, err)
	}
	return nil
}
