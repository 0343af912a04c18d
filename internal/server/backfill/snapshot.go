package backfill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/itemkeeper/internal/filex"
	sc "github.com/dmitrijs2005/itemkeeper/internal/server/config"
	"github.com/google/uuid"
)

// Snapshotter persists the ids of rows about to be modified so the change
// can be audited or reverted. Save returns where the snapshot was written.
type Snapshotter interface {
	Save(ctx context.Context, ids []int64) (string, error)
}

type snapshot struct {
	TakenAt time.Time `json:"taken_at"`
	Table   string    `json:"table"`
	Column  string    `json:"column"`
	IDs     []int64   `json:"ids"`
}

func encodeSnapshot(now time.Time, ids []int64) ([]byte, error) {
	return json.MarshalIndent(snapshot{
		TakenAt: now.UTC(),
		Table:   "items",
		Column:  "description",
		IDs:     ids,
	}, "", "  ")
}

func snapshotName(now time.Time) string {
	return fmt.Sprintf("%s-%v.json", now.UTC().Format("20060102T150405Z"), uuid.New())
}

// NewSnapshotter returns an S3Snapshotter when a bucket is configured and a
// FileSnapshotter writing to cfg.SnapshotDir otherwise.
func NewSnapshotter(ctx context.Context, cfg *sc.Config) (Snapshotter, error) {
	if cfg.S3Bucket != "" {
		return NewS3Snapshotter(ctx, cfg)
	}
	return NewFileSnapshotter(cfg.SnapshotDir)
}

type FileSnapshotter struct {
	dir string
	now func() time.Time
}

func NewFileSnapshotter(dir string) (*FileSnapshotter, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &FileSnapshotter{dir: abs, now: time.Now}, nil
}

func (s *FileSnapshotter) Save(_ context.Context, ids []int64) (string, error) {
	now := s.now()
	data, err := encodeSnapshot(now, ids)
	if err != nil {
		return "", err
	}
	return filex.WriteFileAtomic(s.dir, snapshotName(now), data)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Snapshotter struct {
	bucket string
	client objectPutter
	now    func() time.Time
}

// NewS3Snapshotter builds a client for the configured S3-compatible store
// (e.g. MinIO) using static credentials.
func NewS3Snapshotter(ctx context.Context, c *sc.Config) (*S3Snapshotter, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Snapshotter{bucket: c.S3Bucket, client: client, now: time.Now}, nil
}

func (s *S3Snapshotter) Save(ctx context.Context, ids []int64) (string, error) {
	now := s.now()
	data, err := encodeSnapshot(now, ids)
	if err != nil {
		return "", err
	}

	d := now.UTC()
	key := fmt.Sprintf("backfill/%d/%d/%d/%s", d.Year(), d.Month(), d.Day(), snapshotName(now))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
