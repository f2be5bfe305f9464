package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/config"
	"github.com/Surya12v/project-s/emi-backend/internal/service"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ReportPrefix is the key prefix under which batch summaries are archived
const ReportPrefix = "reports/emi-batch"

// s3API is the subset of *s3.Client the report repository uses
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ReportRepository archives batch summaries as JSON objects in S3
type S3ReportRepository struct {
	client s3API
	bucket string
	now    func() time.Time
}

// Ensure S3ReportRepository implements service.BatchReportStore
var _ service.BatchReportStore = (*S3ReportRepository)(nil)

// NewS3ReportRepository creates a new S3 report repository
func NewS3ReportRepository(ctx context.Context, s3cfg config.S3Config) (*S3ReportRepository, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s3cfg.Region),
	}

	// Static credentials only when both halves are set; otherwise the default chain applies
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3cfg.AccessKeyID,
				s3cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Endpoint override for LocalStack and other S3-compatible stores
	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	repo := newS3ReportRepository(client, s3cfg.Bucket)
	if err := repo.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func newS3ReportRepository(client s3API, bucket string) *S3ReportRepository {
	return &S3ReportRepository{
		client: client,
		bucket: bucket,
		now:    time.Now,
	}
}

// ensureBucket creates the bucket if it doesn't exist. The bucket stays private.
func (r *S3ReportRepository) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket (may be permission denied): %w", err)
	}

	_, err = r.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// SaveReport uploads the summary and returns its object key
func (r *S3ReportRepository) SaveReport(ctx context.Context, summary *service.BatchSummary) (string, error) {
	if summary == nil {
		return "", errors.New("nil batch summary")
	}

	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode batch summary: %w", err)
	}

	key := ReportKey(summary.RunDate, r.now())
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload batch report: %w", err)
	}

	return key, nil
}

// ReportKey builds reports/emi-batch/<runDate>/<unix-nanos>.json so reruns never overwrite
func ReportKey(runDate string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d.json", ReportPrefix, runDate, at.UTC().UnixNano())
}
