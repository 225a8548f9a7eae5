package objectstore

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

type s3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

var _ core.ObjectStore = (*s3Store)(nil) // interface compliance check

// loadAWSConfig points the SDK to endpoint (MinIO, LocalStack...) when set.
func loadAWSConfig(ctx context.Context, region, endpoint string) (aws.Config, error) {
	if endpoint == "" {
		return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	}
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, r string, _ ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint, HostnameImmutable: true, PartitionID: "aws"}, nil
	})
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region), awsconfig.WithEndpointResolverWithOptions(resolver))
}

// NewS3Store stores documents in the configured S3 bucket.
func NewS3Store(ctx context.Context, conf *core.Config) (*s3Store, error) {
	cfg, err := loadAWSConfig(ctx, conf.Storage.Region, conf.Storage.Endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Storage.Endpoint != "" {
			o.UsePathStyle = true
		}
	})
	return &s3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    conf.Storage.Bucket,
	}, nil
}

func (store *s3Store) Upload(ctx context.Context, path, contentType string, body io.Reader, size int64) error {
	_, err := store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(store.bucket),
		Key:           aws.String(path),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	return errors.Wrap(err, "putting object")
}

func (store *s3Store) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	req, err := store.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(path),
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", errors.Wrap(err, "presigning object")
	}
	return req.URL, nil
}
