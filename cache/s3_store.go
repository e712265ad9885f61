package cache

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/aristath/chapaty/cerrors"
)

// S3Store persists cache entries as objects in a single S3 bucket, one
// object per key under an optional prefix. It is the cache's durable,
// shared backend for multi-machine grid runs (spec §6 "cache backends") —
// the teacher's go.mod already carries the aws-sdk-go-v2 S3 stack, unused
// by any teacher binary; this is its first wired caller.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Credentials optionally overrides the default AWS credential chain with
// static access keys (e.g. read from bootstrap.Config).
type S3Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// NewS3Store builds an S3Store for bucket in region, with keys namespaced
// under prefix. If creds is the zero value, the default AWS credential
// chain (environment, shared config, IMDS) is used.
func NewS3Store(ctx context.Context, bucket, region, prefix string, creds S3Credentials) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if creds.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, cerrors.WrapIoError(cerrors.IoObjectStoreBuild, "failed to load AWS config", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var notFound *s3types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, cerrors.WrapIoError(cerrors.IoIO, "failed to fetch S3 cache entry", err)
	}
	defer out.Body.Close()

	r := bufio.NewReaderSize(out.Body, defaultBufferSize)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, cerrors.WrapIoError(cerrors.IoIO, "failed to read S3 cache entry", err)
	}
	return data, true, nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	uploader := manager.NewUploader(s.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return cerrors.WrapIoError(cerrors.IoIO, "failed to upload S3 cache entry", err)
	}
	return nil
}
