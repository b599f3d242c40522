package s3

//go:generate go run go.uber.org/mock/mockgen -source=./s3.go -destination=./mocks/s3_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"resort/config"
	"resort/infras/otel"
	"resort/shared/constant"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

const (
	otelAttrKey    = "object_key"
	otelAttrBucket = "bucket"
	otelAttrCount  = "object_count"
)

var ErrPartialDelete = errors.New("some objects were not deleted")

// Object is an upload addressed by its key inside the configured bucket.
type Object struct {
	Key         string
	ContentType string
	Body        io.Reader
	Size        int64
}

type S3 interface {
	Put(ctx context.Context, object Object) (url string, err error)
	Remove(ctx context.Context, keys ...string) error
	KeyOf(url string) string
}

type s3Impl struct {
	client *s3.Client
	bucket string
	public string
	api    string
	otel   otel.Otel
}

func New(cfg *config.Config, otel otel.Otel) S3 {
	storage := cfg.External.S3

	awsCfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(storage.AccessKeyID, storage.SecretAccessKey, "")),
		awsConfig.WithRegion(storage.Region),
	)
	if err != nil {
		log.Err(err).Msg("Error loading AWS configuration")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if storage.APIEndpoint != "" {
			o.BaseEndpoint = aws.String(storage.APIEndpoint)
		}

		o.UsePathStyle = true
	})

	return &s3Impl{
		client: client,
		bucket: storage.BucketName,
		public: strings.TrimSuffix(storage.PublicDomain, "/"),
		api:    strings.TrimSuffix(storage.APIEndpoint, "/"),
		otel:   otel,
	}
}

// Put uploads the object and returns its public URL.
func (svc *s3Impl) Put(ctx context.Context, object Object) (url string, err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".Put")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttributes(map[string]any{
		otelAttrKey:    object.Key,
		otelAttrBucket: svc.bucket,
	})

	input := &s3.PutObjectInput{
		Bucket: aws.String(svc.bucket),
		Key:    aws.String(object.Key),
		Body:   object.Body,
	}

	if object.ContentType != "" {
		input.ContentType = aws.String(object.ContentType)
	}

	if object.Size > 0 {
		input.ContentLength = aws.Int64(object.Size)
	}

	if _, err = svc.client.PutObject(ctx, input); err != nil {
		log.Error().Err(err).Str("bucket", svc.bucket).Str("key", object.Key).Msg("failed to upload object")

		return constant.Empty, fmt.Errorf("failed to upload object: %w", err)
	}

	return svc.public + "/" + object.Key, nil
}

// Remove deletes the keys in a single batch. Keys the store refuses are
// reported through ErrPartialDelete.
func (svc *s3Impl) Remove(ctx context.Context, keys ...string) (err error) {
	if len(keys) == 0 {
		return nil
	}

	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".Remove")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttributes(map[string]any{
		otelAttrBucket: svc.bucket,
		otelAttrCount:  len(keys),
	})

	objects := make([]types.ObjectIdentifier, len(keys))
	for i, key := range keys {
		objects[i] = types.ObjectIdentifier{Key: aws.String(key)}
	}

	out, err := svc.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(svc.bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		log.Error().Err(err).Str("bucket", svc.bucket).Msg("failed to delete objects")

		return fmt.Errorf("failed to delete objects: %w", err)
	}

	for _, failed := range out.Errors {
		log.Warn().Str("key", aws.ToString(failed.Key)).Str("code", aws.ToString(failed.Code)).Msg("object not deleted")
	}

	if len(out.Errors) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPartialDelete, len(out.Errors), len(keys))
	}

	return nil
}

// KeyOf resolves the object key of a URL previously returned by Put. Both
// public-domain URLs and path-style API endpoint URLs are accepted.
func (svc *s3Impl) KeyOf(url string) string {
	var prefixes []string

	if svc.public != "" {
		prefixes = append(prefixes, svc.public+"/"+svc.bucket+"/", svc.public+"/")
	}

	if svc.api != "" {
		prefixes = append(prefixes, svc.api+"/"+svc.bucket+"/")
	}

	for _, prefix := range prefixes {
		if key, ok := strings.CutPrefix(url, prefix); ok && key != "" {
			return key
		}
	}

	return constant.Empty
}
