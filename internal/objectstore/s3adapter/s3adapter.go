// Package s3adapter is the production objectstore.Store implementation
// over an S3-compatible endpoint (AWS S3 or a MinIO-style deployment),
// grounded on original_source's MinIO adapter for bucket/path/presign
// shape and on the aws-sdk-go-v2 usage found elsewhere in the example
// pack.
package s3adapter

import (
	"context"
	"errors"
	"io"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/objectstore"
)

// Adapter is an objectstore.Store backed by *s3.Client.
type Adapter struct {
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
}

// Config names the connection parameters for an S3-compatible target.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseTLS    bool
	Region    string
}

// Connect builds an Adapter. A custom endpoint resolver lets Endpoint
// point at a MinIO-style deployment instead of AWS; UsePathStyle is
// always enabled since most S3-compatible targets require it.
func Connect(ctx context.Context, cfg Config) (*Adapter, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load object store config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			scheme := "https"
			if !cfg.UseTLS {
				scheme = "http"
			}
			o.BaseEndpoint = &[]string{scheme + "://" + cfg.Endpoint}[0]
		}
	})

	return &Adapter{
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  s3.NewPresignClient(client),
	}, nil
}

func (a *Adapter) Upload(ctx context.Context, bucket, path string, data io.Reader, contentType string, metadata map[string]string) (objectstore.UploadResult, error) {
	out, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &path,
		Body:        data,
		ContentType: &contentType,
		Metadata:    metadata,
	})
	if err != nil {
		if isNoSuchBucket(err) {
			return objectstore.UploadResult{}, apperr.Wrap(apperr.NotFound, "bucket not found", err)
		}
		return objectstore.UploadResult{}, apperr.Wrap(apperr.Internal, "upload object", err)
	}

	etag := ""
	if out.ETag != nil {
		etag = *out.ETag
	}
	version := ""
	if out.VersionID != nil {
		version = *out.VersionID
	}

	size := int64(0)
	if head, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &path}); err == nil && head.ContentLength != nil {
		size = *head.ContentLength
	}

	return objectstore.UploadResult{ETag: etag, Size: size, Version: version}, nil
}

func (a *Adapter) Download(ctx context.Context, bucket, path string) (io.ReadCloser, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &path})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, apperr.Wrap(apperr.NotFound, "object not found", err)
		}
		if isNoSuchBucket(err) {
			return nil, apperr.Wrap(apperr.NotFound, "bucket not found", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "download object", err)
	}
	return out.Body, nil
}

func (a *Adapter) Delete(ctx context.Context, bucket, path string) (bool, error) {
	existed, err := a.Exists(ctx, bucket, path)
	if err != nil {
		return false, err
	}
	if _, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &path}); err != nil {
		return false, apperr.Wrap(apperr.Internal, "delete object", err)
	}
	return existed, nil
}

func (a *Adapter) Exists(ctx context.Context, bucket, path string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &path})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) || isNotFound(err) {
		return false, nil
	}
	return false, apperr.Wrap(apperr.Internal, "check object existence", err)
}

func (a *Adapter) Stat(ctx context.Context, bucket, path string) (objectstore.Metadata, error) {
	out, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &path})
	if err != nil {
		if isNoSuchKey(err) || isNotFound(err) {
			return objectstore.Metadata{}, apperr.Wrap(apperr.NotFound, "object not found", err)
		}
		return objectstore.Metadata{}, apperr.Wrap(apperr.Internal, "stat object", err)
	}

	md := objectstore.Metadata{UserMetadata: out.Metadata}
	if out.ContentLength != nil {
		md.Size = *out.ContentLength
	}
	if out.ContentType != nil {
		md.ContentType = *out.ContentType
	}
	if out.ETag != nil {
		md.ETag = *out.ETag
	}
	if out.LastModified != nil {
		md.LastModified = *out.LastModified
	}
	return md, nil
}

func (a *Adapter) List(ctx context.Context, bucket, prefix string, recursive bool) ([]objectstore.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{Bucket: &bucket, Prefix: &prefix}
	if !recursive {
		delim := "/"
		input.Delimiter = &delim
	}

	var out []objectstore.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(a.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isNoSuchBucket(err) {
				return nil, apperr.Wrap(apperr.NotFound, "bucket not found", err)
			}
			return nil, apperr.Wrap(apperr.Internal, "list objects", err)
		}
		for _, obj := range page.Contents {
			info := objectstore.ObjectInfo{}
			if obj.Key != nil {
				info.Path = *obj.Key
			}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.ETag != nil {
				info.ETag = *obj.ETag
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			out = append(out, info)
		}
	}
	return out, nil
}

func (a *Adapter) PresignedReadURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	req, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &path},
		s3.WithPresignExpires(ttl))
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "presign read url", err)
	}
	return req.URL, nil
}

func (a *Adapter) CreateBucket(ctx context.Context, bucket string) error {
	if _, err := a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &bucket}); err != nil {
		return apperr.Wrap(apperr.Internal, "create bucket", err)
	}
	return nil
}

func (a *Adapter) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &bucket})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, apperr.Wrap(apperr.Internal, "check bucket existence", err)
}

func (a *Adapter) DeleteBucket(ctx context.Context, bucket string) error {
	if _, err := a.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: &bucket}); err != nil {
		return apperr.Wrap(apperr.Internal, "delete bucket", err)
	}
	return nil
}

func (a *Adapter) ListBuckets(ctx context.Context) ([]string, error) {
	out, err := a.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list buckets", err)
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		if b.Name != nil {
			names = append(names, *b.Name)
		}
	}
	return names, nil
}

func (a *Adapter) Copy(ctx context.Context, srcBucket, srcPath, dstBucket, dstPath string) error {
	source := srcBucket + "/" + srcPath
	if _, err := a.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     &dstBucket,
		Key:        &dstPath,
		CopySource: &source,
	}); err != nil {
		return apperr.Wrap(apperr.Internal, "copy object", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

func isNoSuchBucket(err error) bool {
	var nsb *types.NoSuchBucket
	return errors.As(err, &nsb)
}

func isNotFound(err error) bool {
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode() == 404
	}
	return false
}
