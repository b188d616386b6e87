package filebackend

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// NewS3Backend opens a pagemap.Backend over an S3 object, mirroring it
// into cacheDir. If the object does not exist yet it is treated as an
// empty database; Sync/Close create it on first upload.
func NewS3Backend(ctx context.Context, client *s3.Client, bucket, key, cacheDir string) (*cacheBackend, error) {
	f, err := openCacheFile(cacheDir, bucket, key)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		defer out.Body.Close()
		if err := downloadInto(f, out.Body); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("filebackend: downloading s3://%s/%s: %w", bucket, key, err)
		}
	case isS3NotFound(err):
		if err := downloadInto(f, nil); err != nil {
			_ = f.Close()
			return nil, err
		}
	default:
		_ = f.Close()
		return nil, fmt.Errorf("filebackend: fetching s3://%s/%s: %w", bucket, key, err)
	}

	return &cacheBackend{
		f:        f,
		identity: "s3://" + bucket + "/" + key,
		upload: func(ctx context.Context, path string) error {
			body, err := openForUpload(path)
			if err != nil {
				return err
			}
			defer body.Close()
			_, err = client.PutObject(ctx, &s3.PutObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
				Body:   body,
			})
			return err
		},
	}, nil
}

func isS3NotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}
