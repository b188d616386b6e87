package filebackend

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// NewMinIOBackend opens a pagemap.Backend over a MinIO (or any
// S3-compatible) object, mirroring it into cacheDir. If the object does
// not exist yet it is treated as an empty database.
func NewMinIOBackend(ctx context.Context, client *minio.Client, bucket, key, cacheDir string) (*cacheBackend, error) {
	f, err := openCacheFile(cacheDir, bucket, key)
	if err != nil {
		return nil, err
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("filebackend: fetching minio://%s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	if _, statErr := obj.Stat(); statErr != nil {
		if isMinIONotFound(statErr) {
			if err := downloadInto(f, nil); err != nil {
				_ = f.Close()
				return nil, err
			}
		} else {
			_ = f.Close()
			return nil, fmt.Errorf("filebackend: stat minio://%s/%s: %w", bucket, key, statErr)
		}
	} else if err := downloadInto(f, obj); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("filebackend: downloading minio://%s/%s: %w", bucket, key, err)
	}

	return &cacheBackend{
		f:        f,
		identity: "minio://" + bucket + "/" + key,
		upload: func(ctx context.Context, path string) error {
			body, err := openForUpload(path)
			if err != nil {
				return err
			}
			defer body.Close()
			fi, err := body.Stat()
			if err != nil {
				return err
			}
			_, err = client.PutObject(ctx, bucket, key, body, fi.Size(), minio.PutObjectOptions{})
			return err
		},
	}, nil
}

func isMinIONotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}
