package uploads

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// MinioStore keeps uploads in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

var _ Store = (*MinioStore)(nil)

func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

func (s *MinioStore) Save(ctx context.Context, category, name string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, category+"/"+name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return errors.WithStack(err)
}

func (s *MinioStore) URL(category, name string) string {
	return s.client.EndpointURL().String() + "/" + s.bucket + "/" + category + "/" + name
}
