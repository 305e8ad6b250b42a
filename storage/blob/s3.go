package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store keeps files as objects in a single bucket. Keys are the store-relative paths.
type S3Store struct {
	client     *s3.Client
	bucketName string
}

var _ Store = (*S3Store)(nil)

// NewS3Store loads AWS configuration from the environment and targets bucketName.
func NewS3Store(ctx context.Context, bucketName, region string) (*S3Store, error) {
	cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucketName: bucketName}, nil
}

// EnsureDir is a no-op: S3 has no directories.
func (s *S3Store) EnsureDir(ctx context.Context, dir string) error {
	_, err := Clean(dir)
	return err
}

func (s *S3Store) Write(ctx context.Context, p string, r io.Reader) (int64, error) {
	key, err := Clean(p)
	if err != nil {
		return 0, err
	}

	// PutObject needs a seekable body to compute the payload hash.
	body, ok := r.(io.ReadSeeker)
	var size int64
	if ok {
		if size, err = body.Seek(0, io.SeekEnd); err != nil {
			return 0, err
		}
		if _, err = body.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
	} else {
		buf := new(bytes.Buffer)
		if size, err = buf.ReadFrom(r); err != nil {
			return 0, fmt.Errorf("failed to buffer upload: %w", err)
		}
		body = bytes.NewReader(buf.Bytes())
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload to S3: %w", err)
	}
	return size, nil
}

func (s *S3Store) Delete(ctx context.Context, p string) error {
	key, err := Clean(p)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, p string) (bool, error) {
	key, err := Clean(p)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	key, err := Clean(prefix)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}

	var keys []string
	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(key),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}
