// Package s3 reads source document images from object storage.
package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

// partSize keeps multi-part downloads efficient for large scans.
const partSize = 10 * 1024 * 1024

type Storage struct {
	client     *awss3.Client
	downloader *manager.Downloader
}

func New(client *awss3.Client) *Storage {
	return &Storage{
		client: client,
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = partSize
		}),
	}
}

// Fetch downloads one object into memory. Scanned pages are bounded in
// size by the upstream rasterizer, so buffering is fine here.
func (s *Storage) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	buffer := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buffer, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, domain.WrapError(domain.ErrObjectNotFound, "s3 download", err)
		}
		return nil, fmt.Errorf("s3 download %s/%s: %w", bucket, key, err)
	}
	return buffer.Bytes(), nil
}
