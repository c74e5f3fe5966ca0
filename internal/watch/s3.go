package watch

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mjbernaski/word-card/internal/clock"
	"github.com/mjbernaski/word-card/internal/logging"
)

// HeadObjectAPI is the slice of the S3 client this watcher needs.
// *s3.Client satisfies it.
type HeadObjectAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Watcher polls object metadata and reports a change whenever the ETag
// moves. S3 offers no push notification a client like this can consume, so
// metadata polling is the change primitive.
type S3Watcher struct {
	client   HeadObjectAPI
	bucket   string
	key      string
	interval time.Duration
	clk      clock.Clock
	log      logging.Logger
}

func NewS3Watcher(client HeadObjectAPI, bucket, key string, interval time.Duration, clk clock.Clock, log logging.Logger) *S3Watcher {
	return &S3Watcher{client: client, bucket: bucket, key: key, interval: interval, clk: clk, log: log}
}

func (w *S3Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	out := make(chan Change, 1)

	var lastETag string
	if head, err := w.head(ctx); err == nil {
		lastETag = aws.ToString(head.ETag)
	}

	go func() {
		defer close(out)
		ticker := w.clk.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				head, err := w.head(ctx)
				if err != nil {
					var nf *types.NotFound
					if !errors.As(err, &nf) {
						w.log.Warn(ctx, "s3 head failed", "bucket", w.bucket, "key", w.key, "error", err)
					}
					continue
				}
				etag := aws.ToString(head.ETag)
				if etag == lastETag {
					continue
				}
				lastETag = etag
				ch := Change{Path: w.key, Source: "s3"}
				if head.LastModified != nil {
					ch.ModTime = *head.LastModified
				}
				select {
				case out <- ch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (w *S3Watcher) head(ctx context.Context) (*s3.HeadObjectOutput, error) {
	return w.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
	})
}
