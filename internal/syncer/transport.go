package syncer

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	carderrors "github.com/mjbernaski/word-card/internal/errors"
	"github.com/mjbernaski/word-card/internal/snapshot"
)

// Transport reads and writes the shared snapshot for one sync medium.
type Transport interface {
	// Load fetches and decodes the shared snapshot. exists is false when
	// the snapshot has never been written; that is not an error.
	Load(ctx context.Context) (snap snapshot.Snapshot, exists bool, err error)
	// Store encodes and writes the snapshot, replacing the previous one.
	Store(ctx context.Context, snap snapshot.Snapshot) error
}

// FileTransport shares the snapshot through a file, typically inside a
// cloud-synced or LAN-mounted directory.
type FileTransport struct {
	Path string
}

func (t *FileTransport) Load(_ context.Context) (snapshot.Snapshot, bool, error) {
	return snapshot.ReadFile(t.Path)
}

func (t *FileTransport) Store(_ context.Context, snap snapshot.Snapshot) error {
	return snapshot.WriteFile(t.Path, snap)
}

// ObjectAPI is the slice of the S3 client the object transport needs.
// *s3.Client satisfies it.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Transport shares the snapshot through a single bucket object.
type S3Transport struct {
	Client ObjectAPI
	Bucket string
	Key    string
}

func (t *S3Transport) Load(ctx context.Context) (snapshot.Snapshot, bool, error) {
	out, err := t.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.Bucket),
		Key:    aws.String(t.Key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return snapshot.Snapshot{}, false, nil
		}
		return snapshot.Snapshot{}, false, carderrors.NewTransportUnavailable("s3 get "+t.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return snapshot.Snapshot{}, false, carderrors.NewTransportUnavailable("s3 read "+t.Key, err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return snapshot.Snapshot{}, true, err
	}
	return snap, true, nil
}

func (t *S3Transport) Store(ctx context.Context, snap snapshot.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}
	_, err = t.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.Bucket),
		Key:         aws.String(t.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return carderrors.NewWriteFailed("s3 put "+t.Key, err)
	}
	return nil
}
