// Package sink opens report output destinations: standard output, a local
// file or an S3 object.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const Stdout = "-"

var ErrInvalidDestination = errors.New("invalid output destination")

// Uploader is the part of manager.Uploader used for S3 destinations.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type UploaderFactory func(ctx context.Context) (Uploader, error)

// DefaultUploader builds an uploader from the shared AWS configuration
// (environment, profile files, instance role).
func DefaultUploader(ctx context.Context) (Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return manager.NewUploader(s3.NewFromConfig(cfg)), nil
}

type Opener struct {
	Stdout      io.Writer
	NewUploader UploaderFactory
}

func NewOpener(stdout io.Writer) *Opener {
	return &Opener{Stdout: stdout, NewUploader: DefaultUploader}
}

// Open returns a writer for dest. Closing it finishes the write; for S3 it
// blocks until the upload completes.
func (o *Opener) Open(ctx context.Context, dest string) (io.WriteCloser, error) {
	switch {
	case dest == "" || dest == Stdout:
		return nopCloser{o.Stdout}, nil
	case strings.HasPrefix(dest, "s3://"):
		bucket, key, err := ParseS3URL(dest)
		if err != nil {
			return nil, err
		}
		uploader, err := o.NewUploader(ctx)
		if err != nil {
			return nil, err
		}
		return newS3Writer(ctx, uploader, bucket, key), nil
	default:
		f, err := os.Create(dest)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dest, err)
		}
		return f, nil
	}
}

func ParseS3URL(dest string) (bucket, key string, err error) {
	u, err := url.Parse(dest)
	if err != nil {
		return "", "", fmt.Errorf("%w %q: %v", ErrInvalidDestination, dest, err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w %q: expected s3://bucket/key", ErrInvalidDestination, dest)
	}
	return u.Host, key, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// s3Writer streams writes into a multipart upload through a pipe.
type s3Writer struct {
	pw   *io.PipeWriter
	done chan error
}

func newS3Writer(ctx context.Context, uploader Uploader, bucket, key string) *s3Writer {
	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		if err != nil {
			err = fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, key, err)
		} else {
			zerolog.Ctx(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("uploaded report")
		}
		_ = pr.CloseWithError(err)
		w.done <- err
	}()

	return w
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *s3Writer) Close() error {
	_ = w.pw.Close()
	return <-w.done
}
