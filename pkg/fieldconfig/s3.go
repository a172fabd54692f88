package fieldconfig

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxDocumentSize bounds a remote field document.
const maxDocumentSize = 1 << 20

// GetObjectAPI is the subset of the S3 client used by S3Source.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures an S3Source.
type S3Options struct {
	// URL is "s3://bucket/key".
	URL string
	// Region overrides the SDK default.
	Region string
	// Endpoint overrides the S3 endpoint and switches to path-style
	// addressing.
	Endpoint string
	// CacheTTL is how long a fetched document is reused.
	CacheTTL time.Duration
}

// S3Source reads a field document from an S3 object.
type S3Source struct {
	client GetObjectAPI
	bucket string
	key    string
	cache  *cachedLoader
}

// NewS3Source builds an S3 client from the default AWS credential chain.
func NewS3Source(ctx context.Context, opts S3Options) (*S3Source, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3SourceWithClient(client, opts)
}

// NewS3SourceWithClient uses an existing client.
func NewS3SourceWithClient(client GetObjectAPI, opts S3Options) (*S3Source, error) {
	bucket, key, err := splitObjectURL(opts.URL)
	if err != nil {
		return nil, err
	}
	s := &S3Source{client: client, bucket: bucket, key: key}
	logger := slog.Default().With("component", "fieldconfig.s3", "bucket", bucket, "key", key)
	s.cache = newCachedLoader(opts.CacheTTL, logger, s.fetch)
	return s, nil
}

// Load returns the cached document, fetching it when the TTL has expired.
func (s *S3Source) Load(ctx context.Context) (Config, error) {
	return s.cache.load(ctx)
}

// Name returns "s3".
func (s *S3Source) Name() string { return "s3" }

func (s *S3Source) fetch(ctx context.Context) (Config, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return Config{}, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxDocumentSize+1))
	if err != nil {
		return Config{}, fmt.Errorf("read s3://%s/%s: %w", s.bucket, s.key, err)
	}
	if len(data) > maxDocumentSize {
		return Config{}, fmt.Errorf("s3://%s/%s exceeds %d bytes", s.bucket, s.key, maxDocumentSize)
	}
	return Parse(data)
}

// splitObjectURL splits "s3://bucket/key" into its parts.
func splitObjectURL(objectURL string) (string, string, error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 url %q: %w", objectURL, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("s3 url %q must use the s3:// scheme", objectURL)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in s3 url %v", objectURL)
	}
	if key == "" {
		return "", "", fmt.Errorf("missing key in s3 url %v", objectURL)
	}
	return bucket, key, nil
}
