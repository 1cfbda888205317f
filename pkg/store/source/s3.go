package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

// ObjectGetter is the subset of the S3 client the loader needs
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Loader struct {
	client ObjectGetter
}

// NewS3Loader creates a loader backed by the default AWS credential chain.
func NewS3Loader(ctx context.Context) (Loader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3LoaderWithClient(s3.NewFromConfig(cfg)), nil
}

func NewS3LoaderWithClient(client ObjectGetter) Loader {
	return &s3Loader{client: client}
}

// Load downloads s3://bucket/key and parses it as parquet when the key ends
// in .parquet, as CSV otherwise.
func (l *s3Loader) Load(ctx context.Context, spec domain.SourceSpec) (domain.Frame, error) {
	bucket, key, err := parseS3URL(spec.Path)
	if err != nil {
		return domain.Frame{}, err
	}

	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return domain.Frame{}, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer func() {
		if err := out.Body.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to close s3 object body")
		}
	}()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}

	if strings.EqualFold(path.Ext(key), ".parquet") {
		return ReadParquetBytes(ctx, data, spec.Columns)
	}
	return ReadCSV(ctx, bytes.NewReader(data), spec.Columns)
}

func parseS3URL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 url %q: %w", raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 url %q: expected s3://bucket/key", raw)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid s3 url %q: missing key", raw)
	}
	return u.Host, key, nil
}
