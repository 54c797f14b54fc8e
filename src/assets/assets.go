package assets

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"git.hoosierptk.dev/forums/forums/src/config"
	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/perf"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/jpillora/backoff"
)

var client *s3.Client

func init() {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				config.Config.S3.AccessKeyID,
				config.Config.S3.SecretAccessKey,
				"",
			),
		),
		awsconfig.WithRegion(config.Config.S3.Region),
		awsconfig.WithEndpointResolver(aws.EndpointResolverFunc(func(service, region string) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL: config.Config.S3.Endpoint,
			}, nil
		})),
	)
	if err != nil {
		panic(err)
	}
	client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = config.Config.S3.UsePathStyle
	})
}

type CreateInput struct {
	Content     []byte
	Filename    string
	ContentType string

	// Optional params
	UploaderID    *int
	Width, Height int
}

var REIllegalFilenameChars = regexp.MustCompile(`[^\w\-.]`)

func SanitizeFilename(filename string) string {
	if filename == "" {
		return "unnamed"
	}
	return REIllegalFilenameChars.ReplaceAllString(filename, "_")
}

// AssetKey is the S3 object key for an asset. The configured path prefix
// keeps dev and live objects apart when they share a bucket.
func AssetKey(id, filename string) string {
	prefix := strings.Trim(config.Config.S3.AssetsPathPrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s", id, filename)
	}
	return fmt.Sprintf("%s/%s/%s", prefix, id, filename)
}

var ErrInvalidAsset = errors.New("invalid asset")

func Create(ctx context.Context, dbConn db.ConnOrTx, in CreateInput) (*models.Asset, error) {
	filename := SanitizeFilename(in.Filename)

	if len(in.Content) == 0 {
		return nil, fmt.Errorf("%w: could not upload asset '%s': no bytes of data were provided", ErrInvalidAsset, filename)
	}
	if in.ContentType == "" {
		return nil, fmt.Errorf("%w: could not upload asset '%s': no content type provided", ErrInvalidAsset, filename)
	}

	id := uuid.New()
	key := AssetKey(id.String(), filename)
	checksum := fmt.Sprintf("%x", sha1.Sum(in.Content))

	err := upload(ctx, key, in.ContentType, in.Content)
	if err != nil {
		return nil, err
	}

	asset, err := db.QueryOne[models.Asset](ctx, dbConn,
		`
		INSERT INTO asset (id, s3_key, filename, size, mime_type, sha1sum, width, height, uploader_id)
		VALUES            ($1, $2,     $3,       $4,   $5,        $6,      $7,    $8,     $9)
		RETURNING $columns
		`,
		id,
		key,
		filename,
		len(in.Content),
		in.ContentType,
		checksum,
		in.Width,
		in.Height,
		in.UploaderID,
	)
	if err != nil {
		return nil, oops.New(err, "failed to save asset record")
	}

	return asset, nil
}

func upload(ctx context.Context, key, contentType string, content []byte) error {
	p := perf.ExtractPerf(ctx)
	defer p.StartBlock("S3", "Upload asset").End()

	put := func() error {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &config.Config.S3.Bucket,
			Key:         &key,
			Body:        bytes.NewReader(content),
			ACL:         types.ObjectCannedACLPublicRead,
			ContentType: &contentType,
		})
		return err
	}

	err := put()
	if err != nil {
		if isNoSuchBucket(err) {
			if err := createBucket(ctx); err != nil {
				return err
			}
			if err := put(); err != nil {
				return oops.New(err, "failed to upload asset")
			}
			return nil
		}
		return oops.New(err, "failed to upload asset")
	}
	return nil
}

func isNoSuchBucket(err error) bool {
	var apiError smithy.APIError
	return errors.As(err, &apiError) && apiError.ErrorCode() == "NoSuchBucket"
}

func createBucket(ctx context.Context) error {
	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: &config.Config.S3.Bucket,
	})
	if err != nil {
		var apiError smithy.APIError
		if errors.As(err, &apiError) && apiError.ErrorCode() == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return oops.New(err, "failed to create assets bucket")
	}
	return nil
}

// EnsureBucket makes sure the assets bucket exists, retrying while the S3
// endpoint comes up. In dev the endpoint is the local S3 server, which starts
// alongside the website.
func EnsureBucket(ctx context.Context, timeout time.Duration) error {
	log := logging.ExtractLogger(ctx)
	b := backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
	}
	deadline := time.Now().Add(timeout)

	for {
		_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: &config.Config.S3.Bucket,
		})
		if err == nil {
			return nil
		}

		var apiError smithy.APIError
		if errors.As(err, &apiError) && (apiError.ErrorCode() == "NotFound" || apiError.ErrorCode() == "NoSuchBucket") {
			return createBucket(ctx)
		}

		if time.Now().After(deadline) {
			return oops.New(err, "gave up waiting for the assets bucket")
		}
		wait := b.Duration()
		log.Warn().Err(err).Dur("retry_in", wait).Msg("assets bucket not reachable yet")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func FetchAsset(ctx context.Context, dbConn db.ConnOrTx, id uuid.UUID) (*models.Asset, error) {
	return db.QueryOne[models.Asset](ctx, dbConn,
		`
		SELECT $columns
		FROM asset
		WHERE id = $1
		`,
		id,
	)
}
