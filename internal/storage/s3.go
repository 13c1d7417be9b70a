// Package storage signs download links for diagram images kept in an S3
// compatible bucket (Cloudflare R2 in production).
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/OFFIS-RIT/diagramkg/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	DefaultKeyPrefix  = "ai2d/raw/"
	DefaultLinkExpiry = time.Hour
)

// Config holds the bucket connection settings.
type Config struct {
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
}

// ConfigFromEnv reads the AWS_* variables.
func ConfigFromEnv() Config {
	return Config{
		Region:         util.GetEnvString("AWS_REGION", "auto"),
		Endpoint:       util.GetEnv("AWS_ENDPOINT"),
		PublicEndpoint: util.GetEnv("AWS_PUBLIC_ENDPOINT"),
		AccessKey:      util.GetEnv("AWS_ACCESS_KEY"),
		SecretKey:      util.GetEnv("AWS_SECRET_KEY"),
		Bucket:         util.GetEnv("AWS_BUCKET"),
	}
}

func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Presigner creates time limited GET links for diagram images.
type Presigner struct {
	client     presignAPI
	bucket     string
	keyPrefix  string
	pathPrefix string
	expiry     time.Duration
}

// NewPresignerParams configures a Presigner. KeyPrefix defaults to
// DefaultKeyPrefix and Expiry to DefaultLinkExpiry.
type NewPresignerParams struct {
	Client    *s3.Client
	Config    Config
	KeyPrefix string
	Expiry    time.Duration
}

// NewPresigner builds a presign client. When a public endpoint is configured
// links are signed against it so the signature matches the Host header the
// browser will send.
func NewPresigner(params NewPresignerParams) (*Presigner, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if params.Config.Bucket == "" {
		return nil, fmt.Errorf("missing bucket name")
	}

	signer := params.Client
	pathPrefix := ""
	if params.Config.PublicEndpoint != "" {
		publicURL, err := url.Parse(params.Config.PublicEndpoint)
		if err != nil || publicURL.Scheme == "" || publicURL.Host == "" {
			return nil, fmt.Errorf("invalid AWS_PUBLIC_ENDPOINT: %s", params.Config.PublicEndpoint)
		}
		pathPrefix = strings.TrimSuffix(publicURL.Path, "/")
		base := fmt.Sprintf("%s://%s", publicURL.Scheme, publicURL.Host)

		opts := params.Client.Options()
		signer = s3.NewFromConfig(
			aws.Config{
				Region:      opts.Region,
				Credentials: opts.Credentials,
				HTTPClient:  opts.HTTPClient,
			},
			func(o *s3.Options) {
				o.BaseEndpoint = aws.String(base)
				o.UsePathStyle = true
			},
		)
	}

	return newPresigner(s3.NewPresignClient(signer), params.Config.Bucket, params.KeyPrefix, pathPrefix, params.Expiry), nil
}

func newPresigner(client presignAPI, bucket, keyPrefix, pathPrefix string, expiry time.Duration) *Presigner {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if expiry <= 0 {
		expiry = DefaultLinkExpiry
	}
	return &Presigner{
		client:     client,
		bucket:     bucket,
		keyPrefix:  keyPrefix,
		pathPrefix: pathPrefix,
		expiry:     expiry,
	}
}

// Key returns the object key of a diagram image.
func (p *Presigner) Key(diagramID string) string {
	return p.keyPrefix + diagramID
}

// DownloadLink presigns a GET of the diagram's image.
func (p *Presigner) DownloadLink(ctx context.Context, diagramID string) (string, error) {
	if diagramID == "" {
		return "", fmt.Errorf("missing diagram id")
	}

	out, err := p.client.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(p.Key(diagramID)),
		},
		s3.WithPresignExpires(p.expiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}

	if p.pathPrefix == "" {
		return out.URL, nil
	}

	signedURL, err := url.Parse(out.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse presigned url: %w", err)
	}
	signedURL.Path = p.pathPrefix + signedURL.Path
	return signedURL.String(), nil
}
