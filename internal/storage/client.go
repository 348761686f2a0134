package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

const defaultRegion = "us-east-1"

// ClientOptions describes how to reach the object store.
type ClientOptions struct {
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	SkipSSLVerify bool
	PathStyle     bool
	Logger        logrus.FieldLogger
}

// NewS3Client builds an S3 client from opts. When no region is given and the
// target is AWS itself, the bucket's region is looked up first.
func NewS3Client(ctx context.Context, opts ClientOptions) (*s3.Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	region := opts.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	if opts.SkipSSLVerify {
		opts.Logger.Warn("TLS certificate verification is disabled")
		loadOpts = append(loadOpts, awscfg.WithHTTPClient(insecureHTTPClient()))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, endpointOptions(opts))

	if opts.Region == "" && opts.Endpoint == "" {
		detected, err := manager.GetBucketRegion(ctx, client, opts.Bucket)
		if err != nil {
			return nil, fmt.Errorf("detect bucket region: %w", err)
		}
		if detected != region {
			opts.Logger.Infof("bucket %s lives in %s", opts.Bucket, detected)
			client = s3.NewFromConfig(awsCfg, endpointOptions(opts), func(o *s3.Options) {
				o.Region = detected
			})
			region = detected
		}
	}

	target := opts.Endpoint
	if target == "" {
		target = "aws"
	}
	opts.Logger.Infof("using s3 bucket %s (endpoint %s, region %s)", opts.Bucket, target, region)
	return client, nil
}

func endpointOptions(opts ClientOptions) func(*s3.Options) {
	return func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = opts.PathStyle
		}
	}
}

func insecureHTTPClient() *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{}
		}
		tr.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // operator opted in
	})
}
