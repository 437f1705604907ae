// Package aws implements provider.Provider on the AWS SDK: an S3 bucket for
// cluster state and EC2 for availability zones.
package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/devantler-tech/kci/pkg/svc/provider"
	"github.com/sirupsen/logrus"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// deleteBatchSize is the S3 DeleteObjects limit.
const deleteBatchSize = 1000

// S3API is the subset of the S3 client the provider uses.
type S3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteBucket(ctx context.Context, in *s3.DeleteBucketInput, opts ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// EC2API is the subset of the EC2 client the provider uses.
type EC2API interface {
	DescribeAvailabilityZones(
		ctx context.Context,
		in *ec2.DescribeAvailabilityZonesInput,
		opts ...func(*ec2.Options),
	) (*ec2.DescribeAvailabilityZonesOutput, error)
}

// Provider implements provider.Provider for AWS.
type Provider struct {
	region string
	s3     S3API
	ec2    EC2API
	logger logrus.FieldLogger
}

var _ provider.Provider = (*Provider)(nil)

// NewProvider creates a provider from existing API clients.
func NewProvider(region string, s3Client S3API, ec2Client EC2API, logger logrus.FieldLogger) *Provider {
	if region == "" {
		region = DefaultRegion
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Provider{region: region, s3: s3Client, ec2: ec2Client, logger: logger}
}

// StaticCredentials is an access key pair. Empty keys fall back to the SDK's
// default credential chain.
type StaticCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// NewProviderFromCredentials loads an AWS config for region and builds the API clients.
func NewProviderFromCredentials(
	ctx context.Context,
	region string,
	creds StaticCredentials,
	logger logrus.FieldLogger,
) (*Provider, error) {
	if region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}

	if creds.AccessKeyID != "" && creds.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewProvider(region, s3.NewFromConfig(cfg), ec2.NewFromConfig(cfg), logger), nil
}

// Region returns the configured region.
func (p *Provider) Region() string {
	return p.region
}

// CreateStateStore creates the bucket. A bucket this account already owns is
// adopted with Created=false so nobody deletes state they did not create.
//
// Existence is checked with HeadBucket first: in us-east-1 CreateBucket on an
// owned bucket succeeds instead of returning BucketAlreadyOwnedByYou.
func (p *Provider) CreateStateStore(ctx context.Context, bucket string) (provider.StateStore, error) {
	if p.s3 == nil {
		return provider.StateStore{}, provider.ErrProviderUnavailable
	}

	if bucket == "" {
		return provider.StateStore{}, provider.ErrBucketNameRequired
	}

	store := provider.StateStore{Bucket: bucket, Region: p.region}

	exists, err := p.bucketExists(ctx, bucket)
	if err != nil {
		return provider.StateStore{}, err
	}

	if exists {
		p.logger.WithField("bucket", bucket).Debug("state bucket exists, adopting")

		return store, nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint.
	if p.region != DefaultRegion {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(p.region),
		}
	}

	_, err = p.s3.CreateBucket(ctx, input)
	if err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			p.logger.WithField("bucket", bucket).Debug("state bucket already owned, adopting")

			return store, nil
		}

		var taken *s3types.BucketAlreadyExists
		if errors.As(err, &taken) {
			return provider.StateStore{}, fmt.Errorf("%w: %s", provider.ErrBucketTaken, bucket)
		}

		return provider.StateStore{}, fmt.Errorf("create bucket %s: %w", bucket, err)
	}

	store.Created = true
	p.logger.WithFields(logrus.Fields{"bucket": bucket, "region": p.region}).Debug("state bucket created")

	return store, nil
}

// bucketExists reports whether bucket exists and is reachable with our credentials.
// A 403 means another account owns it.
func (p *Provider) bucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := p.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}

	var notFound *s3types.NotFound
	if errors.As(err, &notFound) || isNoSuchBucket(err) {
		return false, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound":
			return false, nil
		case "Forbidden", "AccessDenied":
			return false, fmt.Errorf("%w: %s: %w", provider.ErrBucketTaken, bucket, err)
		}
	}

	return false, fmt.Errorf("head bucket %s: %w", bucket, err)
}

// DeleteStateStore deletes every object in the bucket, then the bucket.
func (p *Provider) DeleteStateStore(ctx context.Context, bucket string) error {
	if p.s3 == nil {
		return provider.ErrProviderUnavailable
	}

	if bucket == "" {
		return provider.ErrBucketNameRequired
	}

	err := p.emptyBucket(ctx, bucket)
	if err != nil {
		if isNoSuchBucket(err) {
			return nil
		}

		return err
	}

	_, err = p.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	if err != nil && !isNoSuchBucket(err) {
		return fmt.Errorf("delete bucket %s: %w", bucket, err)
	}

	p.logger.WithField("bucket", bucket).Debug("state bucket deleted")

	return nil
}

func (p *Provider) emptyBucket(ctx context.Context, bucket string) error {
	paginator := s3.NewListObjectsV2Paginator(p.s3, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})

	batch := make([]s3types.ObjectIdentifier, 0, deleteBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		out, err := p.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete objects in %s: %w", bucket, err)
		}

		if out != nil && len(out.Errors) > 0 {
			first := out.Errors[0]

			return fmt.Errorf("delete objects in %s: %d failed, first %s: %s",
				bucket, len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}

		batch = batch[:0]

		return nil
	}

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list objects in %s: %w", bucket, err)
		}

		for _, obj := range page.Contents {
			batch = append(batch, s3types.ObjectIdentifier{Key: obj.Key})

			if len(batch) == deleteBatchSize {
				err = flush()
				if err != nil {
					return err
				}
			}
		}
	}

	return flush()
}

// ListZones returns the available availability zones of the region, in the order EC2 returns them.
func (p *Provider) ListZones(ctx context.Context) ([]string, error) {
	if p.ec2 == nil {
		return nil, provider.ErrProviderUnavailable
	}

	out, err := p.ec2.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("state"), Values: []string{"available"}},
			{Name: aws.String("zone-type"), Values: []string{"availability-zone"}},
			{Name: aws.String("region-name"), Values: []string{p.region}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("describe availability zones: %w", err)
	}

	zones := make([]string, 0, len(out.AvailabilityZones))

	for _, zone := range out.AvailabilityZones {
		if zone.State != ec2types.AvailabilityZoneStateAvailable {
			continue
		}

		if name := aws.ToString(zone.ZoneName); name != "" {
			zones = append(zones, name)
		}
	}

	p.logger.WithField("zones", zones).Debug("availability zones listed")

	return zones, nil
}

func isNoSuchBucket(err error) bool {
	var noBucket *s3types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return true
	}

	var apiErr smithy.APIError

	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket"
}
