package aws_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/devantler-tech/kci/pkg/svc/provider"
	awsprovider "github.com/devantler-tech/kci/pkg/svc/provider/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	existing   bool
	headErr    error
	heads      int
	createErr  error
	created    []*s3.CreateBucketInput
	objects    []string
	pageSize   int
	deleted    []string
	deleteCall int
	bucketGone bool
	missing    bool
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.heads++

	if f.headErr != nil {
		return nil, f.headErr
	}

	if !f.existing {
		return nil, &s3types.NotFound{}
	}

	return &s3.HeadBucketOutput{}, nil
}

// CreateBucket follows us-east-1: creating a bucket the caller already owns succeeds.
func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, in)

	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeS3) DeleteBucket(context.Context, *s3.DeleteBucketInput, ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	if f.missing {
		return nil, &s3types.NoSuchBucket{}
	}

	f.bucketGone = true

	return &s3.DeleteBucketOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.missing {
		return nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "gone"}
	}

	start := 0
	if in.ContinuationToken != nil {
		_, _ = fmt.Sscanf(*in.ContinuationToken, "%d", &start)
	}

	end := min(start+f.pageSize, len(f.objects))
	out := &s3.ListObjectsV2Output{}

	for _, key := range f.objects[start:end] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}

	if end < len(f.objects) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(fmt.Sprintf("%d", end))
	}

	return out, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deleteCall++

	for _, obj := range in.Delete.Objects {
		f.deleted = append(f.deleted, aws.ToString(obj.Key))
	}

	return &s3.DeleteObjectsOutput{}, nil
}

type fakeEC2 struct {
	zones []ec2types.AvailabilityZone
	input *ec2.DescribeAvailabilityZonesInput
}

func (f *fakeEC2) DescribeAvailabilityZones(
	_ context.Context,
	in *ec2.DescribeAvailabilityZonesInput,
	_ ...func(*ec2.Options),
) (*ec2.DescribeAvailabilityZonesOutput, error) {
	f.input = in

	return &ec2.DescribeAvailabilityZonesOutput{AvailabilityZones: f.zones}, nil
}

func TestCreateStateStore_SetsLocationOutsideUSEast1(t *testing.T) {
	t.Parallel()

	s3Client := &fakeS3{}
	prov := awsprovider.NewProvider("eu-west-1", s3Client, nil, nil)

	store, err := prov.CreateStateStore(context.Background(), "kci-state-1")
	require.NoError(t, err)

	assert.True(t, store.Created)
	assert.Equal(t, "eu-west-1", store.Region)
	require.Len(t, s3Client.created, 1)
	require.NotNil(t, s3Client.created[0].CreateBucketConfiguration)
	assert.Equal(t, s3types.BucketLocationConstraint("eu-west-1"),
		s3Client.created[0].CreateBucketConfiguration.LocationConstraint)
}

func TestCreateStateStore_NoLocationInUSEast1(t *testing.T) {
	t.Parallel()

	s3Client := &fakeS3{}
	prov := awsprovider.NewProvider("", s3Client, nil, nil)

	_, err := prov.CreateStateStore(context.Background(), "kci-state-1")
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", prov.Region())
	assert.Nil(t, s3Client.created[0].CreateBucketConfiguration)
}

func TestCreateStateStore_AlreadyOwnedIsAdopted(t *testing.T) {
	t.Parallel()

	prov := awsprovider.NewProvider("us-east-1", &fakeS3{createErr: &s3types.BucketAlreadyOwnedByYou{}}, nil, nil)

	store, err := prov.CreateStateStore(context.Background(), "mine")
	require.NoError(t, err)
	assert.False(t, store.Created)
	assert.Equal(t, "mine", store.Bucket)
}

func TestCreateStateStore_ExistingBucketInUSEast1IsAdopted(t *testing.T) {
	t.Parallel()

	s3Client := &fakeS3{existing: true, objects: []string{"prod.k8s.local/config"}, pageSize: 10}
	prov := awsprovider.NewProvider("us-east-1", s3Client, nil, nil)

	store, err := prov.CreateStateStore(context.Background(), "team-state")
	require.NoError(t, err)

	assert.False(t, store.Created)
	assert.Equal(t, 1, s3Client.heads)
	assert.Empty(t, s3Client.created, "no create call for an existing bucket")
	assert.Empty(t, s3Client.deleted)
}

func TestCreateStateStore_HeadBucketErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headErr error
		wantErr error
		created bool
	}{
		{
			name:    "not found by code creates",
			headErr: &smithy.GenericAPIError{Code: "NotFound"},
			created: true,
		},
		{
			name:    "forbidden is taken",
			headErr: &smithy.GenericAPIError{Code: "Forbidden"},
			wantErr: provider.ErrBucketTaken,
		},
		{
			name:    "other errors abort",
			headErr: &smithy.GenericAPIError{Code: "SlowDown"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			s3Client := &fakeS3{headErr: testCase.headErr}
			store, err := awsprovider.NewProvider("us-east-1", s3Client, nil, nil).
				CreateStateStore(context.Background(), "kci-state-1")

			if testCase.created {
				require.NoError(t, err)
				assert.True(t, store.Created)

				return
			}

			require.Error(t, err)
			assert.Empty(t, s3Client.created)

			if testCase.wantErr != nil {
				require.ErrorIs(t, err, testCase.wantErr)
			}
		})
	}
}

func TestCreateStateStore_Errors(t *testing.T) {
	t.Parallel()

	prov := awsprovider.NewProvider("us-east-1", &fakeS3{createErr: &s3types.BucketAlreadyExists{}}, nil, nil)

	_, err := prov.CreateStateStore(context.Background(), "theirs")
	require.ErrorIs(t, err, provider.ErrBucketTaken)

	_, err = prov.CreateStateStore(context.Background(), "")
	require.ErrorIs(t, err, provider.ErrBucketNameRequired)

	_, err = awsprovider.NewProvider("us-east-1", nil, nil, nil).CreateStateStore(context.Background(), "x")
	require.ErrorIs(t, err, provider.ErrProviderUnavailable)

	denied := errors.New("access denied")
	_, err = awsprovider.NewProvider("us-east-1", &fakeS3{createErr: denied}, nil, nil).
		CreateStateStore(context.Background(), "x")
	require.ErrorIs(t, err, denied)
}

func TestDeleteStateStore_EmptiesAcrossPages(t *testing.T) {
	t.Parallel()

	objects := make([]string, 0, 1500)
	for i := range 1500 {
		objects = append(objects, fmt.Sprintf("ci.k8s.local/instancegroup/%d", i))
	}

	s3Client := &fakeS3{objects: objects, pageSize: 400}
	prov := awsprovider.NewProvider("us-east-1", s3Client, nil, nil)

	require.NoError(t, prov.DeleteStateStore(context.Background(), "kci-state-1"))

	assert.Equal(t, objects, s3Client.deleted)
	assert.Equal(t, 2, s3Client.deleteCall)
	assert.True(t, s3Client.bucketGone)
}

func TestDeleteStateStore_MissingBucketIsNotAnError(t *testing.T) {
	t.Parallel()

	prov := awsprovider.NewProvider("us-east-1", &fakeS3{missing: true}, nil, nil)

	require.NoError(t, prov.DeleteStateStore(context.Background(), "gone"))
}

func TestListZones_KeepsProviderOrderAndFilters(t *testing.T) {
	t.Parallel()

	ec2Client := &fakeEC2{zones: []ec2types.AvailabilityZone{
		{ZoneName: aws.String("eu-west-1b"), State: ec2types.AvailabilityZoneStateAvailable},
		{ZoneName: aws.String("eu-west-1a"), State: ec2types.AvailabilityZoneStateAvailable},
		{ZoneName: aws.String("eu-west-1c"), State: ec2types.AvailabilityZoneStateImpaired},
	}}
	prov := awsprovider.NewProvider("eu-west-1", nil, ec2Client, nil)

	zones, err := prov.ListZones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-west-1b", "eu-west-1a"}, zones)

	require.NotNil(t, ec2Client.input)
	assert.Equal(t, "state", aws.ToString(ec2Client.input.Filters[0].Name))
	assert.Equal(t, []string{"available"}, ec2Client.input.Filters[0].Values)
}

func TestListZones_Unavailable(t *testing.T) {
	t.Parallel()

	_, err := awsprovider.NewProvider("eu-west-1", nil, nil, nil).ListZones(context.Background())
	require.ErrorIs(t, err, provider.ErrProviderUnavailable)
}
