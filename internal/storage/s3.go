package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"s3purge/internal/domain"
)

// S3API is the slice of the S3 client used by S3Store.
type S3API interface {
	GetBucketVersioning(ctx context.Context, params *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	ListObjectVersions(ctx context.Context, params *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3Store talks to Amazon S3 (or compatible APIs).
type S3Store struct {
	client S3API
}

func NewS3Store(client S3API) *S3Store {
	return &S3Store{client: client}
}

func (s *S3Store) GetBucketVersioning(ctx context.Context, bucket string) (VersioningStatus, error) {
	if bucket == "" {
		return VersioningUnset, fmt.Errorf("storage bucket is required")
	}

	output, err := s.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return VersioningUnset, apiError("get bucket versioning", err)
	}

	switch output.Status {
	case types.BucketVersioningStatusEnabled:
		return VersioningEnabled, nil
	case types.BucketVersioningStatusSuspended:
		return VersioningSuspended, nil
	default:
		return VersioningUnset, nil
	}
}

func (s *S3Store) ListObjects(ctx context.Context, bucket, prefix string, token *PageToken) (ObjectPage, error) {
	if bucket == "" {
		return ObjectPage{}, fmt.Errorf("storage bucket is required")
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if strings.TrimSpace(prefix) != "" {
		input.Prefix = aws.String(prefix)
	}
	if token != nil && token.Marker != "" {
		input.ContinuationToken = aws.String(token.Marker)
	}

	output, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return ObjectPage{}, apiError("list objects", err)
	}

	page := ObjectPage{
		Keys: make([]domain.ObjectKey, 0, len(output.Contents)),
	}
	for _, obj := range output.Contents {
		page.Keys = append(page.Keys, domain.ObjectKey(aws.ToString(obj.Key)))
	}

	if aws.ToBool(output.IsTruncated) && output.NextContinuationToken != nil {
		page.Next = &PageToken{Marker: aws.ToString(output.NextContinuationToken)}
	}
	return page, nil
}

func (s *S3Store) ListObjectVersions(ctx context.Context, bucket, prefix string, token *PageToken) (VersionPage, error) {
	if bucket == "" {
		return VersionPage{}, fmt.Errorf("storage bucket is required")
	}

	input := &s3.ListObjectVersionsInput{
		Bucket: aws.String(bucket),
	}
	if strings.TrimSpace(prefix) != "" {
		input.Prefix = aws.String(prefix)
	}
	if token != nil {
		if token.Marker != "" {
			input.KeyMarker = aws.String(token.Marker)
		}
		if token.VersionMarker != "" {
			input.VersionIdMarker = aws.String(token.VersionMarker)
		}
	}

	output, err := s.client.ListObjectVersions(ctx, input)
	if err != nil {
		return VersionPage{}, apiError("list object versions", err)
	}

	page := VersionPage{
		Versions:      make([]domain.VersionedKey, 0, len(output.Versions)),
		DeleteMarkers: make([]domain.VersionedKey, 0, len(output.DeleteMarkers)),
	}
	for _, v := range output.Versions {
		page.Versions = append(page.Versions, domain.VersionedKey{
			Key:       aws.ToString(v.Key),
			VersionID: aws.ToString(v.VersionId),
		})
	}
	for _, m := range output.DeleteMarkers {
		page.DeleteMarkers = append(page.DeleteMarkers, domain.VersionedKey{
			Key:       aws.ToString(m.Key),
			VersionID: aws.ToString(m.VersionId),
		})
	}

	if aws.ToBool(output.IsTruncated) && (output.NextKeyMarker != nil || output.NextVersionIdMarker != nil) {
		page.Next = &PageToken{
			Marker:        aws.ToString(output.NextKeyMarker),
			VersionMarker: aws.ToString(output.NextVersionIdMarker),
		}
	}
	return page, nil
}

func (s *S3Store) DeleteObjects(ctx context.Context, bucket string, keys []domain.VersionedKey, quiet bool) error {
	if bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if len(keys) == 0 {
		return nil
	}
	if len(keys) > domain.MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(keys), domain.MaxBatchSize)
	}

	identifiers := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		id := types.ObjectIdentifier{Key: aws.String(k.Key)}
		if k.VersionID != "" {
			id.VersionId = aws.String(k.VersionID)
		}
		identifiers = append(identifiers, id)
	}

	output, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: identifiers,
			Quiet:   aws.Bool(quiet),
		},
	})
	if err != nil {
		return apiError("delete objects", err)
	}

	if len(output.Errors) > 0 {
		first := output.Errors[0]
		return fmt.Errorf("%w: %d of %d failed, first %s: %s %s",
			ErrPartialDelete,
			len(output.Errors),
			len(keys),
			aws.ToString(first.Key),
			aws.ToString(first.Code),
			aws.ToString(first.Message),
		)
	}
	return nil
}

var _ Store = (*S3Store)(nil)

func apiError(op string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return fmt.Errorf("%s (%s): %w", op, ae.ErrorCode(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
