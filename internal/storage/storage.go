package storage

import (
	"context"
	"errors"

	"s3purge/internal/domain"
)

var (
	ErrBatchTooLarge = errors.New("delete batch exceeds store limit")
	ErrPartialDelete = errors.New("store rejected part of a delete batch")
)

// VersioningStatus mirrors the bucket versioning configuration. The zero value
// means versioning was never configured.
type VersioningStatus string

const (
	VersioningUnset     VersioningStatus = ""
	VersioningEnabled   VersioningStatus = "Enabled"
	VersioningSuspended VersioningStatus = "Suspended"
)

// PageToken is the continuation state between list calls. Object listings use
// Marker only; version listings use both fields.
type PageToken struct {
	Marker        string
	VersionMarker string
}

// ObjectPage is one page of a plain object listing.
type ObjectPage struct {
	Keys []domain.ObjectKey
	Next *PageToken
}

// VersionPage is one page of a version listing.
type VersionPage struct {
	Versions      []domain.VersionedKey
	DeleteMarkers []domain.VersionedKey
	Next          *PageToken
}

// Store is the subset of an S3-compatible API the purge engine needs.
type Store interface {
	GetBucketVersioning(ctx context.Context, bucket string) (VersioningStatus, error)
	ListObjects(ctx context.Context, bucket, prefix string, token *PageToken) (ObjectPage, error)
	ListObjectVersions(ctx context.Context, bucket, prefix string, token *PageToken) (VersionPage, error)
	DeleteObjects(ctx context.Context, bucket string, keys []domain.VersionedKey, quiet bool) error
}
