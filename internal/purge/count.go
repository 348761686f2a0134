package purge

import (
	"context"
	"fmt"

	"s3purge/internal/domain"
	"s3purge/internal/storage"
)

// Count drives a full enumeration and returns how many descriptors it saw.
func Count[T domain.Descriptor](ctx context.Context, l Lister[T], bucket, prefix string) (int64, error) {
	var n int64
	for _, err := range Enumerate(ctx, l, bucket, prefix) {
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", l.Mode(), err)
		}
		n++
	}
	return n, nil
}

// CountObjects counts visible objects under prefix.
func CountObjects(ctx context.Context, store storage.Store, bucket, prefix string) (int64, error) {
	return Count[domain.ObjectKey](ctx, ObjectLister{Store: store}, bucket, prefix)
}

// CountVersions counts versions and delete markers under prefix.
func CountVersions(ctx context.Context, store storage.Store, bucket, prefix string) (int64, error) {
	return Count[domain.VersionedKey](ctx, VersionLister{Store: store}, bucket, prefix)
}
