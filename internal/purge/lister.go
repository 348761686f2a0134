package purge

import (
	"context"
	"fmt"

	"s3purge/internal/domain"
	"s3purge/internal/storage"
)

// Mode names the traversal protocol in logs and metrics.
type Mode string

const (
	ModeObjects  Mode = "objects"
	ModeVersions Mode = "versions"
)

// Lister fetches a single page of descriptors. A nil next token ends the listing.
type Lister[T domain.Descriptor] interface {
	Mode() Mode
	ListPage(ctx context.Context, bucket, prefix string, token *storage.PageToken) ([]T, *storage.PageToken, error)
}

// ObjectLister lists live objects only.
type ObjectLister struct {
	Store storage.Store
}

func (ObjectLister) Mode() Mode { return ModeObjects }

func (l ObjectLister) ListPage(ctx context.Context, bucket, prefix string, token *storage.PageToken) ([]domain.ObjectKey, *storage.PageToken, error) {
	page, err := l.Store.ListObjects(ctx, bucket, prefix, token)
	if err != nil {
		return nil, nil, fmt.Errorf("list objects page: %w", err)
	}
	return page.Keys, page.Next, nil
}

// VersionLister lists every version and delete marker. Versions come first
// within a page, then markers, each in store order.
type VersionLister struct {
	Store storage.Store
}

func (VersionLister) Mode() Mode { return ModeVersions }

func (l VersionLister) ListPage(ctx context.Context, bucket, prefix string, token *storage.PageToken) ([]domain.VersionedKey, *storage.PageToken, error) {
	page, err := l.Store.ListObjectVersions(ctx, bucket, prefix, token)
	if err != nil {
		return nil, nil, fmt.Errorf("list versions page: %w", err)
	}
	items := make([]domain.VersionedKey, 0, len(page.Versions)+len(page.DeleteMarkers))
	items = append(items, page.Versions...)
	items = append(items, page.DeleteMarkers...)
	return items, page.Next, nil
}

var (
	_ Lister[domain.ObjectKey]    = ObjectLister{}
	_ Lister[domain.VersionedKey] = VersionLister{}
)
