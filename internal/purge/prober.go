package purge

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"s3purge/internal/storage"
)

// Prober decides which deletion protocol a bucket needs.
type Prober struct {
	Store  storage.Store
	Logger logrus.FieldLogger
}

// IsVersioned reports whether versioning is Enabled. Suspended and unset both
// select the plain object protocol.
func (p Prober) IsVersioned(ctx context.Context, bucket string) (bool, error) {
	status, err := p.Store.GetBucketVersioning(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("probe versioning: %w", err)
	}

	if status == storage.VersioningSuspended && p.Logger != nil {
		p.Logger.Warnf("bucket %s has versioning suspended; older versions will not be listed or removed", bucket)
	}
	return status == storage.VersioningEnabled, nil
}
