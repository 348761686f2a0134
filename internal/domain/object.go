package domain

import (
	"fmt"
	"strings"
)

// MaxBatchSize is the hard per-request limit the store imposes on bulk deletes.
const MaxBatchSize = 1000

// ObjectKey identifies an object within a bucket.
type ObjectKey string

// Identifier returns the delete target for a non-versioned key.
func (k ObjectKey) Identifier() VersionedKey {
	return VersionedKey{Key: string(k)}
}

func (k ObjectKey) String() string {
	return string(k)
}

// VersionedKey identifies one version of an object, or one delete marker.
type VersionedKey struct {
	Key       string
	VersionID string
}

func (v VersionedKey) Identifier() VersionedKey {
	return v
}

func (v VersionedKey) String() string {
	return fmt.Sprintf("%s (version %s)", v.Key, v.VersionID)
}

// Descriptor is the closed set of things an enumeration can yield.
type Descriptor interface {
	ObjectKey | VersionedKey
	Identifier() VersionedKey
	String() string
}

// NormalizePrefix turns an optional raw prefix into its canonical form: empty
// stays empty (no prefix), anything else ends in exactly one slash.
func NormalizePrefix(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimRight(raw, "/") + "/"
}
