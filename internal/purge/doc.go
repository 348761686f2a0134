// Package purge enumerates and deletes everything under a bucket prefix.
//
// Both the counting and the deleting passes consume the same lazy enumeration,
// parameterised by descriptor type: ObjectLister yields plain keys for
// non-versioned buckets, VersionLister yields every version and delete marker.
package purge
