// Package testutil provides an in-memory object store for tests.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"s3purge/internal/domain"
	"s3purge/internal/storage"
)

// FakeStore is an in-memory storage.Store that pages its listings the way S3
// does and records every call it receives.
type FakeStore struct {
	Versioning storage.VersioningStatus
	PageSize   int

	// Hooks to inject failures; nil means success.
	VersioningErr func() error
	ListErr       func(token *storage.PageToken) error
	DeleteErr     func(call int, keys []domain.VersionedKey) error

	mu            sync.Mutex
	objects       []string
	versions      []domain.VersionedKey
	markers       []domain.VersionedKey
	deleted       map[domain.VersionedKey]bool
	deleteCalls   [][]domain.VersionedKey
	listCalls     int
	versionProbes int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		PageSize: 1000,
		deleted:  make(map[domain.VersionedKey]bool),
	}
}

// AddObjects creates n live objects named prefix000000, prefix000001 and so on.
func (f *FakeStore) AddObjects(prefix string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.objects = append(f.objects, fmt.Sprintf("%s%06d", prefix, i))
	}
}

// AddVersioned creates key with the given number of versions. The newest one
// is live.
func (f *FakeStore) AddVersioned(key string, versions int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = append(f.objects, key)
	for i := 0; i < versions; i++ {
		f.versions = append(f.versions, domain.VersionedKey{Key: key, VersionID: key + "-v" + strconv.Itoa(i)})
	}
}

// AddDeleteMarker records a delete marker for key.
func (f *FakeStore) AddDeleteMarker(key, versionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers = append(f.markers, domain.VersionedKey{Key: key, VersionID: versionID})
}

func (f *FakeStore) GetBucketVersioning(_ context.Context, _ string) (storage.VersioningStatus, error) {
	f.mu.Lock()
	f.versionProbes++
	f.mu.Unlock()
	if f.VersioningErr != nil {
		if err := f.VersioningErr(); err != nil {
			return storage.VersioningUnset, err
		}
	}
	return f.Versioning, nil
}

func (f *FakeStore) ListObjects(_ context.Context, _ string, prefix string, token *storage.PageToken) (storage.ObjectPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.ListErr != nil {
		if err := f.ListErr(token); err != nil {
			return storage.ObjectPage{}, err
		}
	}

	var page storage.ObjectPage
	next := f.scan(len(f.objects), offset(token), func(i int) bool {
		k := f.objects[i]
		if !strings.HasPrefix(k, prefix) || f.deleted[domain.VersionedKey{Key: k}] {
			return false
		}
		page.Keys = append(page.Keys, domain.ObjectKey(k))
		return true
	})
	if next >= 0 {
		page.Next = &storage.PageToken{Marker: strconv.Itoa(next)}
	}
	return page, nil
}

func (f *FakeStore) ListObjectVersions(_ context.Context, _ string, prefix string, token *storage.PageToken) (storage.VersionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.ListErr != nil {
		if err := f.ListErr(token); err != nil {
			return storage.VersionPage{}, err
		}
	}

	// Versions first, then markers, addressed as one sequence.
	var page storage.VersionPage
	total := len(f.versions) + len(f.markers)
	var last domain.VersionedKey
	next := f.scan(total, offset(token), func(i int) bool {
		marker := i >= len(f.versions)
		var k domain.VersionedKey
		if marker {
			k = f.markers[i-len(f.versions)]
		} else {
			k = f.versions[i]
		}
		if !strings.HasPrefix(k.Key, prefix) || f.deleted[k] {
			return false
		}
		if marker {
			page.DeleteMarkers = append(page.DeleteMarkers, k)
		} else {
			page.Versions = append(page.Versions, k)
		}
		last = k
		return true
	})
	if next >= 0 {
		page.Next = &storage.PageToken{Marker: strconv.Itoa(next), VersionMarker: last.VersionID}
	}
	return page, nil
}

// scan walks indexes [from, total) handing each to take until a page is full.
// It returns the index to resume from, or -1 when nothing is left. Positions
// index the full, append-only backing slices, so deletions between pages never
// shift a continuation token.
func (f *FakeStore) scan(total, from int, take func(i int) bool) int {
	taken := 0
	i := from
	for ; i < total && taken < f.pageSize(); i++ {
		if take(i) {
			taken++
		}
	}
	if i < total && taken == f.pageSize() {
		return i
	}
	return -1
}

func (f *FakeStore) DeleteObjects(_ context.Context, _ string, keys []domain.VersionedKey, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.deleteCalls)
	f.deleteCalls = append(f.deleteCalls, slices.Clone(keys))
	if len(keys) > domain.MaxBatchSize {
		return storage.ErrBatchTooLarge
	}
	if f.DeleteErr != nil {
		if err := f.DeleteErr(call, keys); err != nil {
			return err
		}
	}
	for _, k := range keys {
		f.deleted[k] = true
	}
	return nil
}

// DeleteCalls returns a copy of every batch passed to DeleteObjects.
func (f *FakeStore) DeleteCalls() [][]domain.VersionedKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.deleteCalls)
}

// ListCalls returns how many list requests were served.
func (f *FakeStore) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// VersioningProbes returns how many versioning queries were served.
func (f *FakeStore) VersioningProbes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versionProbes
}

// Deleted returns how many distinct identifiers have been removed.
func (f *FakeStore) Deleted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

func (f *FakeStore) pageSize() int {
	if f.PageSize <= 0 {
		return 1000
	}
	return f.PageSize
}

func offset(token *storage.PageToken) int {
	if token == nil || token.Marker == "" {
		return 0
	}
	n, _ := strconv.Atoi(token.Marker)
	return n
}

var _ storage.Store = (*FakeStore)(nil)
