package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"s3purge/internal/domain"
	"s3purge/internal/purge"
	"s3purge/internal/storage"
	"s3purge/internal/testutil"
)

type recordingObserver struct {
	counts    []domain.Counts
	batches   int
	simulated int
}

func (r *recordingObserver) ObserveCounts(c domain.Counts) { r.counts = append(r.counts, c) }

func (r *recordingObserver) ObserveBatch(_ purge.Mode, size int, dryRun bool) {
	r.batches++
	if dryRun {
		r.simulated += size
	}
}

type countingConfirmer struct {
	answer bool
	calls  int
}

func (c *countingConfirmer) Confirm(context.Context, string) (bool, error) {
	c.calls++
	return c.answer, nil
}

func dryRunLines(hook *test.Hook) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, "[DRY-RUN]") {
			n++
		}
	}
	return n
}

func TestRun_EmptyBucket(t *testing.T) {
	store := testutil.NewFakeStore()
	confirmer := &countingConfirmer{answer: true}
	logger, _ := test.NewNullLogger()

	svc := NewPurgeService(domain.RunConfig{Bucket: "bucket", RequireConfirmation: true}, store, Options{
		Logger:    logger,
		Confirmer: confirmer,
	})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeNothingToDelete, report.Outcome)
	assert.Equal(t, domain.Counts{}, report.Counts)
	assert.Zero(t, confirmer.calls, "no prompt when there is nothing to delete")
	assert.Empty(t, store.DeleteCalls())
}

func TestRun_DryRunNonVersioned(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddObjects("", 2500)
	obs := &recordingObserver{}
	confirmer := &countingConfirmer{answer: true}
	logger, hook := test.NewNullLogger()

	svc := NewPurgeService(domain.RunConfig{Bucket: "bucket", DryRun: true, RequireConfirmation: true}, store, Options{
		Logger:    logger,
		Confirmer: confirmer,
		Observer:  obs,
	})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeCompleted, report.Outcome)
	assert.False(t, report.Versioned)
	assert.Equal(t, domain.Counts{VisibleObjects: 2500, TotalVersions: 2500}, report.Counts)
	assert.Equal(t, 3, report.Batches)
	assert.Zero(t, report.Deleted)
	assert.Equal(t, int64(2500), report.Simulated)

	assert.Zero(t, confirmer.calls, "dry runs never prompt")
	assert.Empty(t, store.DeleteCalls())
	assert.Equal(t, 2500, dryRunLines(hook))
	assert.Equal(t, 3, obs.batches)
	assert.Equal(t, 2500, obs.simulated)
	require.Len(t, obs.counts, 1)

	after, err := purge.CountObjects(context.Background(), store, "bucket", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), after)
}

func TestRun_VersionedBucket(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Versioning = storage.VersioningEnabled
	store.AddVersioned("a", 2)
	store.AddVersioned("b", 2)
	store.AddVersioned("c", 2)
	store.AddDeleteMarker("c", "dm-c")
	logger, _ := test.NewNullLogger()

	svc := NewPurgeService(domain.RunConfig{Bucket: "bucket"}, store, Options{Logger: logger})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Versioned)
	assert.Equal(t, domain.Counts{VisibleObjects: 3, TotalVersions: 7}, report.Counts)
	assert.Equal(t, int64(7), report.Deleted)
	assert.Equal(t, domain.OutcomeCompleted, report.Outcome)

	calls := store.DeleteCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], domain.VersionedKey{Key: "c", VersionID: "dm-c"})
	for _, k := range calls[0] {
		assert.NotEmpty(t, k.VersionID)
	}
}

func TestRun_SuspendedUsesObjectProtocol(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Versioning = storage.VersioningSuspended
	store.AddObjects("", 3)
	logger, hook := test.NewNullLogger()

	svc := NewPurgeService(domain.RunConfig{Bucket: "bucket"}, store, Options{Logger: logger})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Versioned)
	assert.Equal(t, int64(3), report.Deleted)

	var warned bool
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "versioning suspended") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRun_ConfirmationMismatchAborts(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddObjects("", 5)
	logger, _ := test.NewNullLogger()
	var prompt bytes.Buffer

	svc := NewPurgeService(domain.RunConfig{Bucket: "bucket", RequireConfirmation: true}, store, Options{
		Logger:    logger,
		Confirmer: PromptConfirmer{In: strings.NewReader("delete\n"), Out: &prompt},
	})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAborted, report.Outcome)
	assert.Zero(t, report.Deleted)
	assert.Empty(t, store.DeleteCalls())
	assert.Contains(t, prompt.String(), "Type DELETE")
}

func TestRun_ConfirmationAccepted(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddObjects("tmp/", 5)
	store.AddObjects("keep/", 2)
	logger, _ := test.NewNullLogger()

	svc := NewPurgeService(domain.RunConfig{Bucket: "bucket", Prefix: "tmp/", RequireConfirmation: true}, store, Options{
		Logger:    logger,
		Confirmer: PromptConfirmer{In: strings.NewReader("DELETE\n"), Out: &bytes.Buffer{}},
		Workers:   2,
	})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeCompleted, report.Outcome)
	assert.Equal(t, "bucket/tmp/", report.Target)
	assert.Equal(t, int64(5), report.Deleted)
	assert.Equal(t, 5, store.Deleted())
}

func TestRun_NoConfirmerFailsClosed(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddObjects("", 1)
	logger, _ := test.NewNullLogger()

	svc := NewPurgeService(domain.RunConfig{Bucket: "bucket", RequireConfirmation: true}, store, Options{Logger: logger})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAborted, report.Outcome)
	assert.Empty(t, store.DeleteCalls())
}

func TestRun_StoreErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(*testutil.FakeStore)
	}{
		{
			name: "probe",
			setup: func(s *testutil.FakeStore) {
				s.VersioningErr = func() error { return boom }
			},
		},
		{
			name: "count",
			setup: func(s *testutil.FakeStore) {
				s.ListErr = func(*storage.PageToken) error { return boom }
			},
		},
		{
			name: "delete",
			setup: func(s *testutil.FakeStore) {
				s.DeleteErr = func(int, []domain.VersionedKey) error { return boom }
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewFakeStore()
			store.AddObjects("", 3)
			tt.setup(store)
			logger, _ := test.NewNullLogger()

			svc := NewPurgeService(domain.RunConfig{Bucket: "bucket"}, store, Options{Logger: logger})
			_, err := svc.Run(context.Background())
			assert.ErrorIs(t, err, boom)
		})
	}
}
