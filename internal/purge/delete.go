package purge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"s3purge/internal/domain"
	"s3purge/internal/storage"
)

// Result is what a deletion pass did.
type Result struct {
	Batches   int
	Deleted   int64
	Simulated int64
}

// Deleter submits deletion batches to the store.
type Deleter struct {
	Store  storage.Store
	Logger logrus.FieldLogger
	// Workers bounds how many batches are in flight at once. Values below 1
	// mean one.
	Workers  int
	Observer Observer
}

func (d *Deleter) workers() int {
	if d.Workers < 1 {
		return 1
	}
	return d.Workers
}

func (d *Deleter) observer() Observer {
	if d.Observer == nil {
		return nopObserver{}
	}
	return d.Observer
}

func (d *Deleter) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.New()
	}
	return d.Logger
}

// Delete enumerates everything the lister yields and removes it in batches of
// at most domain.MaxBatchSize. In dry-run mode every descriptor is logged and
// the store is never asked to delete anything. The first failed batch aborts
// the pass; batches already accepted stay deleted.
func Delete[T domain.Descriptor](ctx context.Context, d *Deleter, l Lister[T], cfg domain.RunConfig) (Result, error) {
	log := d.logger().WithField("mode", l.Mode())
	obs := d.observer()
	mode := l.Mode()

	if cfg.DryRun {
		return simulate(ctx, log, obs, l, cfg)
	}

	var (
		deleted atomic.Int64
		batches int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())

	var enumErr error
	for batch, err := range Batches(Enumerate(gctx, l, cfg.Bucket, cfg.Prefix), domain.MaxBatchSize) {
		if err != nil {
			enumErr = err
			break
		}
		if gctx.Err() != nil {
			break
		}
		batches++

		ids := make([]domain.VersionedKey, len(batch))
		for i, item := range batch {
			ids[i] = item.Identifier()
		}

		// Go blocks while the pool is full, so listing never runs far ahead.
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := d.Store.DeleteObjects(gctx, cfg.Bucket, ids, true); err != nil {
				return fmt.Errorf("delete batch of %d: %w", len(ids), err)
			}
			deleted.Add(int64(len(ids)))
			obs.ObserveBatch(mode, len(ids), false)
			log.Infof("Deleted %d %s", len(ids), unit(mode))
			return nil
		})
	}

	waitErr := g.Wait()
	res := Result{Batches: batches, Deleted: deleted.Load()}

	// A failed batch cancels gctx, which in turn surfaces as a listing error;
	// report the delete failure rather than the cancellation it caused.
	if waitErr != nil {
		return res, waitErr
	}
	if enumErr != nil {
		return res, fmt.Errorf("enumerate %s: %w", mode, enumErr)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func simulate[T domain.Descriptor](ctx context.Context, log logrus.FieldLogger, obs Observer, l Lister[T], cfg domain.RunConfig) (Result, error) {
	var res Result
	mode := l.Mode()
	for batch, err := range Batches(Enumerate(ctx, l, cfg.Bucket, cfg.Prefix), domain.MaxBatchSize) {
		if err != nil {
			return res, fmt.Errorf("enumerate %s: %w", mode, err)
		}
		res.Batches++
		for _, item := range batch {
			log.Infof("[DRY-RUN] Would delete %s", item.String())
		}
		res.Simulated += int64(len(batch))
		obs.ObserveBatch(mode, len(batch), true)
	}
	return res, nil
}

func unit(mode Mode) string {
	if mode == ModeVersions {
		return "object versions"
	}
	return "objects"
}

// IsCanceled reports whether err came from the run being interrupted.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
