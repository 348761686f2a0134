package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"s3purge/internal/domain"
	"s3purge/internal/purge"
	"s3purge/internal/storage"
)

// Observer receives run-level measurements.
type Observer interface {
	purge.Observer
	ObserveCounts(c domain.Counts)
}

// PurgeService runs a single purge: probe, count, confirm, delete, report.
type PurgeService interface {
	Run(ctx context.Context) (*domain.Report, error)
}

// Options carries the collaborators of a purge run. Only Store is required.
type Options struct {
	Logger    logrus.FieldLogger
	Confirmer Confirmer
	Observer  Observer
	Workers   int
}

type purgeService struct {
	cfg       domain.RunConfig
	store     storage.Store
	logger    logrus.FieldLogger
	confirmer Confirmer
	observer  Observer
	workers   int
}

func NewPurgeService(cfg domain.RunConfig, store storage.Store, opts Options) PurgeService {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &purgeService{
		cfg:       cfg,
		store:     store,
		logger:    opts.Logger,
		confirmer: opts.Confirmer,
		observer:  opts.Observer,
		workers:   opts.Workers,
	}
}

func (s *purgeService) Run(ctx context.Context) (*domain.Report, error) {
	report := &domain.Report{Target: s.cfg.Target()}
	s.logger.Warnf("TARGET: %s", report.Target)

	log := s.phase(domain.PhaseProbe)
	versioned, err := purge.Prober{Store: s.store, Logger: log}.IsVersioned(ctx, s.cfg.Bucket)
	if err != nil {
		return nil, err
	}
	report.Versioned = versioned
	log.Infof("Bucket versioning: %s", enabled(versioned))

	log = s.phase(domain.PhaseCount)
	counts, err := s.count(ctx, versioned)
	if err != nil {
		return nil, err
	}
	report.Counts = counts
	if s.observer != nil {
		s.observer.ObserveCounts(counts)
	}
	log.Infof("Visible objects: %d", counts.VisibleObjects)
	log.Infof("Total versions: %d", counts.TotalVersions)

	if counts.Empty() {
		log.Warn("Nothing to delete")
		report.Outcome = domain.OutcomeNothingToDelete
		return report, nil
	}

	if s.cfg.RequireConfirmation && !s.cfg.DryRun {
		ok, err := s.confirm(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.phase(domain.PhaseConfirm).Info("Aborted")
			report.Outcome = domain.OutcomeAborted
			return report, nil
		}
	}

	phase := domain.PhaseDelete
	if s.cfg.DryRun {
		phase = domain.PhaseDrySimulate
	}
	log = s.phase(phase)
	if s.cfg.DryRun {
		log.Info("DRY-RUN mode enabled, no deletes will occur")
	}

	deleter := &purge.Deleter{
		Store:   s.store,
		Logger:  log,
		Workers: s.workers,
	}
	if s.observer != nil {
		deleter.Observer = s.observer
	}

	var res purge.Result
	if versioned {
		res, err = purge.Delete[domain.VersionedKey](ctx, deleter, purge.VersionLister{Store: s.store}, s.cfg)
	} else {
		res, err = purge.Delete[domain.ObjectKey](ctx, deleter, purge.ObjectLister{Store: s.store}, s.cfg)
	}
	report.Batches = res.Batches
	report.Deleted = res.Deleted
	report.Simulated = res.Simulated
	if err != nil {
		log.WithField("deleted", res.Deleted).Error("Run aborted after partial deletion")
		return report, fmt.Errorf("purge %s: %w", report.Target, err)
	}

	report.Outcome = domain.OutcomeCompleted
	log = s.phase(domain.PhaseReport)
	if s.cfg.DryRun {
		log.Infof("TOTAL WOULD DELETE: %d in %d batches", res.Simulated, res.Batches)
	}
	log.Infof("TOTAL DELETED: %d", res.Deleted)
	return report, nil
}

func (s *purgeService) count(ctx context.Context, versioned bool) (domain.Counts, error) {
	visible, err := purge.CountObjects(ctx, s.store, s.cfg.Bucket, s.cfg.Prefix)
	if err != nil {
		return domain.Counts{}, err
	}
	if !versioned {
		return domain.Counts{VisibleObjects: visible, TotalVersions: visible}, nil
	}
	versions, err := purge.CountVersions(ctx, s.store, s.cfg.Bucket, s.cfg.Prefix)
	if err != nil {
		return domain.Counts{}, err
	}
	return domain.Counts{VisibleObjects: visible, TotalVersions: versions}, nil
}

// confirm fails closed: with no confirmer configured nothing is deleted.
func (s *purgeService) confirm(ctx context.Context) (bool, error) {
	if s.confirmer == nil {
		return false, nil
	}
	ok, err := s.confirmer.Confirm(ctx, s.cfg.Target())
	if err != nil {
		return false, fmt.Errorf("confirm deletion: %w", err)
	}
	return ok, nil
}

func (s *purgeService) phase(p domain.Phase) logrus.FieldLogger {
	return s.logger.WithField("phase", p)
}

func enabled(b bool) string {
	if b {
		return "ENABLED"
	}
	return "DISABLED"
}
