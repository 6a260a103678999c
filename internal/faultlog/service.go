package faultlog

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/logger"
	"codeberg.org/mutker/fanmon/internal/monitor"
	"github.com/google/uuid"
)

// Service queues fault reports from the event loop and writes them to the
// repository on its own goroutine, so reporting never blocks monitoring.
type Service struct {
	repo   Repository
	queue  chan *Fault
	logger logger.Logger
	now    func() time.Time
}

// NewService opens the repository described by cfg. A disabled config gives
// a service that only logs faults.
func NewService(cfg Config) (*Service, error) {
	errFactory := errors.New()
	log := logger.Component("faultlog")

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Fault log disabled, faults are only logged")
		return NewServiceWithRepository(nil, cfg.QueueSize, log), nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return NewServiceWithRepository(repo, cfg.QueueSize, log), nil
}

// NewServiceWithRepository creates a service over repo, which may be nil.
func NewServiceWithRepository(repo Repository, queueSize int, log logger.Logger) *Service {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Service{
		repo:   repo,
		queue:  make(chan *Fault, queueSize),
		logger: log,
		now:    time.Now,
	}
}

// Enabled reports whether faults are persisted.
func (s *Service) Enabled() bool {
	return s.repo != nil
}

// ReportFault queues a record for sf. It never blocks; a full queue drops
// the record with an error log.
func (s *Service) ReportFault(sf monitor.SensorFault) {
	f := &Fault{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
		Fan:       sf.Fan,
		Sensor:    sf.Sensor,
		Input:     sf.Input,
		Target:    sf.Target,
		Deviation: sf.Deviation,
		Message: fmt.Sprintf("Fan %s sensor %s nonfunctional: input %.0f, target %.0f",
			sf.Fan, sf.Sensor, sf.Input, sf.Target),
	}

	select {
	case s.queue <- f:
	default:
		s.logger.ErrorWithCode(errors.New().WithData(ErrQueueFull, f.ID.String())).
			Str("fan", f.Fan).
			Str("sensor", f.Sensor).
			Msg("Dropped fault record")
	}
}

// Run writes queued records until ctx is done, then drains the queue and
// closes the repository.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case f := <-s.queue:
			s.store(f)
		case <-ctx.Done():
			return s.drain()
		}
	}
}

// List returns up to limit records, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Fault, error) {
	if s.repo == nil {
		return []Fault{}, nil
	}
	return s.repo.List(ctx, limit)
}

func (s *Service) store(f *Fault) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Record(f); err != nil {
		s.logger.Error().Err(err).Str("id", f.ID.String()).Msg("Failed to record fault")
	}
}

func (s *Service) drain() error {
	for {
		select {
		case f := <-s.queue:
			s.store(f)
		default:
			if s.repo == nil {
				return nil
			}
			if err := s.repo.Close(); err != nil {
				return errors.New().Wrap(ErrStorageClose, err)
			}
			return nil
		}
	}
}
