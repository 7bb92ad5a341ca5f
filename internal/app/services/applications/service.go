package applications

import (
	"context"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/npi"
	"github.com/pawansangari/dataconnect-apps/internal/app/metrics"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
	"github.com/pawansangari/dataconnect-apps/internal/app/validation"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

// Service accepts and serves NPI applications.
type Service struct {
	store     storage.ApplicationStore
	validator *validation.Validator
	log       *logger.Logger
}

// New constructs an application service.
func New(store storage.ApplicationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("applications")
	}
	return &Service{
		store:     store,
		validator: validation.New(),
		log:       log,
	}
}

// Submit normalises and validates app, then stores it with its audit entry.
// Validation failures are returned as validation.Errors and nothing is
// written.
func (s *Service) Submit(ctx context.Context, app npi.Application) (npi.Receipt, error) {
	app.Normalize()
	if errs := s.validator.Struct(app); len(errs) > 0 {
		metrics.RecordSubmission("npi", true, errs)
		return npi.Receipt{}, errs
	}

	rec, err := s.store.CreateApplication(ctx, app)
	metrics.RecordSubmission("npi", false, err)
	if err != nil {
		s.log.WithError(err).Error("application submission failed")
		return npi.Receipt{}, err
	}
	s.log.WithField("application_id", rec.ApplicationID).
		WithField("entity_type", rec.EntityType).
		Info("application submitted")
	return npi.Receipt{
		ApplicationID:  rec.ApplicationID,
		SubmissionDate: rec.SubmissionDate,
		Status:         rec.Status,
		Message:        npi.SubmittedMessage,
	}, nil
}

// List returns a page of summaries, newest first. limit is clamped to
// [1, npi.MaxListLimit] with npi.DefaultListLimit for non-positive input.
func (s *Service) List(ctx context.Context, limit, offset int) ([]npi.Summary, error) {
	if limit <= 0 {
		limit = npi.DefaultListLimit
	}
	if limit > npi.MaxListLimit {
		limit = npi.MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListApplications(ctx, limit, offset)
}

// Get returns the full stored application.
func (s *Service) Get(ctx context.Context, id int) (npi.Record, error) {
	return s.store.GetApplication(ctx, id)
}

// DatabaseStatus reports connectivity of the backing store.
func (s *Service) DatabaseStatus(ctx context.Context) string {
	return storage.Status(ctx, s.store)
}
