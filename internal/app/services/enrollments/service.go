package enrollments

import (
	"context"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/hets"
	"github.com/pawansangari/dataconnect-apps/internal/app/metrics"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
	"github.com/pawansangari/dataconnect-apps/internal/app/validation"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

// Service accepts and serves HETS EDI enrollments.
type Service struct {
	store     storage.EnrollmentStore
	validator *validation.Validator
	log       *logger.Logger
}

// New constructs an enrollment service.
func New(store storage.EnrollmentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("enrollments")
	}
	return &Service{
		store:     store,
		validator: validation.New(),
		log:       log,
	}
}

// Submit validates req and writes the provider, vendor relationship,
// attestation and history rows. clientAddr is recorded on the attestation.
func (s *Service) Submit(ctx context.Context, req hets.Request, clientAddr string) (hets.Receipt, error) {
	req.Normalize()
	if errs := s.validator.Enrollment(req); len(errs) > 0 {
		metrics.RecordSubmission("hets", true, errs)
		return hets.Receipt{}, errs
	}

	saved, err := s.store.CreateEnrollment(ctx, req.Enrollment(clientAddr))
	metrics.RecordSubmission("hets", false, err)
	if err != nil {
		s.log.WithError(err).Error("enrollment submission failed")
		return hets.Receipt{}, err
	}
	s.log.WithField("provider_id", saved.Provider.ProviderID).
		WithField("relationship_id", saved.Vendor.RelationshipID).
		WithField("organization", saved.Provider.OrganizationName).
		Info("enrollment submitted")
	return hets.Receipt{
		ProviderID:       saved.Provider.ProviderID,
		OrganizationName: saved.Provider.OrganizationName,
		Status:           hets.StatusSubmitted,
		Message:          hets.SubmittedMessage,
	}, nil
}

// List returns every enrollment, newest first.
func (s *Service) List(ctx context.Context) ([]hets.Summary, error) {
	return s.store.ListEnrollments(ctx)
}

// Get returns an enrollment with its history.
func (s *Service) Get(ctx context.Context, providerID int) (hets.Record, error) {
	return s.store.GetEnrollment(ctx, providerID)
}

// DatabaseStatus reports connectivity of the backing store.
func (s *Service) DatabaseStatus(ctx context.Context) string {
	return storage.Status(ctx, s.store)
}
