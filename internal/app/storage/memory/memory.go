package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/hets"
	"github.com/pawansangari/dataconnect-apps/internal/app/domain/npi"
	"github.com/pawansangari/dataconnect-apps/internal/app/domain/task"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	nextTaskID int
	tasks      map[int]task.Task

	nextApplicationID int
	nextAuditID       int
	applications      map[int]npi.Record
	audit             []npi.AuditEntry

	nextProviderID     int
	nextRelationshipID int
	nextAttestationID  int
	nextSubmissionID   int
	enrollments        map[int]hets.Record
}

var _ storage.TaskStore = (*Store)(nil)
var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.EnrollmentStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		now:                func() time.Time { return time.Now().UTC() },
		nextTaskID:         1,
		tasks:              make(map[int]task.Task),
		nextApplicationID:  1,
		nextAuditID:        1,
		applications:       make(map[int]npi.Record),
		nextProviderID:     1,
		nextRelationshipID: 1,
		nextAttestationID:  1,
		nextSubmissionID:   1,
		enrollments:        make(map[int]hets.Record),
	}
}

// TaskStore implementation -----------------------------------------------------

func (s *Store) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextTaskID
	s.nextTaskID++
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.tasks[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[t.ID]
	if !ok {
		return task.Task{}, storage.ErrNotFound
	}
	existing.Title = t.Title
	existing.Description = t.Description
	existing.Priority = t.Priority
	s.tasks[t.ID] = existing
	return existing, nil
}

func (s *Store) GetTask(_ context.Context, id int) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTasks(_ context.Context) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ToggleTask(_ context.Context, id int) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, storage.ErrNotFound
	}
	t.Completed = !t.Completed
	s.tasks[id] = t
	return t, nil
}

func (s *Store) DeleteTask(_ context.Context, id int) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, storage.ErrNotFound
	}
	delete(s.tasks, id)
	return t, nil
}

// ApplicationStore implementation ----------------------------------------------

func (s *Store) CreateApplication(_ context.Context, app npi.Application) (npi.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec := npi.NewRecord(app)
	rec.ApplicationID = s.nextApplicationID
	s.nextApplicationID++
	rec.SubmissionDate = now
	rec.Status = npi.StatusSubmitted
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.applications[rec.ApplicationID] = rec

	s.audit = append(s.audit, npi.AuditEntry{
		LogID:         s.nextAuditID,
		ApplicationID: rec.ApplicationID,
		Action:        npi.ActionSubmitted,
		ActionDate:    now,
		Notes:         app.AuditNote(),
	})
	s.nextAuditID++
	return rec, nil
}

func (s *Store) ListApplications(_ context.Context, limit, offset int) ([]npi.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]npi.Record, 0, len(s.applications))
	for _, rec := range s.applications {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].SubmissionDate.Equal(all[j].SubmissionDate) {
			return all[i].ApplicationID > all[j].ApplicationID
		}
		return all[i].SubmissionDate.After(all[j].SubmissionDate)
	})

	out := make([]npi.Summary, 0)
	for i := offset; i < len(all) && len(out) < limit; i++ {
		rec := all[i]
		out = append(out, npi.Summary{
			ApplicationID:    rec.ApplicationID,
			SubmissionReason: rec.SubmissionReason,
			EntityType:       rec.EntityType,
			Name:             rec.Application().DisplayName(),
			ExistingNPI:      rec.BasicInformation.NPI,
			ContactEmail:     rec.ContactEmail,
			SubmissionDate:   rec.SubmissionDate,
			Status:           rec.Status,
		})
	}
	return out, nil
}

func (s *Store) GetApplication(_ context.Context, id int) (npi.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.applications[id]
	if !ok {
		return npi.Record{}, storage.ErrNotFound
	}
	return rec, nil
}

// AuditLog returns the audit entries for an application.
func (s *Store) AuditLog(applicationID int) []npi.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []npi.AuditEntry
	for _, entry := range s.audit {
		if entry.ApplicationID == applicationID {
			out = append(out, entry)
		}
	}
	return out
}

// EnrollmentStore implementation -----------------------------------------------

func (s *Store) CreateEnrollment(_ context.Context, e hets.Enrollment) (hets.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e.Provider.ProviderID = s.nextProviderID
	s.nextProviderID++
	e.Provider.CreatedAt = now

	e.Vendor.RelationshipID = s.nextRelationshipID
	s.nextRelationshipID++
	e.Vendor.ProviderID = e.Provider.ProviderID

	e.Attestation.AttestationID = s.nextAttestationID
	s.nextAttestationID++
	e.Attestation.ProviderID = e.Provider.ProviderID
	e.Attestation.RelationshipID = e.Vendor.RelationshipID
	e.Attestation.AttestationDate = now

	history := e.InitialHistory()
	history.SubmissionID = s.nextSubmissionID
	s.nextSubmissionID++
	history.SubmissionDate = now

	s.enrollments[e.Provider.ProviderID] = hets.Record{Enrollment: e, History: []hets.HistoryEntry{history}}
	return e, nil
}

func (s *Store) ListEnrollments(_ context.Context) ([]hets.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]hets.Summary, 0, len(s.enrollments))
	for _, rec := range s.enrollments {
		p, v := rec.Provider, rec.Vendor
		name, status := v.VendorClearinghouseName, v.RelationshipStatus
		out = append(out, hets.Summary{
			ProviderID:              p.ProviderID,
			AuthorizedSignatoryName: p.AuthorizedSignatoryName,
			OrganizationName:        p.OrganizationName,
			EmailAddress:            p.EmailAddress,
			PTAN:                    p.PTAN,
			NPI:                     p.NPI,
			VendorClearinghouseName: &name,
			EffectiveDate:           v.EffectiveDate,
			RelationshipStatus:      &status,
			CreatedAt:               p.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ProviderID > out[j].ProviderID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetEnrollment(_ context.Context, providerID int) (hets.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.enrollments[providerID]
	if !ok {
		return hets.Record{}, storage.ErrNotFound
	}
	rec.History = append([]hets.HistoryEntry(nil), rec.History...)
	return rec, nil
}
