package storage

import (
	"context"
	"errors"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/hets"
	"github.com/pawansangari/dataconnect-apps/internal/app/domain/npi"
	"github.com/pawansangari/dataconnect-apps/internal/app/domain/task"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// TaskStore persists tasks. Implementations assign monotonically increasing
// IDs that are never reused, even after deletion.
type TaskStore interface {
	CreateTask(ctx context.Context, t task.Task) (task.Task, error)
	// UpdateTask replaces title, description and priority. Completion and
	// creation time are preserved.
	UpdateTask(ctx context.Context, t task.Task) (task.Task, error)
	GetTask(ctx context.Context, id int) (task.Task, error)
	ListTasks(ctx context.Context) ([]task.Task, error)
	ToggleTask(ctx context.Context, id int) (task.Task, error)
	DeleteTask(ctx context.Context, id int) (task.Task, error)
}

// ApplicationStore persists NPI applications and their audit log.
type ApplicationStore interface {
	// CreateApplication stores app and its submission audit entry atomically.
	CreateApplication(ctx context.Context, app npi.Application) (npi.Record, error)
	ListApplications(ctx context.Context, limit, offset int) ([]npi.Summary, error)
	GetApplication(ctx context.Context, id int) (npi.Record, error)
}

// EnrollmentStore persists HETS enrollments.
type EnrollmentStore interface {
	// CreateEnrollment writes provider, vendor relationship, attestation and
	// the initial history row atomically.
	CreateEnrollment(ctx context.Context, e hets.Enrollment) (hets.Enrollment, error)
	ListEnrollments(ctx context.Context) ([]hets.Summary, error)
	GetEnrollment(ctx context.Context, providerID int) (hets.Record, error)
}

// Pinger is implemented by stores backed by a remote database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database status strings reported by health endpoints.
const (
	StatusConnected = "connected"
	StatusInMemory  = "in-memory"
)

// Status reports StatusConnected when store is a reachable database,
// "error: <reason>" when it is not, and StatusInMemory when store has no
// remote backend.
func Status(ctx context.Context, store any) string {
	p, ok := store.(Pinger)
	if !ok {
		return StatusInMemory
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return StatusConnected
}
