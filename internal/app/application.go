package app

import (
	"context"
	"fmt"

	"github.com/pawansangari/dataconnect-apps/internal/app/services/applications"
	"github.com/pawansangari/dataconnect-apps/internal/app/services/enrollments"
	"github.com/pawansangari/dataconnect-apps/internal/app/services/tasks"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage/memory"
	"github.com/pawansangari/dataconnect-apps/internal/app/system"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Tasks        storage.TaskStore
	Applications storage.ApplicationStore
	Enrollments  storage.EnrollmentStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager   *system.Manager
	scheduler *system.Scheduler
	log       *logger.Logger

	Tasks        *tasks.Service
	Applications *applications.Service
	Enrollments  *enrollments.Service
}

// New builds a fully initialised application with the provided stores.
// Resources are registered ahead of the scheduler, so they start before any
// job runs and are stopped only after the scheduler has drained.
func New(stores Stores, log *logger.Logger, resources ...system.Service) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Tasks == nil {
		stores.Tasks = mem
	}
	if stores.Applications == nil {
		stores.Applications = mem
	}
	if stores.Enrollments == nil {
		stores.Enrollments = mem
	}

	manager := system.NewManager()
	for _, res := range resources {
		if err := manager.Register(res); err != nil {
			return nil, fmt.Errorf("register %s: %w", res.Name(), err)
		}
	}

	scheduler := system.NewScheduler(log)
	if err := manager.Register(scheduler); err != nil {
		return nil, fmt.Errorf("register %s: %w", scheduler.Name(), err)
	}

	return &Application{
		manager:      manager,
		scheduler:    scheduler,
		log:          log,
		Tasks:        tasks.New(stores.Tasks, log),
		Applications: applications.New(stores.Applications, log),
		Enrollments:  enrollments.New(stores.Enrollments, log),
	}, nil
}

// Schedule adds a periodic job. Call before Start.
func (a *Application) Schedule(name, spec string, fn func(ctx context.Context)) error {
	return a.scheduler.Add(name, spec, fn)
}

// Jobs lists the scheduled job names.
func (a *Application) Jobs() []string {
	return a.scheduler.Jobs()
}

// Services lists the lifecycle-managed services in start order.
func (a *Application) Services() []string {
	return a.manager.Services()
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
