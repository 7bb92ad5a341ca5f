package tasks

import (
	"context"
	"strings"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/task"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
	"github.com/pawansangari/dataconnect-apps/internal/app/validation"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

// DemoTasks are loaded by SeedDemo.
var DemoTasks = []task.Draft{
	{Title: "Welcome to Task Manager!", Description: "This is a demo task", Priority: "high"},
	{Title: "Try creating a new task", Description: "Click the 'Add Task' button", Priority: "medium"},
	{Title: "Mark tasks as complete", Description: "Click the checkbox to complete tasks", Priority: "low"},
}

// Service manages the task list.
type Service struct {
	store storage.TaskStore
	log   *logger.Logger
}

// New constructs a task service.
func New(store storage.TaskStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tasks")
	}
	return &Service{store: store, log: log}
}

// Create validates the draft and stores a new incomplete task.
func (s *Service) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	t, err := fromDraft(d)
	if err != nil {
		return task.Task{}, err
	}
	created, err := s.store.CreateTask(ctx, t)
	if err != nil {
		return task.Task{}, err
	}
	s.log.WithField("task_id", created.ID).
		WithField("priority", created.Priority).
		Info("task created")
	return created, nil
}

// List returns every task in id order.
func (s *Service) List(ctx context.Context) ([]task.Task, error) {
	return s.store.ListTasks(ctx)
}

// Get fetches a single task.
func (s *Service) Get(ctx context.Context, id int) (task.Task, error) {
	return s.store.GetTask(ctx, id)
}

// Update replaces the editable fields of a task.
func (s *Service) Update(ctx context.Context, id int, d task.Draft) (task.Task, error) {
	t, err := fromDraft(d)
	if err != nil {
		return task.Task{}, err
	}
	t.ID = id
	updated, err := s.store.UpdateTask(ctx, t)
	if err != nil {
		return task.Task{}, err
	}
	s.log.WithField("task_id", id).Info("task updated")
	return updated, nil
}

// Toggle flips completion.
func (s *Service) Toggle(ctx context.Context, id int) (task.Task, error) {
	t, err := s.store.ToggleTask(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	s.log.WithField("task_id", id).
		WithField("completed", t.Completed).
		Info("task toggled")
	return t, nil
}

// Delete removes a task and returns it.
func (s *Service) Delete(ctx context.Context, id int) (task.Task, error) {
	t, err := s.store.DeleteTask(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	s.log.WithField("task_id", id).Info("task deleted")
	return t, nil
}

// Stats summarises the current task list.
func (s *Service) Stats(ctx context.Context) (task.Stats, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return task.Stats{}, err
	}
	return task.Summarise(tasks), nil
}

// Count returns the number of stored tasks.
func (s *Service) Count(ctx context.Context) (int, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// SeedDemo creates DemoTasks.
func (s *Service) SeedDemo(ctx context.Context) error {
	for _, d := range DemoTasks {
		if _, err := s.Create(ctx, d); err != nil {
			return err
		}
	}
	n, _ := s.Count(ctx)
	s.log.WithField("total_tasks", n).Info("demo data loaded")
	return nil
}

func fromDraft(d task.Draft) (task.Task, error) {
	var errs validation.Errors
	title := strings.TrimSpace(d.Title)
	if title == "" {
		errs = append(errs, "title is required")
	}
	priority, err := task.ParsePriority(d.Priority)
	if err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return task.Task{}, errs
	}
	return task.Task{
		Title:       title,
		Description: d.Description,
		Priority:    priority,
	}, nil
}
