package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/task"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage/memory"
	"github.com/pawansangari/dataconnect-apps/internal/app/validation"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)

	created, err := svc.Create(ctx, task.Draft{Title: "  Ship it  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "Ship it" || created.Priority != task.PriorityMedium || created.Completed {
		t.Fatalf("unexpected task: %+v", created)
	}

	once, err := svc.Toggle(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	twice, err := svc.Toggle(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !once.Completed || twice.Completed {
		t.Fatalf("toggling twice should restore state: %v then %v", once.Completed, twice.Completed)
	}

	updated, err := svc.Update(ctx, created.ID, task.Draft{Title: "Ship it now", Priority: "HIGH"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Priority != task.PriorityHigh {
		t.Fatalf("priority not updated: %+v", updated)
	}

	if _, err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Delete(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	svc := New(memory.New(), nil)

	_, err := svc.Create(context.Background(), task.Draft{Title: " ", Priority: "urgent"})
	errs, ok := validation.AsErrors(err)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(errs) != 2 || errs[0] != "title is required" {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestSeedDemoAndStats(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)

	if err := svc.SeedDemo(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Toggle(ctx, 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTasks != 3 || stats.CompletedTasks != 1 || stats.PendingTasks != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	for _, p := range task.Priorities {
		if stats.ByPriority[p] != 1 {
			t.Fatalf("expected one %s task, got %d", p, stats.ByPriority[p])
		}
	}

	n, err := svc.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}
}
