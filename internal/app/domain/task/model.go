package task

import (
	"fmt"
	"strings"
	"time"
)

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority normalises raw. Blank input yields the medium default.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return PriorityMedium, nil
	}
	for _, known := range Priorities {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("priority must be one of low, medium, high")
}

// Task is a to-do item. IDs grow monotonically and are never reused.
type Task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Draft carries the caller-editable fields used by create and update.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// Stats summarises the task list.
type Stats struct {
	TotalTasks     int              `json:"total_tasks"`
	CompletedTasks int              `json:"completed_tasks"`
	PendingTasks   int              `json:"pending_tasks"`
	ByPriority     map[Priority]int `json:"by_priority"`
}

// Summarise computes Stats over tasks.
func Summarise(tasks []Task) Stats {
	stats := Stats{ByPriority: make(map[Priority]int, len(Priorities))}
	for _, p := range Priorities {
		stats.ByPriority[p] = 0
	}
	for _, t := range tasks {
		stats.TotalTasks++
		if t.Completed {
			stats.CompletedTasks++
		}
		stats.ByPriority[t.Priority]++
	}
	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks
	return stats
}
