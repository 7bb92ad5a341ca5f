package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/task"
)

const taskNotFound = "Task not found"

func (h *handler) taskRoutes(router *mux.Router) {
	router.HandleFunc("/", h.taskIndex).Methods(http.MethodGet)
	router.HandleFunc("/api/health", h.taskHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", h.taskStats).Methods(http.MethodGet)

	router.HandleFunc("/api/tasks", h.listTasks).Methods(http.MethodGet)
	router.HandleFunc("/api/tasks", h.createTask).Methods(http.MethodPost)
	router.HandleFunc("/api/tasks/{id:[0-9]+}", h.getTask).Methods(http.MethodGet)
	router.HandleFunc("/api/tasks/{id:[0-9]+}", h.updateTask).Methods(http.MethodPut)
	router.HandleFunc("/api/tasks/{id:[0-9]+}", h.deleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/api/tasks/{id:[0-9]+}/toggle", h.toggleTask).Methods(http.MethodPatch)
}

func (h *handler) taskIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Welcome to Task Manager API!",
		"version": APIVersion,
		"endpoints": map[string]string{
			"health":  "/api/health",
			"tasks":   "/api/tasks",
			"stats":   "/api/stats",
			"metrics": "/metrics",
		},
	})
}

func (h *handler) taskHealth(w http.ResponseWriter, r *http.Request) {
	total, err := h.app.Tasks.Count(r.Context())
	if err != nil {
		h.log.WithError(err).Warn("task store unavailable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"app":       "Task Manager",
			"timestamp": h.now(),
			"detail":    err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"app":         "Task Manager",
		"timestamp":   h.now(),
		"total_tasks": total,
	})
}

func (h *handler) taskStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Tasks.Stats(r.Context())
	if err != nil {
		h.fail(w, err, taskNotFound, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.app.Tasks.List(r.Context())
	if err != nil {
		h.fail(w, err, taskNotFound, "Failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var draft task.Draft
	if err := decodeJSON(r.Body, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Tasks.Create(r.Context(), draft)
	if err != nil {
		h.fail(w, err, taskNotFound, "Failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, taskNotFound)
		return
	}
	t, err := h.app.Tasks.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err, taskNotFound, "Failed to load task")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, taskNotFound)
		return
	}
	var draft task.Draft
	if err := decodeJSON(r.Body, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := h.app.Tasks.Update(r.Context(), id, draft)
	if err != nil {
		h.fail(w, err, taskNotFound, "Failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, taskNotFound)
		return
	}
	t, err := h.app.Tasks.Toggle(r.Context(), id)
	if err != nil {
		h.fail(w, err, taskNotFound, "Failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Task updated", "task": t})
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, taskNotFound)
		return
	}
	t, err := h.app.Tasks.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, err, taskNotFound, "Failed to delete task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Task deleted", "task": t})
}
