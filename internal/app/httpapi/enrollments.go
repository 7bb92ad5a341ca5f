package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/hets"
	"github.com/pawansangari/dataconnect-apps/internal/middleware"
)

const enrollmentNotFound = "Enrollment not found"

func (h *handler) enrollmentRoutes(router *mux.Router) {
	router.HandleFunc("/", h.enrollmentIndex).Methods(http.MethodGet)
	router.HandleFunc("/api/health", h.enrollmentHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/enrollments", h.listEnrollments).Methods(http.MethodGet)
	router.HandleFunc("/api/enrollments", h.submitEnrollment).Methods(http.MethodPost)
	router.HandleFunc("/api/enrollments/{id:[0-9]+}", h.getEnrollment).Methods(http.MethodGet)
}

func (h *handler) enrollmentIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "HETS EDI Enrollment API",
		"version": APIVersion,
	})
}

func (h *handler) enrollmentHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  h.app.Enrollments.DatabaseStatus(r.Context()),
		"timestamp": h.now(),
	})
}

func (h *handler) submitEnrollment(w http.ResponseWriter, r *http.Request) {
	var req hets.Request
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receipt, err := h.app.Enrollments.Submit(r.Context(), req, middleware.ClientIP(r))
	if err != nil {
		h.fail(w, err, enrollmentNotFound, "Error submitting enrollment")
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *handler) listEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.app.Enrollments.List(r.Context())
	if err != nil {
		h.fail(w, err, enrollmentNotFound, "Error loading enrollments")
		return
	}
	if enrollments == nil {
		enrollments = []hets.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enrollments": enrollments,
		"total":       len(enrollments),
	})
}

func (h *handler) getEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, enrollmentNotFound)
		return
	}
	record, err := h.app.Enrollments.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err, enrollmentNotFound, "Error loading enrollment")
		return
	}
	writeJSON(w, http.StatusOK, record)
}
