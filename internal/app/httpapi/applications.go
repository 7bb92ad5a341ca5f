package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/npi"
)

const applicationNotFound = "Application not found"

func (h *handler) applicationRoutes(router *mux.Router) {
	router.HandleFunc("/", h.applicationIndex).Methods(http.MethodGet)
	router.HandleFunc("/api/health", h.applicationHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/applications", h.listApplications).Methods(http.MethodGet)
	router.HandleFunc("/api/applications", h.submitApplication).Methods(http.MethodPost)
	router.HandleFunc("/api/applications/{id:[0-9]+}", h.getApplication).Methods(http.MethodGet)
}

func (h *handler) applicationIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "CMS-10114 NPI Application API",
		"version": APIVersion,
	})
}

func (h *handler) applicationHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  h.app.Applications.DatabaseStatus(r.Context()),
		"timestamp": h.now(),
	})
}

func (h *handler) submitApplication(w http.ResponseWriter, r *http.Request) {
	var application npi.Application
	if err := decodeJSON(r.Body, &application); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receipt, err := h.app.Applications.Submit(r.Context(), application)
	if err != nil {
		h.fail(w, err, applicationNotFound, "Failed to submit application")
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *handler) listApplications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", npi.DefaultListLimit)
	if err != nil {
		h.fail(w, err, applicationNotFound, "Failed to retrieve applications")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.fail(w, err, applicationNotFound, "Failed to retrieve applications")
		return
	}

	applications, err := h.app.Applications.List(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, err, applicationNotFound, "Failed to retrieve applications")
		return
	}
	if applications == nil {
		applications = []npi.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applications": applications,
		"total":        len(applications),
	})
}

func (h *handler) getApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, applicationNotFound)
		return
	}
	record, err := h.app.Applications.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err, applicationNotFound, "Failed to retrieve application")
		return
	}
	writeJSON(w, http.StatusOK, record)
}
