package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	app "github.com/pawansangari/dataconnect-apps/internal/app"
	"github.com/pawansangari/dataconnect-apps/internal/app/metrics"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
	"github.com/pawansangari/dataconnect-apps/internal/app/validation"
	"github.com/pawansangari/dataconnect-apps/internal/middleware"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

// Apps served by NewHandler.
const (
	AppTasks = "tasks"
	AppNPI   = "npi"
	AppHETS  = "hets"
)

// Apps lists every servable app name.
var Apps = []string{AppTasks, AppNPI, AppHETS}

// APIVersion is reported by every index route.
const APIVersion = "1.0.0"

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logger.Logger
	now func() time.Time
}

// NewHandler returns a router exposing the REST API of the named app plus
// /metrics.
func NewHandler(name string, application *app.Application, log *logger.Logger) (http.Handler, error) {
	if application == nil {
		return nil, errors.New("application is required")
	}
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log, now: time.Now}

	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	switch name {
	case AppTasks:
		h.taskRoutes(router)
	case AppNPI:
		h.applicationRoutes(router)
	case AppHETS:
		h.enrollmentRoutes(router)
	default:
		return nil, fmt.Errorf("unknown app %q", name)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return middleware.MetricsMiddleware(name, router)(router), nil
}

// fail renders err: validation problems as 422, missing records as 404 with
// notFound, anything else as 500 prefixed by failure.
func (h *handler) fail(w http.ResponseWriter, err error, notFound, failure string) {
	if errs, ok := validation.AsErrors(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": errs.Error(),
			"errors": []string(errs),
		})
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, notFound)
		return
	}
	h.log.WithError(err).Error(failure)
	writeDetail(w, http.StatusInternalServerError, failure+": "+err.Error())
}

// pathID parses the {id} route variable. The routes only match digits, so a
// failure here means the value overflowed.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Errors{key + " must be an integer"}
	}
	return v, nil
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeDetail(w, status, err.Error())
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
