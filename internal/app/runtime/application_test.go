package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/task"
	"github.com/pawansangari/dataconnect-apps/internal/app/httpapi"
	"github.com/pawansangari/dataconnect-apps/internal/config"
	"github.com/pawansangari/dataconnect-apps/internal/platform/credentials"
	"github.com/pawansangari/dataconnect-apps/internal/platform/migrations"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Addr:            "127.0.0.1:0",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:    "db.example",
			Port:    5432,
			Name:    "forms",
			User:    "app-user",
			SSLMode: "require",
		},
		HTTP:  config.HTTPConfig{CORSOrigins: "*"},
		Tasks: config.TaskStoreConfig{Store: config.TaskStoreMemory, SeedDemo: true},
	}
}

// mockDatabase returns pool options backed by sqlmock.
func mockDatabase(t *testing.T) (sqlmock.Sqlmock, []Option) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	open := func(driverName, dsn string) (*sqlx.DB, error) {
		return sqlx.NewDb(db, driverName), nil
	}
	return mock, []Option{WithOpenFunc(open), WithCredentialSource(credentials.NewStatic("secret"))}
}

func getJSON(t *testing.T, h http.Handler, path string, dst interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
	return rec
}

func TestTasksAppSeedsDemoData(t *testing.T) {
	a, err := NewApplication(context.Background(), httpapi.AppTasks, testConfig(), logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	var tasks []task.Task
	getJSON(t, a.Handler(), "/api/tasks", &tasks)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Welcome to Task Manager!", tasks[0].Title)
	assert.Equal(t, []string{"ratelimit-cleanup"}, a.Jobs())
}

func TestTasksAppRedisStoreSeedsOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Tasks.Store = config.TaskStoreRedis
	cfg.Tasks.RedisAddr = mr.Addr()
	cfg.Tasks.RedisPrefix = "demo"

	for i := 0; i < 2; i++ {
		a, err := NewApplication(context.Background(), httpapi.AppTasks, cfg, logger.NewDiscard())
		require.NoError(t, err)

		var tasks []task.Task
		getJSON(t, a.Handler(), "/api/tasks", &tasks)
		assert.Len(t, tasks, 3, "restart %d must not duplicate demo tasks", i)
		require.NoError(t, a.Shutdown(context.Background()))
	}
	assert.True(t, mr.Exists("demo:next_id"))
}

func TestTasksAppRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Tasks.Store = config.TaskStoreRedis
	cfg.Tasks.RedisAddr = addr

	_, err := NewApplication(context.Background(), httpapi.AppTasks, cfg, logger.NewDiscard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect redis")
}

func TestNPIAppAppliesMigrations(t *testing.T) {
	mock, opts := mockDatabase(t)
	for range migrations.NPI("npi_app_schema_appuser") {
		mock.ExpectExec(".+").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	a, err := NewApplication(context.Background(), httpapi.AppNPI, testConfig(), logger.NewDiscard(), opts...)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ratelimit-cleanup", "database-probe"}, a.Jobs())
	assert.Equal(t, []string{"postgres-pool", "scheduler"}, a.app.Services())

	var health struct {
		Database string `json:"database"`
	}
	getJSON(t, a.Handler(), "/api/health", &health)
	assert.Equal(t, "connected", health.Database)

	mock.ExpectClose()
	require.NoError(t, a.Shutdown(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNPIAppKeepsServingWhenSchemaFails(t *testing.T) {
	mock, opts := mockDatabase(t)
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "npi_app_schema_appuser"`).
		WillReturnError(errors.New("permission denied for database forms"))

	a, err := NewApplication(context.Background(), httpapi.AppNPI, testConfig(), logger.NewDiscard(), opts...)
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, a.Shutdown(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHETSAppFailsWhenSchemaFails(t *testing.T) {
	mock, opts := mockDatabase(t)
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "my_app_schema_appuser"`).
		WillReturnError(errors.New("permission denied for database forms"))
	mock.ExpectClose()

	_, err := NewApplication(context.Background(), httpapi.AppHETS, testConfig(), logger.NewDiscard(), opts...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFormsAppWithoutDatabaseUsesMemory(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Host = ""

	a, err := NewApplication(context.Background(), httpapi.AppHETS, cfg, logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	var health struct {
		Database string `json:"database"`
	}
	getJSON(t, a.Handler(), "/api/health", &health)
	assert.Equal(t, "in-memory", health.Database)
	assert.Equal(t, []string{"ratelimit-cleanup"}, a.Jobs())
}

func TestUnknownApp(t *testing.T) {
	_, err := NewApplication(context.Background(), "billing", testConfig(), logger.NewDiscard())
	require.Error(t, err)
}

func TestHandlerAppliesCORS(t *testing.T) {
	a, err := NewApplication(context.Background(), httpapi.AppTasks, testConfig(), logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/1/toggle", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRunServesUntilCancelled(t *testing.T) {
	a, err := NewApplication(context.Background(), httpapi.AppTasks, testConfig(), logger.NewDiscard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.Addr() != nil }, 5*time.Second, 10*time.Millisecond)

	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(fmt.Sprintf("http://%s/api/health", a.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunClosesPoolOnShutdown(t *testing.T) {
	mock, opts := mockDatabase(t)
	for range migrations.NPI("npi_app_schema_appuser") {
		mock.ExpectExec(".+").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	a, err := NewApplication(context.Background(), httpapi.AppNPI, testConfig(), logger.NewDiscard(), opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	require.Eventually(t, func() bool { return a.Addr() != nil }, 5*time.Second, 10*time.Millisecond)

	mock.ExpectClose()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	require.NoError(t, a.Shutdown(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
