// Package runtime turns configuration into a running app: stores, the
// credential-refreshing pool, background jobs and the HTTP server.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	app "github.com/pawansangari/dataconnect-apps/internal/app"
	"github.com/pawansangari/dataconnect-apps/internal/app/httpapi"
	"github.com/pawansangari/dataconnect-apps/internal/app/metrics"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage/postgres"
	redisstore "github.com/pawansangari/dataconnect-apps/internal/app/storage/redis"
	"github.com/pawansangari/dataconnect-apps/internal/app/system"
	"github.com/pawansangari/dataconnect-apps/internal/config"
	"github.com/pawansangari/dataconnect-apps/internal/middleware"
	"github.com/pawansangari/dataconnect-apps/internal/platform/credentials"
	"github.com/pawansangari/dataconnect-apps/internal/platform/database"
	"github.com/pawansangari/dataconnect-apps/internal/platform/migrations"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

// Background job schedules.
const (
	limiterCleanupSpec = "@every 5m"
	limiterMaxIdle     = 10 * time.Minute
	databaseProbeSpec  = "@every 30s"
	databaseProbeLimit = 5 * time.Second
)

// defaultAppNames is the schema prefix used when PGAPPNAME is unset.
var defaultAppNames = map[string]string{
	httpapi.AppNPI:  "npi_app",
	httpapi.AppHETS: "my_app",
}

// Option customises NewApplication.
type Option func(*options)

type options struct {
	open   database.OpenFunc
	source credentials.Source
}

// WithOpenFunc replaces the function used to open database handles.
func WithOpenFunc(fn database.OpenFunc) Option {
	return func(o *options) { o.open = fn }
}

// WithCredentialSource overrides the source built from the configuration.
func WithCredentialSource(src credentials.Source) Option {
	return func(o *options) { o.source = src }
}

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	name    string
	cfg     *config.Config
	log     *logger.Logger
	app     *app.Application
	handler http.Handler
	server  *http.Server
	pool    *database.Pool
	// resources are owned by the lifecycle manager once app.New succeeds;
	// release covers the paths where the manager never ran.
	resources []system.Service

	mu       sync.Mutex
	addr     net.Addr
	stopOnce sync.Once
	stopErr  error
}

// NewApplication builds the named app (tasks, npi or hets) from cfg.
func NewApplication(ctx context.Context, name string, cfg *config.Config, log *logger.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = logger.NewDefault(name)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &Application{name: name, cfg: cfg, log: log}
	stores, err := a.buildStores(ctx, o)
	if err != nil {
		a.release(ctx)
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	application, err := app.New(stores, log, a.resources...)
	if err != nil {
		a.release(ctx)
		return nil, err
	}
	a.app = application

	if name == httpapi.AppTasks && cfg.Tasks.SeedDemo {
		if err := seedTasks(ctx, application); err != nil {
			log.WithError(err).Warn("failed to load demo tasks")
		}
	}

	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, log)
	if err := a.scheduleJobs(limiter); err != nil {
		a.release(ctx)
		return nil, err
	}

	router, err := httpapi.NewHandler(name, application, log)
	if err != nil {
		a.release(ctx)
		return nil, err
	}
	cors := middleware.NewCORSMiddleware(cfg.HTTP.AllowedOrigins())
	a.handler = middleware.LoggingMiddleware(log)(cors.Handler(limiter.Handler(router)))

	a.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return a, nil
}

func (a *Application) buildStores(ctx context.Context, o options) (app.Stores, error) {
	var stores app.Stores

	switch a.name {
	case httpapi.AppTasks:
		if a.cfg.Tasks.Store != config.TaskStoreRedis {
			return stores, nil
		}
		ts, err := redisstore.Dial(ctx, redisstore.Options{
			Addr:     a.cfg.Tasks.RedisAddr,
			Password: a.cfg.Tasks.RedisPassword,
			DB:       a.cfg.Tasks.RedisDB,
			Prefix:   a.cfg.Tasks.RedisPrefix,
		})
		if err != nil {
			return stores, err
		}
		a.resources = append(a.resources, system.NewResource("redis-task-store", ts))
		stores.Tasks = ts
		a.log.WithField("addr", a.cfg.Tasks.RedisAddr).Info("using redis task store")
		return stores, nil

	case httpapi.AppNPI, httpapi.AppHETS:
		if !a.cfg.Database.Configured() {
			a.log.Warn("PGHOST, PGDATABASE or PGUSER not set; using in-memory store")
			return stores, nil
		}
		store, err := a.openPostgres(ctx, o)
		if err != nil {
			return stores, err
		}
		if a.name == httpapi.AppNPI {
			stores.Applications = store
		} else {
			stores.Enrollments = store
		}
		return stores, nil

	default:
		return stores, fmt.Errorf("unknown app %q", a.name)
	}
}

func (a *Application) openPostgres(ctx context.Context, o options) (*postgres.Store, error) {
	source := o.source
	if source == nil {
		var err error
		if source, err = credentials.FromConfig(a.cfg.Credentials); err != nil {
			return nil, fmt.Errorf("credential source: %w", err)
		}
	}

	poolOpts := []database.Option{database.WithObserver(metrics.PoolObserver{})}
	if o.open != nil {
		poolOpts = append(poolOpts, database.WithOpenFunc(o.open))
	}
	pool, err := database.NewPool(database.ConfigFrom(a.cfg.Database), source, a.log, poolOpts...)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	a.resources = append(a.resources, system.NewResource("postgres-pool", pool))

	schema := SchemaFor(a.name, a.cfg.Database)
	log := a.log.WithField("schema", schema).WithField("provider", source.Name())
	if err := initSchema(ctx, pool, a.name, schema); err != nil {
		// The enrollment app cannot serve anything without its tables; the
		// application API keeps running and reports the failure on /api/health.
		if a.name == httpapi.AppHETS {
			return nil, fmt.Errorf("initialize schema %s: %w", schema, err)
		}
		log.WithError(err).Error("database initialization failed")
	} else {
		log.Info("database schema ready")
	}
	return postgres.New(pool, schema), nil
}

// SchemaFor returns the schema the named app uses for the configured user.
func SchemaFor(name string, db config.DatabaseConfig) string {
	return database.SchemaName(db.AppName, db.User, defaultAppNames[name])
}

func initSchema(ctx context.Context, pool *database.Pool, name, schema string) error {
	stmts := migrations.NPI(schema)
	if name == httpapi.AppHETS {
		stmts = migrations.HETS(schema)
	}
	return pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return migrations.Apply(ctx, conn, stmts...)
	})
}

// seedTasks loads the demo tasks into an empty store.
func seedTasks(ctx context.Context, application *app.Application) error {
	n, err := application.Tasks.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return application.Tasks.SeedDemo(ctx)
}

func (a *Application) scheduleJobs(limiter *middleware.RateLimiter) error {
	err := a.app.Schedule("ratelimit-cleanup", limiterCleanupSpec, func(context.Context) {
		if removed := limiter.Cleanup(limiterMaxIdle); removed > 0 {
			a.log.WithField("removed", removed).Debug("dropped idle rate limiters")
		}
	})
	if err != nil {
		return err
	}
	if a.pool == nil {
		return nil
	}
	return a.app.Schedule("database-probe", databaseProbeSpec, func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, databaseProbeLimit)
		defer cancel()
		err := a.pool.Ping(ctx)
		metrics.SetDatabaseUp(a.name, err == nil)
		if err != nil {
			a.log.WithError(err).Warn("database probe failed")
		}
	})
}

// Jobs lists the background jobs scheduled for this app.
func (a *Application) Jobs() []string {
	return a.app.Jobs()
}

// Handler returns the fully wrapped HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Addr returns the listener address once Run is serving, nil before.
func (a *Application) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Run starts background services and the HTTP server, and blocks until ctx
// is cancelled or the server fails. Resources are released before returning.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		a.release(ctx)
		return fmt.Errorf("start services: %w", err)
	}
	a.log.WithField("services", a.app.Services()).Debug("services started")

	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return errors.Join(fmt.Errorf("listen %s: %w", a.server.Addr, err), a.Shutdown(context.Background()))
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.WithField("app", a.name).Infof("HTTP server listening on %s", ln.Addr())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})
	return g.Wait()
}

// Shutdown gracefully stops the HTTP server, then the lifecycle services in
// reverse order: the scheduler first, then the pool and store clients. It is
// safe to call more than once, and before Run.
func (a *Application) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		timeout := a.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var errs []error
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := a.app.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		a.release(shutdownCtx)
		a.stopErr = errors.Join(errs...)
		a.log.Info("shutdown complete")
	})
	return a.stopErr
}

// release stops resources the manager did not, newest first. Resources the
// manager already stopped are no-ops.
func (a *Application) release(ctx context.Context) {
	for i := len(a.resources) - 1; i >= 0; i-- {
		res := a.resources[i]
		if err := res.Stop(ctx); err != nil {
			a.log.WithError(err).WithField("resource", res.Name()).Warn("error closing resource")
		}
	}
}
