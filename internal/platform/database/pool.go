// Package database provides a PostgreSQL connection pool whose password is a
// short-lived credential. The pool is built lazily and rebuilt with a fresh
// credential once the current one is older than the refresh threshold.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pawansangari/dataconnect-apps/internal/platform/credentials"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// State describes the pool lifecycle.
type State int

const (
	StateAbsent State = iota
	StatePresent
	StateStale
)

func (s State) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateStale:
		return "stale"
	default:
		return "absent"
	}
}

// OpenFunc opens a database handle. Replaced in tests.
type OpenFunc func(driverName, dsn string) (*sqlx.DB, error)

// Observer is notified about credential refreshes.
type Observer interface {
	CredentialRefreshed(provider string, err error)
	PoolRebuilt()
}

// Pool owns the live *sqlx.DB and the credential it was built with.
type Pool struct {
	cfg      Config
	source   credentials.Source
	log      *logger.Logger
	open     OpenFunc
	now      func() time.Time
	observer Observer

	mu        sync.RWMutex
	db        *sqlx.DB
	cred      credentials.Credential
	fetchedAt time.Time
}

// Option customises a Pool.
type Option func(*Pool)

// WithOpenFunc replaces sqlx.Open.
func WithOpenFunc(fn OpenFunc) Option {
	return func(p *Pool) { p.open = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

// WithObserver registers a refresh observer.
func WithObserver(o Observer) Option {
	return func(p *Pool) { p.observer = o }
}

// NewPool validates cfg and returns an empty pool. No connection or
// credential fetch happens until first use.
func NewPool(cfg Config, source credentials.Source, log *logger.Logger, opts ...Option) (*Pool, error) {
	if source == nil {
		return nil, errors.New("credential source is required")
	}
	if strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.Name) == "" || strings.TrimSpace(cfg.User) == "" {
		return nil, errors.New("database host, name and user are required")
	}
	cfg.applyDefaults()
	if cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("min connections (%d) exceed max (%d)", cfg.MinConns, cfg.MaxConns)
	}
	if log == nil {
		log = logger.NewDefault("database")
	}

	p := &Pool{
		cfg:    cfg,
		source: source,
		log:    log,
		open:   sqlx.Open,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// State reports whether the pool is absent, present or stale.
func (p *Pool) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch {
	case p.db == nil:
		return StateAbsent
	case p.staleLocked():
		return StateStale
	default:
		return StatePresent
	}
}

// CredentialAge returns how long ago the current credential was fetched, or
// zero when there is none.
func (p *Pool) CredentialAge() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.fetchedAt.IsZero() {
		return 0
	}
	return p.now().Sub(p.fetchedAt)
}

// Conn returns a dedicated connection, refreshing the credential and
// rebuilding the pool first when needed. Callers must Close the connection.
func (p *Pool) Conn(ctx context.Context) (*sqlx.Conn, error) {
	p.mu.RLock()
	if p.db != nil && !p.staleLocked() {
		conn, err := p.db.Connx(ctx)
		p.mu.RUnlock()
		return conn, p.wrap("acquire connection", err)
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureLocked(ctx); err != nil {
		return nil, err
	}
	conn, err := p.db.Connx(ctx)
	return conn, p.wrap("acquire connection", err)
}

// WithConn runs fn on a pooled connection and always releases it.
func (p *Pool) WithConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back on error or panic; the connection is released on
// every path.
func (p *Pool) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	conn, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return p.wrap("begin transaction", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			p.log.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return p.wrap("commit transaction", err)
	}
	return nil
}

// Ping checks that a connection can be acquired and used.
func (p *Pool) Ping(ctx context.Context) error {
	return p.WithConn(ctx, func(conn *sqlx.Conn) error {
		return p.wrap("ping", conn.PingContext(ctx))
	})
}

// Close releases the pool. A later Conn builds a new one.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Pool) staleLocked() bool {
	now := p.now()
	return now.Sub(p.fetchedAt) > p.cfg.RefreshAfter || p.cred.Expired(now)
}

// ensureLocked builds the pool if it is absent or stale. Caller holds the
// write lock.
func (p *Pool) ensureLocked(ctx context.Context) error {
	if p.db != nil {
		if !p.staleLocked() {
			return nil
		}
		p.log.WithField("credential_age", p.now().Sub(p.fetchedAt).Round(time.Second)).
			Info("database credential stale; rebuilding pool")
		if err := p.closeLocked(); err != nil {
			p.log.WithError(err).Warn("closing stale pool")
		}
	}

	p.log.WithField("provider", p.source.Name()).Info("refreshing database credential")
	cred, err := p.source.Fetch(ctx)
	if p.observer != nil {
		p.observer.CredentialRefreshed(p.source.Name(), err)
	}
	if err != nil {
		p.log.WithError(err).Error("database credential refresh failed")
		return fmt.Errorf("refresh database credential: %w", err)
	}
	fetchedAt := p.now()

	db, err := p.open(DriverName, p.cfg.DSN(cred.Token))
	if err != nil {
		return fmt.Errorf("open database: %s", sanitize(err))
	}
	db.SetMaxOpenConns(p.cfg.MaxConns)
	db.SetMaxIdleConns(p.cfg.MinConns)
	db.SetConnMaxLifetime(p.cfg.RefreshAfter)

	pingCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %s", sanitize(err))
	}

	p.db = db
	p.cred = cred
	p.fetchedAt = fetchedAt
	if p.observer != nil {
		p.observer.PoolRebuilt()
	}
	p.log.WithFields(map[string]interface{}{
		"host":      p.cfg.Host,
		"database":  p.cfg.Name,
		"min_conns": p.cfg.MinConns,
		"max_conns": p.cfg.MaxConns,
	}).Info("database pool ready")
	return nil
}

func (p *Pool) closeLocked() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	p.cred = credentials.Credential{}
	p.fetchedAt = time.Time{}
	return err
}

func (p *Pool) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
