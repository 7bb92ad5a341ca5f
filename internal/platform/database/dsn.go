package database

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/pawansangari/dataconnect-apps/internal/config"
)

var (
	credentialsInURL = regexp.MustCompile(`://[^@\s]+@`)
	passwordKV       = regexp.MustCompile(`(?i)(password=)([^\s&]+)`)
)

// Config describes where the pool connects and how it is sized.
type Config struct {
	Host    string
	Port    int
	Name    string
	User    string
	SSLMode string
	AppName string

	MinConns       int
	MaxConns       int
	RefreshAfter   time.Duration
	ConnectTimeout time.Duration
}

// Pool defaults.
const (
	DefaultMinConns     = 2
	DefaultMaxConns     = 10
	DefaultRefreshAfter = 900 * time.Second
)

// ConfigFrom maps the process configuration onto pool settings.
func ConfigFrom(cfg config.DatabaseConfig) Config {
	return Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Name:           cfg.Name,
		User:           cfg.User,
		SSLMode:        cfg.SSLMode,
		AppName:        cfg.AppName,
		MinConns:       cfg.MinConns,
		MaxConns:       cfg.MaxConns,
		RefreshAfter:   cfg.RefreshAfter,
		ConnectTimeout: cfg.ConnectTimeout,
	}
}

func (c *Config) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "require"
	}
	if c.MinConns <= 0 {
		c.MinConns = DefaultMinConns
	}
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.RefreshAfter <= 0 {
		c.RefreshAfter = DefaultRefreshAfter
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
}

// DSN renders a lib/pq connection URL carrying password.
func (c Config) DSN(password string) string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.AppName != "" {
		q.Set("application_name", c.AppName)
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SchemaName derives {app}_schema_{user without dashes}. fallbackApp is used
// when appName is blank.
func SchemaName(appName, user, fallbackApp string) string {
	app := strings.TrimSpace(appName)
	if app == "" {
		app = fallbackApp
	}
	return fmt.Sprintf("%s_schema_%s", app, strings.ReplaceAll(user, "-", ""))
}

// Table returns the quoted, schema-qualified table name.
func Table(schema, table string) string {
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

// sanitize strips passwords from driver errors before they reach logs or
// HTTP responses.
func sanitize(err error) string {
	if err == nil {
		return ""
	}
	s := credentialsInURL.ReplaceAllString(err.Error(), "://***@")
	return passwordKV.ReplaceAllString(s, "${1}***")
}
