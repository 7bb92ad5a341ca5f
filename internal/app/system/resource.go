package system

import (
	"context"
	"io"
	"sync"
)

// Resource is a lifecycle entry for a client that is opened during wiring
// and only needs closing on shutdown. Stop closes it at most once, so it is
// safe to stop a Resource that the manager never started.
type Resource struct {
	name   string
	closer io.Closer

	once sync.Once
	err  error
}

// NewResource wraps c under the given service name.
func NewResource(name string, c io.Closer) *Resource {
	return &Resource{name: name, closer: c}
}

func (r *Resource) Name() string                { return r.name }
func (r *Resource) Start(context.Context) error { return nil }

func (r *Resource) Stop(context.Context) error {
	r.once.Do(func() {
		r.err = r.closer.Close()
	})
	return r.err
}
