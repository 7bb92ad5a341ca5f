// Package redis provides a TaskStore backed by Redis so task state survives
// restarts and can be shared between instances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/task"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
)

const maxTxRetries = 5

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// TaskStore keeps each task as a JSON string under <prefix>:task:<id>. A
// sorted set scored by id keeps listing order, and an INCR counter hands out
// ids that are never reused.
type TaskStore struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ storage.TaskStore = (*TaskStore)(nil)
var _ storage.Pinger = (*TaskStore)(nil)

// Options configures the client built by Dial.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Dial connects to Redis and returns a store using it.
func Dial(ctx context.Context, opts Options) (*TaskStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return New(client, opts.Prefix), nil
}

// New wraps an existing client.
func New(client goredis.UniversalClient, prefix string) *TaskStore {
	if prefix == "" {
		prefix = "tasks"
	}
	return &TaskStore{client: client, prefix: prefix, now: func() time.Time { return time.Now().UTC() }}
}

func (s *TaskStore) counterKey() string { return s.prefix + ":next_id" }
func (s *TaskStore) indexKey() string   { return s.prefix + ":ids" }
func (s *TaskStore) taskKey(id int) string {
	return s.prefix + ":task:" + strconv.Itoa(id)
}

// Ping checks connectivity.
func (s *TaskStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *TaskStore) Close() error {
	return s.client.Close()
}

func (s *TaskStore) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	id, err := s.client.Incr(ctx, s.counterKey()).Result()
	if err != nil {
		return task.Task{}, fmt.Errorf("allocate task id: %w", err)
	}
	t.ID = int(id)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return task.Task{}, err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.taskKey(t.ID), payload, 0)
		pipe.ZAdd(ctx, s.indexKey(), &goredis.Z{Score: float64(t.ID), Member: t.ID})
		return nil
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("store task %d: %w", t.ID, err)
	}
	return t, nil
}

func (s *TaskStore) GetTask(ctx context.Context, id int) (task.Task, error) {
	return s.load(ctx, s.client, id)
}

func (s *TaskStore) ListTasks(ctx context.Context) ([]task.Task, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list task ids: %w", err)
	}
	out := make([]task.Task, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.prefix + ":task:" + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var t task.Task
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *TaskStore) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	return s.mutate(ctx, t.ID, func(existing *task.Task) {
		existing.Title = t.Title
		existing.Description = t.Description
		existing.Priority = t.Priority
	})
}

func (s *TaskStore) ToggleTask(ctx context.Context, id int) (task.Task, error) {
	return s.mutate(ctx, id, func(existing *task.Task) {
		existing.Completed = !existing.Completed
	})
}

func (s *TaskStore) DeleteTask(ctx context.Context, id int) (task.Task, error) {
	var deleted task.Task
	key := s.taskKey(id)
	err := s.retry(ctx, func(tx *goredis.Tx) error {
		existing, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, s.indexKey(), id)
			return nil
		})
		if err == nil {
			deleted = existing
		}
		return err
	}, key)
	if err != nil {
		return task.Task{}, err
	}
	return deleted, nil
}

// mutate applies fn to the stored task under WATCH so concurrent writers
// never lose an update.
func (s *TaskStore) mutate(ctx context.Context, id int, fn func(*task.Task)) (task.Task, error) {
	var updated task.Task
	key := s.taskKey(id)
	err := s.retry(ctx, func(tx *goredis.Tx) error {
		existing, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		fn(&existing)
		payload, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err == nil {
			updated = existing
		}
		return err
	}, key)
	if err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

func (s *TaskStore) retry(ctx context.Context, fn func(*goredis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("task %s: too much contention", keys[0])
}

func (s *TaskStore) load(ctx context.Context, c getter, id int) (task.Task, error) {
	raw, err := c.Get(ctx, s.taskKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return task.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("load task %d: %w", id, err)
	}
	var t task.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return task.Task{}, fmt.Errorf("decode task %d: %w", id, err)
	}
	return t, nil
}
