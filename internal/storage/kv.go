package storage

import (
	"context"
	"errors"
)

// Well-known record-store keys. Each holds one JSON-encoded collection.
const (
	KeySchedules = "schedules"
	KeyTasks     = "tasks"
)

var ErrNotFound = errors.New("storage: not found")

// KV is the durable record store: opaque string values under string
// keys. A missing key is reported through found=false, not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
}
