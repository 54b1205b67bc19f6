// Package storage uploads files attached to records into an object store
// and hands back a URL the backend can keep.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Driver identifies a store backend.
type Driver string

const (
	DriverS3     Driver = "s3"
	DriverMemory Driver = "memory"
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = errors.New("storage: operation unsupported by driver")

// ErrNotFound is returned for missing objects.
var ErrNotFound = errors.New("storage: object not found")

// PutOptions configures an object write.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored object.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	Metadata     map[string]string
	LastModified time.Time
}

// Store is the object store contract shared by the drivers.
type Store interface {
	Driver() Driver
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Config selects and configures a driver.
type Config struct {
	Driver          string
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// Open builds the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverS3:
		return NewS3(ctx, cfg)
	case DriverMemory, "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
