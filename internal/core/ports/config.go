package ports

import (
	"context"
	"errors"
)

var (
	ErrConfigNotFound = errors.New("unbound.conf not found")
	ErrBackupNotFound = errors.New("backup file not found")
)

// ConfigStore gives access to the resolver configuration file and its backup.
// Content is opaque; no resolver syntax is checked.
type ConfigStore interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, content string) error
	Restore(ctx context.Context) error
	// EnsureBackup snapshots the primary file once, if no backup exists yet.
	EnsureBackup(ctx context.Context) (bool, error)
}
