package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/melih/unbound-panel/internal/core/ports"
)

const fileMode = 0o644

// Store implements ports.ConfigStore on top of the local filesystem.
// Files are not locked; concurrent writers race.
type Store struct {
	path       string
	backupPath string
	log        logrus.FieldLogger
}

// NewStore creates a store for the config at path. An empty backupPath
// defaults to path + ".bak".
func NewStore(path, backupPath string, log logrus.FieldLogger) *Store {
	if backupPath == "" {
		backupPath = path + ".bak"
	}
	return &Store{path: path, backupPath: backupPath, log: log}
}

// Path returns the primary config path.
func (s *Store) Path() string { return s.path }

// BackupPath returns the backup config path.
func (s *Store) BackupPath() string { return s.backupPath }

// Read returns the config contents.
func (s *Store) Read(_ context.Context) (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ports.ErrConfigNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return string(b), nil
}

// Write overwrites the config with content.
func (s *Store) Write(_ context.Context, content string) error {
	if err := os.WriteFile(s.path, []byte(content), fileMode); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	s.log.WithFields(logrus.Fields{"path": s.path, "bytes": len(content)}).Info("config written")
	return nil
}

// Restore copies the backup over the primary config.
func (s *Store) Restore(_ context.Context) error {
	exists, err := fileExists(s.backupPath)
	if err != nil {
		return err
	}
	if !exists {
		return ports.ErrBackupNotFound
	}

	if err := copyFile(s.backupPath, s.path); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	s.log.WithField("backup", s.backupPath).Info("config restored from backup")
	return nil
}

// EnsureBackup copies the primary config to the backup path if the primary
// exists and no backup has been taken yet. It reports whether a backup was
// created.
func (s *Store) EnsureBackup(_ context.Context) (bool, error) {
	primary, err := fileExists(s.path)
	if err != nil {
		return false, err
	}
	backup, err := fileExists(s.backupPath)
	if err != nil {
		return false, err
	}
	if !primary || backup {
		return false, nil
	}

	if err := copyFile(s.path, s.backupPath); err != nil {
		return false, fmt.Errorf("failed to create initial backup: %w", err)
	}
	s.log.WithField("backup", s.backupPath).Info("initial backup created")
	return true, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
