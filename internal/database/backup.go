package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"krishi/internal/config"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

const (
	snapshotPrefix          = "krishi_"
	defaultSnapshotInterval = 24 * time.Hour
)

// BackupService snapshots the marketplace database on a schedule. Snapshots
// are plain SQLite files named krishi_<timestamp>.db, and pruning only ever
// touches files with that prefix, so unrelated files in the backup directory
// survive.
type BackupService struct {
	dbPath string
	config config.BackupConfig
	logger *zerolog.Logger
}

func NewBackupService(dbPath string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		dbPath: dbPath,
		config: cfg,
		logger: logger,
	}
}

// Start snapshots once immediately, then on every tick until the context is
// cancelled. Intended to run as a goroutine from main.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("backups disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("dir", s.config.StoragePath).Msg("backup schedule started")

	if err := s.Snapshot(); err != nil {
		s.logger.Error().Err(err).Msg("initial snapshot failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Snapshot(); err != nil {
				s.logger.Error().Err(err).Msg("snapshot failed")
			}
			s.Prune()
		}
	}
}

func (s *BackupService) interval() time.Duration {
	if s.config.Schedule == "" {
		return defaultSnapshotInterval
	}
	d, err := time.ParseDuration(s.config.Schedule)
	if err != nil {
		s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("bad backup schedule, using 24h")
		return defaultSnapshotInterval
	}
	return d
}

// Snapshot writes one timestamped copy of the database. VACUUM INTO gives a
// consistent online copy; when it fails the raw file is copied instead,
// which is only safe against concurrent writers because the store holds a
// single connection.
func (s *BackupService) Snapshot() error {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := snapshotPrefix + time.Now().Format("20060102_150405") + ".db"
	target := filepath.Join(s.config.StoragePath, name)

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", target)); err != nil {
		s.logger.Warn().Err(err).Msg("VACUUM INTO failed, copying the database file")
		if err := s.copySnapshot(target); err != nil {
			return fmt.Errorf("failed to copy database: %w", err)
		}
	}

	s.logger.Info().Str("snapshot", name).Msg("snapshot written")
	return nil
}

func (s *BackupService) copySnapshot(target string) error {
	src, err := os.Open(s.dbPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// Prune deletes snapshots older than the retention window. Files without the
// snapshot prefix are ignored.
func (s *BackupService) Prune() {
	if s.config.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		s.logger.Info().Str("snapshot", entry.Name()).Msg("pruning expired snapshot")
		os.Remove(filepath.Join(s.config.StoragePath, entry.Name()))
	}
}
