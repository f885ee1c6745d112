package db

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MigrationError reports the file whose execution aborted a run.
type MigrationError struct {
	File string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s failed: %v", e.File, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// MigrationStatus represents the current state of migrations
type MigrationStatus struct {
	Applied           []string `json:"applied"`
	Pending           []string `json:"pending"`
	TotalMigrations   int      `json:"total_migrations"`
	HasPendingChanges bool     `json:"has_pending_changes"`
}

// Migrator applies plain SQL migration files, each exactly once, in
// ascending filename order. The filename is the version.
type Migrator struct {
	db          *gorm.DB
	fsys        fs.FS
	logger      *slog.Logger
	initialized bool
}

// NewMigrator creates a migrator reading *.sql files from the root of fsys.
func NewMigrator(gdb *gorm.DB, fsys fs.FS) *Migrator {
	return &Migrator{
		db:     gdb,
		fsys:   fsys,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the migrator
func (m *Migrator) WithLogger(l *slog.Logger) *Migrator {
	tmp := *m
	tmp.logger = l
	return &tmp
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize(ctx context.Context) error {
	if m.initialized {
		return nil
	}

	schemaSQL, err := trackingSchemaSQL(m.db.Dialector.Name())
	if err != nil {
		return err
	}
	if err := m.db.WithContext(ctx).Exec(schemaSQL).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	m.initialized = true
	return nil
}

// Applied returns applied versions and when each was applied.
func (m *Migrator) Applied(ctx context.Context) (map[string]time.Time, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}

	var rows []SchemaMigration
	if err := m.db.WithContext(ctx).Order("version asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}

	applied := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		applied[row.Version] = row.AppliedAt
	}
	return applied, nil
}

// Files lists the migration files in ascending lexical order.
func (m *Migrator) Files() ([]string, error) {
	entries, err := fs.ReadDir(m.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Pending returns files that have not been applied yet, in apply order.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	files, err := m.Files()
	if err != nil {
		return nil, err
	}

	pending := make([]string, 0, len(files))
	for _, file := range files {
		if _, ok := applied[file]; ok {
			continue
		}
		pending = append(pending, file)
	}
	return pending, nil
}

// Status returns information about applied and pending migrations.
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	files, err := m.Files()
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		Applied:         make([]string, 0, len(applied)),
		Pending:         make([]string, 0, len(files)),
		TotalMigrations: len(files),
	}
	for version := range applied {
		status.Applied = append(status.Applied, version)
	}
	sort.Strings(status.Applied)
	for _, file := range files {
		if _, ok := applied[file]; !ok {
			status.Pending = append(status.Pending, file)
		}
	}
	status.HasPendingChanges = len(status.Pending) > 0
	return status, nil
}

// Up applies every pending migration and returns how many were applied.
// The first failure stops the run; migrations committed before it stay.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	m.logger.Info("Migrating up", "pending", len(pending))

	count := 0
	for _, file := range pending {
		if err := m.apply(ctx, file); err != nil {
			m.logger.Error("Migration failed", "version", file, "error", err)
			return count, &MigrationError{File: file, Err: err}
		}
		m.logger.Info("Applied migration", "version", file)
		count++
	}

	return count, nil
}

// apply runs one file and records it in the same transaction.
func (m *Migrator) apply(ctx context.Context, file string) error {
	body, err := fs.ReadFile(m.fsys, file)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sql := string(body); strings.TrimSpace(sql) != "" {
			if err := tx.Exec(sql).Error; err != nil {
				return err
			}
		}
		record := SchemaMigration{Version: file, AppliedAt: time.Now().UTC()}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}
