package db

import (
	"embed"
	"fmt"
	"io/fs"
	"time"
)

//go:embed migrations
var migrationsFS embed.FS

//go:embed base/sqlite_schema.sql
var sqliteTrackingSchemaSQL string

//go:embed base/postgres_schema.sql
var postgresTrackingSchemaSQL string

// SchemaMigration 记录一个已应用的迁移文件，version 即文件名。
type SchemaMigration struct {
	Version   string    `gorm:"primaryKey"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName 指定迁移记录表名。
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// Migrations returns the embedded migration files for a dialect.
func Migrations(dialect string) (fs.FS, error) {
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
	return fs.Sub(migrationsFS, "migrations/"+dialect)
}

func trackingSchemaSQL(dialectName string) (string, error) {
	switch dialectName {
	case DialectSQLite:
		return sqliteTrackingSchemaSQL, nil
	case DialectPostgres:
		return postgresTrackingSchemaSQL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialectName)
	}
}
