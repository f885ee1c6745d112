package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/jamiec/internal/config"
	"github.com/jamiec/internal/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const (
	dialectFlag     = "dialect"
	databaseURLFlag = "database-url"
	dirFlag         = "dir"
)

// newConnectionFlags 为每个命令创建独立的参数集合，避免多个命令共享同一组绑定。
func newConnectionFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		dialectFlag: &cobraflags.StringFlag{
			Name:  dialectFlag,
			Value: "",
			Usage: "Database dialect (sqlite, postgres). Defaults to DATABASE_DIALECT",
		},
		databaseURLFlag: &cobraflags.StringFlag{
			Name:  databaseURLFlag,
			Value: "",
			Usage: "Database connection string. Defaults to DATABASE_URL",
		},
		dirFlag: &cobraflags.StringFlag{
			Name:  dirFlag,
			Value: "",
			Usage: "Directory of .sql migration files. Defaults to the embedded set for the dialect",
		},
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "migrate [up|status]",
		Short: "Apply pending SQL migrations",
		Long: `Apply every pending SQL migration in filename order, each in its own transaction.

Available subcommands:
  up      - Apply pending migrations (default)
  status  - Show applied and pending migrations`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          upCommand,
	}
	cobraflags.RegisterMap(root, newConnectionFlags())

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE:  upCommand,
	}
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE:  statusCommand,
	}
	cobraflags.RegisterMap(upCmd, newConnectionFlags())
	cobraflags.RegisterMap(statusCmd, newConnectionFlags())

	root.AddCommand(upCmd, statusCmd)
	return root
}

func upCommand(cmd *cobra.Command, _ []string) error {
	migrator, closeDB, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	out := cmd.OutOrStdout()
	pending, err := migrator.Pending(cmd.Context())
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(out, "No new migrations to apply.")
		return nil
	}

	applied, err := migrator.Up(cmd.Context())
	for _, file := range pending[:applied] {
		fmt.Fprintf(out, "Applied: %s\n", file)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Done. Applied %d migration(s).\n", applied)
	return nil
}

func statusCommand(cmd *cobra.Command, _ []string) error {
	migrator, closeDB, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	status, err := migrator.Status(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total migrations: %d\n", status.TotalMigrations)
	for _, file := range status.Applied {
		fmt.Fprintf(out, "  [x] %s\n", file)
	}
	for _, file := range status.Pending {
		fmt.Fprintf(out, "  [ ] %s\n", file)
	}
	if !status.HasPendingChanges {
		fmt.Fprintln(out, "Database is up to date.")
	}
	return nil
}

// openMigrator 组合环境配置与命令行参数，命令行优先。
// 参数值从实际执行的命令读取。
func openMigrator(cmd *cobra.Command) (*db.Migrator, func(), error) {
	dialect := flagValue(cmd, dialectFlag)
	dsn := flagValue(cmd, databaseURLFlag)
	if dialect == "" || dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		if dialect == "" {
			dialect = cfg.DatabaseDialect
		}
		if dsn == "" {
			dsn = cfg.DatabaseURL
		}
	}

	fsys, err := migrationFiles(dialect, flagValue(cmd, dirFlag))
	if err != nil {
		return nil, nil, err
	}

	gdb, err := db.Open(db.Options{Dialect: dialect, DSN: dsn})
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(gdb); err != nil {
			slog.Warn("close database", "error", err)
		}
	}
	return newMigrator(gdb, fsys), closeDB, nil
}

func flagValue(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func migrationFiles(dialect, dir string) (fs.FS, error) {
	if dir = strings.TrimSpace(dir); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("migrations directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("migrations directory: %s is not a directory", dir)
		}
		return os.DirFS(dir), nil
	}
	return db.Migrations(dialect)
}

func newMigrator(gdb *gorm.DB, fsys fs.FS) *db.Migrator {
	// 进度由命令自己输出，迁移器只记录警告以上的日志
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return db.NewMigrator(gdb, fsys).WithLogger(logger)
}
