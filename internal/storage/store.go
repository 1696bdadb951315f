package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"   // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/logger"
	"github.com/arfanana/smart-internship-engine/internal/storage/migrations"
	"github.com/arfanana/smart-internship-engine/internal/utils"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultDataDir = "./data"
	databaseFile   = "internship-engine.db"
)

// Config describes how to reach the database.
type Config struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	DSNFile         string        `mapstructure:"dsn-file"`
	MaxOpenConns    int           `mapstructure:"max-open-conns"`
	MaxIdleConns    int           `mapstructure:"max-idle-conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn-max-lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect-timeout"`
}

// Store is the database/sql backed repository for students, internships,
// employers and matches.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
	now     func() time.Time
}

// Open connects to the configured database, waits until it answers and
// applies pending migrations.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	log = logger.OrNop(log)

	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if d.name == DriverSQLite {
		dir := cfg.Path
		if dir == "" {
			dir = defaultDataDir
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dir, databaseFile) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	} else if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: postgres dsn is not configured", domain.ErrInvalidInput)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, domain.NewPersistence("opening database", err)
	}

	if d.name == DriverSQLite {
		// One connection per process. Transactions begin immediate so a
		// writer in another process makes them wait under busy_timeout
		// instead of failing on a lock upgrade.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	backoff := utils.DefaultBackoff()
	if cfg.ConnectTimeout > 0 {
		backoff.Timeout = cfg.ConnectTimeout
	}

	err = utils.Retry(ctx, backoff, db.PingContext, func(attempt int, err error) {
		log.Warn("database not ready yet", zap.String("driver", d.name), zap.Int("attempt", attempt), zap.Error(err))
	})
	if err != nil {
		db.Close()
		return nil, domain.NewPersistence("connecting to database", err)
	}

	s := &Store{db: db, dialect: d, logger: log, now: time.Now}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, domain.NewPersistence("running migrations", err)
	}

	log.Debug("database ready", zap.String("driver", d.name))

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the name of the database driver in use.
func (s *Store) Driver() string {
	return s.dialect.name
}

// migrate applies every numbered *.up.sql file newer than the recorded version.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	files, err := fs.Sub(migrations.FS, s.dialect.name)
	if err != nil {
		return fmt.Errorf("locating %s migrations: %w", s.dialect.name, err)
	}

	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		err = s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, s.dialect.rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)"),
				version, s.now().UTC().UnixMilli())
			return err
		})
		if err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		s.logger.Info("applied migration", zap.String("name", name))
	}

	return nil
}

// inTx runs fn in a transaction, rolling back on error or panic.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
