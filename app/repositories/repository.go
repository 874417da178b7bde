package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"quill/app/logging"
	"quill/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicate   = errors.New("duplicate record")
	ErrUnsupported = errors.New("operation not supported by this store")
)

// DuplicateError reports a unique constraint violation on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverMemory   = "memory"
)

// InMemory can be passed as Options.BadgerDir to keep badger data in memory.
const InMemory = ":memory:"

// Options selects and configures a store backend.
type Options struct {
	Driver    string
	DSN       string
	BadgerDir string
	Logger    zerolog.Logger
}

// Store bundles the repositories of one backend with its lifecycle.
type Store struct {
	Users    UserRepository
	Posts    PostRepository
	Comments CommentRepository
	Driver   string

	gormDB   *gorm.DB
	badgerDB *badger.DB
}

// OpenStore opens the backend named by opts.Driver.
func OpenStore(opts Options) (*Store, error) {
	switch opts.Driver {
	case DriverSQLite:
		return openGorm(opts, sqlite.Open(sqliteDSN(opts.DSN)))
	case DriverPostgres:
		return openGorm(opts, postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        opts.DSN,
		}))
	case DriverBadger:
		return openBadger(opts)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// NewGormStore wraps an already open GORM connection.
func NewGormStore(db *gorm.DB, driver string) *Store {
	return &Store{
		Users:    NewGormUserRepository(db),
		Posts:    NewGormPostRepository(db),
		Comments: NewGormCommentRepository(db),
		Driver:   driver,
		gormDB:   db,
	}
}

// NewBadgerStore wraps an already open badger database.
func NewBadgerStore(db *badger.DB) *Store {
	return &Store{
		Users:    NewBadgerUserRepository(db),
		Posts:    NewBadgerPostRepository(db),
		Comments: NewBadgerCommentRepository(db),
		Driver:   DriverBadger,
		badgerDB: db,
	}
}

func openGorm(opts Options, dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.NewGormLogger(opts.Logger),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}

	if opts.Driver == DriverSQLite {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return NewGormStore(db, opts.Driver), nil
}

func openBadger(opts Options) (*Store, error) {
	dir := opts.BadgerDir
	badgerOpts := badger.DefaultOptions(dir).
		WithLogger(logging.NewBadgerLogger(opts.Logger)).
		WithNumVersionsToKeep(1)
	if dir == InMemory {
		badgerOpts = badgerOpts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return NewBadgerStore(db), nil
}

// sqliteDSN turns foreign key enforcement on, which the cascades rely on.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// Migrate creates or updates the relational schema. Badger needs none.
func (s *Store) Migrate(ctx context.Context) error {
	if s.gormDB == nil {
		return nil
	}
	return s.gormDB.WithContext(ctx).AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{})
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	switch {
	case s.gormDB != nil:
		sqlDB, err := s.gormDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	case s.badgerDB != nil:
		if s.badgerDB.IsClosed() {
			return errors.New("badger: database is closed")
		}
	}
	return nil
}

// Clean removes every user, post and comment.
func (s *Store) Clean(ctx context.Context) error {
	switch {
	case s.gormDB != nil:
		return s.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
			for _, model := range []interface{}{&models.Comment{}, &models.Post{}, &models.User{}} {
				if err := tx.Delete(model).Error; err != nil {
					return err
				}
			}
			return nil
		})
	case s.badgerDB != nil:
		return s.badgerDB.DropAll()
	}
	return ErrUnsupported
}

// Backup streams a full badger backup to w.
func (s *Store) Backup(w io.Writer) error {
	if s.badgerDB == nil {
		return fmt.Errorf("backup on %s: %w", s.Driver, ErrUnsupported)
	}
	_, err := s.badgerDB.Backup(w, 0)
	return err
}

// Restore loads a badger backup produced by Backup.
func (s *Store) Restore(r io.Reader) error {
	if s.badgerDB == nil {
		return fmt.Errorf("restore on %s: %w", s.Driver, ErrUnsupported)
	}
	return s.badgerDB.Load(r, 16)
}

// Close releases the backend.
func (s *Store) Close() error {
	switch {
	case s.gormDB != nil:
		sqlDB, err := s.gormDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	case s.badgerDB != nil:
		return s.badgerDB.Close()
	}
	return nil
}

// isUniqueViolation recognises unique constraint failures from every driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}

// translateError maps driver errors onto the package's sentinel errors.
func translateError(err error, uniqueField string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return &DuplicateError{Field: uniqueField}
	}
	return err
}
