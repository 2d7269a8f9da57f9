// Package sqldb is the built-in "sql" module: database/sql exposed to
// programs through integer connection handles.
package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"glang/internal/object"
	"log/slog"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ModuleName is the import path that binds this module.
const ModuleName = "sql"

var driverAliases = map[string]string{
	"sqlite":     "sqlite3",
	"postgresql": "postgres",
}

type Options struct {
	MaxOpenConns int // 0 leaves the driver default
	Logger       *slog.Logger
}

type conn struct {
	db *sql.DB
	tx *sql.Tx
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
}

func (c *conn) target() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

// Store owns every connection opened through the module.
type Store struct {
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	nextID int64
	conns  map[int64]*conn
}

func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		opts:   opts,
		logger: logger,
		conns:  map[int64]*conn{},
	}
}

// Module returns the handle an import of "sql" binds.
func (s *Store) Module() *object.Module {
	return object.NewBuiltinModule(ModuleName,
		s.fnOpen(),
		s.fnExec(),
		s.fnQuery(),
		s.fnClose(),
		s.fnBegin(),
		s.fnCommit(),
		s.fnRollback(),
	)
}

// Close releases every open connection, rolling back pending transactions.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for id, c := range s.conns {
		if c.tx != nil {
			if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				errs = append(errs, err)
			}
		}
		if err := c.db.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.conns, id)
	}
	return errors.Join(errs...)
}

func (s *Store) open(driver, dsn string) (int64, error) {
	if alias, ok := driverAliases[driver]; ok {
		driver = alias
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return 0, fmt.Errorf("failed to open connection: %w", err)
	}
	if s.opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(s.opts.MaxOpenConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return 0, fmt.Errorf("failed to ping database: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.conns[s.nextID] = &conn{db: db}

	s.logger.Debug("sql connection opened",
		slog.Int64("handle", s.nextID),
		slog.String("driver", driver))
	return s.nextID, nil
}

func (s *Store) lookup(handle object.Value) (*conn, *object.Exception) {
	id, exc := handleID(handle)
	if exc != nil {
		return nil, exc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return nil, object.NewException(object.GenericError, "invalid connection handle %d", id)
	}
	return c, nil
}

func (s *Store) remove(handle object.Value) (*conn, *object.Exception) {
	id, exc := handleID(handle)
	if exc != nil {
		return nil, exc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return nil, object.NewException(object.GenericError, "invalid connection handle %d", id)
	}
	delete(s.conns, id)
	return c, nil
}

func handleID(v object.Value) (int64, *object.Exception) {
	i, ok := v.(*object.Integer)
	if !ok || !i.Value.IsInt64() {
		return 0, object.NewException(object.TypeError, "connection handle must be an Integer, not %s", v.Type())
	}
	return i.Value.Int64(), nil
}
