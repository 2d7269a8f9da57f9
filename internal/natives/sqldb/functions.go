package sqldb

import (
	"database/sql"
	"glang/internal/object"
)

func (s *Store) fnOpen() *object.NativeFunction {
	return &object.NativeFunction{
		Name:  "open",
		Arity: 2,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			driver, exc := stringArg("open", args[0])
			if exc != nil {
				return nil, exc
			}
			dsn, exc := stringArg("open", args[1])
			if exc != nil {
				return nil, exc
			}

			id, err := s.open(driver, dsn)
			if err != nil {
				return nil, object.NewException(object.GenericError, "%s", err)
			}
			return object.NewInteger(id), nil
		},
	}
}

func (s *Store) fnExec() *object.NativeFunction {
	return &object.NativeFunction{
		Name:  "exec",
		Arity: object.AnyArity,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			c, query, params, exc := s.statementArgs("exec", args)
			if exc != nil {
				return nil, exc
			}

			result, err := c.target().Exec(query, params...)
			if err != nil {
				return nil, object.NewException(object.GenericError, "exec failed: %s", err)
			}

			summary := object.NewMap()
			summary.Put(&object.String{Value: "rows_affected"}, resultInt(result.RowsAffected()))
			summary.Put(&object.String{Value: "last_insert_id"}, resultInt(result.LastInsertId()))
			return summary, nil
		},
	}
}

func (s *Store) fnQuery() *object.NativeFunction {
	return &object.NativeFunction{
		Name:  "query",
		Arity: object.AnyArity,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			c, query, params, exc := s.statementArgs("query", args)
			if exc != nil {
				return nil, exc
			}

			rows, err := c.target().Query(query, params...)
			if err != nil {
				return nil, object.NewException(object.GenericError, "query failed: %s", err)
			}
			defer rows.Close()

			return renderRows(rows)
		},
	}
}

func (s *Store) fnClose() *object.NativeFunction {
	return &object.NativeFunction{
		Name:  "close",
		Arity: 1,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			c, exc := s.remove(args[0])
			if exc != nil {
				return nil, exc
			}
			if c.tx != nil {
				c.tx.Rollback()
			}
			if err := c.db.Close(); err != nil {
				return nil, object.NewException(object.GenericError, "close failed: %s", err)
			}
			return object.NULL, nil
		},
	}
}

func (s *Store) fnBegin() *object.NativeFunction {
	return &object.NativeFunction{
		Name:  "begin",
		Arity: 1,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			c, exc := s.lookup(args[0])
			if exc != nil {
				return nil, exc
			}
			if c.tx != nil {
				return nil, object.NewException(object.GenericError, "transaction already in progress")
			}

			tx, err := c.db.Begin()
			if err != nil {
				return nil, object.NewException(object.GenericError, "failed to begin transaction: %s", err)
			}
			c.tx = tx
			return args[0], nil
		},
	}
}

func (s *Store) fnCommit() *object.NativeFunction {
	return s.finishTransaction("commit", (*sql.Tx).Commit)
}

func (s *Store) fnRollback() *object.NativeFunction {
	return s.finishTransaction("rollback", (*sql.Tx).Rollback)
}

func (s *Store) finishTransaction(name string, finish func(*sql.Tx) error) *object.NativeFunction {
	return &object.NativeFunction{
		Name:  name,
		Arity: 1,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			c, exc := s.lookup(args[0])
			if exc != nil {
				return nil, exc
			}
			if c.tx == nil {
				return nil, object.NewException(object.GenericError, "no transaction in progress")
			}

			tx := c.tx
			c.tx = nil
			if err := finish(tx); err != nil {
				return nil, object.NewException(object.GenericError, "failed to %s transaction: %s", name, err)
			}
			return args[0], nil
		},
	}
}

// statementArgs unpacks (handle, sql, params...).
func (s *Store) statementArgs(name string, args []object.Value) (*conn, string, []any, *object.Exception) {
	if len(args) < 2 {
		return nil, "", nil, object.NewMinArityError(name, 2, len(args))
	}

	c, exc := s.lookup(args[0])
	if exc != nil {
		return nil, "", nil, exc
	}
	query, exc := stringArg(name, args[1])
	if exc != nil {
		return nil, "", nil, exc
	}
	params, exc := toParams(args[2:])
	if exc != nil {
		return nil, "", nil, exc
	}
	return c, query, params, nil
}

func stringArg(name string, v object.Value) (string, *object.Exception) {
	s, ok := v.(*object.String)
	if !ok {
		return "", object.NewException(object.TypeError, "%s() expects a String, not %s", name, v.Type())
	}
	return s.Value, nil
}

func resultInt(n int64, err error) object.Value {
	if err != nil {
		return object.NULL
	}
	return object.NewInteger(n)
}
