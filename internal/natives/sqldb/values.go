package sqldb

import (
	"database/sql"
	"fmt"
	"glang/internal/object"
	"math/big"
	"strconv"
	"time"
)

// toParams converts argument values into driver parameters.
func toParams(args []object.Value) ([]any, *object.Exception) {
	params := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *object.Null:
			params[i] = nil
		case *object.Boolean:
			params[i] = v.Value
		case *object.Integer:
			if !v.Value.IsInt64() {
				return nil, object.NewException(object.TypeError, "integer parameter %s does not fit in 64 bits", v.Value)
			}
			params[i] = v.Value.Int64()
		case *object.Float:
			f, _ := v.Value.Float64()
			params[i] = f
		case *object.String:
			params[i] = v.Value
		default:
			return nil, object.NewException(object.TypeError, "cannot bind %s as a query parameter", arg.Type())
		}
	}
	return params, nil
}

func renderRows(rows *sql.Rows) (object.Value, *object.Exception) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, object.NewException(object.GenericError, "query failed: %s", err)
	}

	result := &object.Vector{Elements: []object.Value{}}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, object.NewException(object.GenericError, "scan failed: %s", err)
		}

		row := object.NewMap()
		for i, col := range columns {
			row.Put(&object.String{Value: col}, fromDriver(values[i]))
		}
		result.Elements = append(result.Elements, row)
	}
	if err := rows.Err(); err != nil {
		return nil, object.NewException(object.GenericError, "query failed: %s", err)
	}
	return result, nil
}

// fromDriver maps a scanned column value onto the value model. Floats are
// taken at their shortest decimal form so 0.1 reads back as 0.1.
func fromDriver(v any) object.Value {
	switch x := v.(type) {
	case nil:
		return object.NULL
	case int64:
		return object.NewInteger(x)
	case float64:
		r, ok := new(big.Rat).SetString(strconv.FormatFloat(x, 'f', -1, 64))
		if !ok {
			return object.NULL
		}
		return object.NewFloat(r)
	case bool:
		return object.NativeBoolToBooleanObject(x)
	case []byte:
		return &object.String{Value: string(x)}
	case string:
		return &object.String{Value: x}
	case time.Time:
		return &object.String{Value: x.Format(time.RFC3339)}
	default:
		return &object.String{Value: fmt.Sprintf("%v", v)}
	}
}
