package evaluator

import (
	"glang/internal/object"
	"strings"
	"unicode/utf8"
)

// preludeFunctions are bound in the scope enclosing the globals, so a
// program may shadow any of them.
func (e *Evaluator) preludeFunctions() []*object.NativeFunction {
	return []*object.NativeFunction{
		funcLen(),
		funcType(),
		funcStr(),
		e.funcPrint(),
	}
}

// funcLen counts characters of a string or entries of a collection.
func funcLen() *object.NativeFunction {
	return &object.NativeFunction{
		Name:  "len",
		Arity: 1,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			switch arg := args[0].(type) {
			case *object.String:
				return object.NewInteger(int64(utf8.RuneCountInString(arg.Value))), nil
			case *object.Vector:
				return object.NewInteger(int64(len(arg.Elements))), nil
			case *object.Map:
				return object.NewInteger(int64(arg.Len())), nil
			default:
				return nil, object.NewException(object.TypeError,
					"object of type '%s' has no len()", args[0].Type())
			}
		},
	}
}

func funcType() *object.NativeFunction {
	return &object.NativeFunction{
		Name:  "type",
		Arity: 1,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			return &object.String{Value: string(args[0].Type())}, nil
		},
	}
}

func funcStr() *object.NativeFunction {
	return &object.NativeFunction{
		Name:  "str",
		Arity: 1,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			if s, ok := args[0].(*object.String); ok {
				return s, nil
			}
			return &object.String{Value: args[0].Inspect()}, nil
		},
	}
}

// funcPrint writes its arguments separated by spaces and ends the line.
func (e *Evaluator) funcPrint() *object.NativeFunction {
	return &object.NativeFunction{
		Name:  "print",
		Arity: object.AnyArity,
		Fn: func(args []object.Value) (object.Value, *object.Exception) {
			parts := make([]string, len(args))
			for i, arg := range args {
				parts[i] = arg.Inspect()
			}
			if _, err := e.out.Write([]byte(strings.Join(parts, " ") + "\n")); err != nil {
				return nil, object.NewException(object.GenericError, "print: %s", err)
			}
			return object.NULL, nil
		},
	}
}
