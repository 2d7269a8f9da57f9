package evaluator

import (
	"glang/internal/object"
	"glang/internal/token"
	"log/slog"
)

// applyFunction invokes a callee with already evaluated arguments. Arity is
// checked before anything runs, so a mismatched call has no side effects.
// An exception escaping the callee gets one frame for the call site.
func (e *Evaluator) applyFunction(pos token.Position, fn object.Value, args []object.Value) (object.Value, *object.Exception) {
	switch fn := fn.(type) {

	case *object.Function:
		if len(args) != len(fn.Parameters) {
			return nil, e.raise(object.NewArityError(fn.DisplayName(), len(fn.Parameters), len(args)), pos)
		}

		e.logger.Debug("call function",
			slog.String("function", fn.DisplayName()),
			slog.Int("args", len(args)))

		e.PushEnv(extendFunctionEnv(fn, args))
		result, exc := e.evalBlock(fn.Body)
		e.PopEnv()

		if exc != nil {
			return nil, e.raise(exc, pos)
		}
		return result, nil

	case *object.NativeFunction:
		if fn.Arity != object.AnyArity && len(args) != fn.Arity {
			return nil, e.raise(object.NewArityError(fn.Name, fn.Arity, len(args)), pos)
		}

		e.logger.Debug("call native function",
			slog.String("function", fn.Name),
			slog.Int("args", len(args)))

		result, exc := fn.Fn(args)
		if exc != nil {
			return nil, e.raise(exc, pos)
		}
		if result == nil {
			return object.NULL, nil
		}
		return result, nil
	}

	return nil, e.newException(pos, object.TypeError, "'%s' object is not callable", fn.Type())
}

// extendFunctionEnv binds parameters in a fresh scope whose parent is the
// environment the function captured, not the caller's.
func extendFunctionEnv(fn *object.Function, args []object.Value) *object.Environment {
	env := object.NewEnclosedEnvironment(fn.Env)

	for i, param := range fn.Parameters {
		env.Set(param, args[i])
	}

	return env
}
