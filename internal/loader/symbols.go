package loader

import (
	"fmt"
	"glang/internal/object"
	"unicode"
	"unicode/utf8"
)

// symbolResolver backs a module handle with the symbols of a library.
type symbolResolver struct {
	module string
	lib    Library
}

func (r *symbolResolver) Resolve(name string) (*object.NativeFunction, error) {
	sym, found := lookup(r.lib, name)
	if !found {
		return nil, nil
	}

	fn, ok := asNativeFn(sym)
	if !ok {
		return nil, fmt.Errorf("symbol '%s' in module '%s' is not a native function (%T)", name, r.module, sym)
	}

	return &object.NativeFunction{
		Name:  name,
		Arity: object.AnyArity,
		Fn:    guard(name, fn),
	}, nil
}

func (r *symbolResolver) Close() error {
	return r.lib.Close()
}

// lookup tries name as written and then with its first letter upper-cased,
// since a library can only export capitalised identifiers.
func lookup(lib Library, name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	if sym, err := lib.Lookup(name); err == nil {
		return sym, true
	}

	r, size := utf8.DecodeRuneInString(name)
	exported := string(unicode.ToUpper(r)) + name[size:]
	if exported == name {
		return nil, false
	}
	if sym, err := lib.Lookup(exported); err == nil {
		return sym, true
	}
	return nil, false
}

// asNativeFn accepts a function symbol or a pointer to a function variable.
func asNativeFn(sym any) (object.NativeFn, bool) {
	switch fn := sym.(type) {
	case func([]object.Value) (object.Value, *object.Exception):
		return fn, true
	case object.NativeFn:
		return fn, true
	case *func([]object.Value) (object.Value, *object.Exception):
		if fn == nil || *fn == nil {
			return nil, false
		}
		return *fn, true
	case *object.NativeFn:
		if fn == nil || *fn == nil {
			return nil, false
		}
		return *fn, true
	}
	return nil, false
}

func asInitFn(sym any) (func() *object.Exception, bool) {
	switch fn := sym.(type) {
	case func() *object.Exception:
		return fn, true
	case *func() *object.Exception:
		if fn == nil || *fn == nil {
			return nil, false
		}
		return *fn, true
	}
	return nil, false
}

// guard turns a panic inside library code into an exception.
func guard(name string, fn object.NativeFn) object.NativeFn {
	return func(args []object.Value) (result object.Value, exc *object.Exception) {
		defer func() {
			if r := recover(); r != nil {
				result, exc = nil, object.NewException(object.GenericError, "native function %s panicked: %v", name, r)
			}
		}()
		return fn(args)
	}
}

func runInit(module string, lib Library) (exc *object.Exception) {
	sym, found := lookup(lib, InitSymbol)
	if !found {
		return nil
	}

	initFn, ok := asInitFn(sym)
	if !ok {
		return object.NewException(object.TypeError, "init symbol in module '%s' has the wrong signature (%T)", module, sym)
	}

	defer func() {
		if r := recover(); r != nil {
			exc = object.NewException(object.GenericError, "init of module '%s' panicked: %v", module, r)
		}
	}()
	return initFn()
}
