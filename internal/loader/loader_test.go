package loader

import (
	"errors"
	"fmt"
	"glang/internal/object"
	"glang/internal/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLibrary struct {
	symbols map[string]any
	lookups []string
	closed  bool
}

func (l *fakeLibrary) Lookup(symbol string) (any, error) {
	l.lookups = append(l.lookups, symbol)
	if sym, ok := l.symbols[symbol]; ok {
		return sym, nil
	}
	return nil, fmt.Errorf("symbol %s not found", symbol)
}

func (l *fakeLibrary) Close() error {
	l.closed = true
	return nil
}

type fakeOpener struct {
	libs   map[string]*fakeLibrary
	opened []string
}

func (o *fakeOpener) Open(path string) (Library, error) {
	o.opened = append(o.opened, path)
	lib, ok := o.libs[path]
	if !ok {
		return nil, fmt.Errorf("%s: cannot open shared object file: No such file or directory", path)
	}
	return lib, nil
}

func add(args []object.Value) (object.Value, *object.Exception) {
	return object.BinaryOp(token.PLUS, args[0], args[1])
}

func TestLoadBindsModuleNamedAfterFile(t *testing.T) {
	lib := &fakeLibrary{symbols: map[string]any{"Add": add}}
	opener := &fakeOpener{libs: map[string]*fakeLibrary{"/opt/ext/mathx.so": lib}}
	l := New(Options{Opener: opener})

	mod, exc := l.Load("/opt/ext/mathx.so")
	require.Nil(t, exc)
	require.Equal(t, "mathx", mod.Name)
	require.Equal(t, "/opt/ext/mathx.so", mod.Path)

	fn, found, err := mod.Member("add")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, object.AnyArity, fn.Arity)

	result, exc := fn.Fn([]object.Value{object.NewInteger(2), object.NewInteger(3)})
	require.Nil(t, exc)
	require.Equal(t, "5", result.Inspect())

	require.Equal(t, []string{"init", "Init", "add", "Add"}, lib.lookups)
}

func TestLoadOpenFailureCarriesOSMessage(t *testing.T) {
	l := New(Options{Opener: &fakeOpener{}})

	mod, exc := l.Load("missing.so")
	require.Nil(t, mod)
	require.NotNil(t, exc)
	require.Equal(t, object.GenericError, exc.Kind)
	require.Contains(t, exc.Message, "No such file or directory")
	require.Empty(t, exc.Traceback)
}

func TestLoadRunsInitOnce(t *testing.T) {
	calls := 0
	initFn := func() *object.Exception {
		calls++
		return nil
	}
	lib := &fakeLibrary{symbols: map[string]any{"Init": initFn}}
	l := New(Options{Opener: &fakeOpener{libs: map[string]*fakeLibrary{"ext.so": lib}}})

	_, exc := l.Load("ext.so")
	require.Nil(t, exc)
	require.Equal(t, 1, calls)
}

func TestLoadInitFailureClosesLibrary(t *testing.T) {
	initFn := func() *object.Exception {
		return object.NewException(object.GenericError, "database unavailable")
	}
	lib := &fakeLibrary{symbols: map[string]any{"Init": &initFn}}
	l := New(Options{Opener: &fakeOpener{libs: map[string]*fakeLibrary{"ext.so": lib}}})

	mod, exc := l.Load("ext.so")
	require.Nil(t, mod)
	require.NotNil(t, exc)
	require.Equal(t, "Error: database unavailable", exc.Error())
	require.True(t, lib.closed)
}

func TestLoadInitWithWrongSignature(t *testing.T) {
	lib := &fakeLibrary{symbols: map[string]any{"Init": func() error { return nil }}}
	l := New(Options{Opener: &fakeOpener{libs: map[string]*fakeLibrary{"ext.so": lib}}})

	_, exc := l.Load("ext.so")
	require.NotNil(t, exc)
	require.Equal(t, object.TypeError, exc.Kind)
}

func TestResolveRejectsWrongSignature(t *testing.T) {
	lib := &fakeLibrary{symbols: map[string]any{
		"Version": func() string { return "1" },
	}}
	l := New(Options{Opener: &fakeOpener{libs: map[string]*fakeLibrary{"ext.so": lib}}})

	mod, exc := l.Load("ext.so")
	require.Nil(t, exc)

	_, found, err := mod.Member("version")
	require.False(t, found)
	require.Error(t, err)
	require.Contains(t, err.Error(), "is not a native function")

	_, found, err = mod.Member("absent")
	require.NoError(t, err)
	require.False(t, found)
}

func TestResolveAcceptsFunctionVariables(t *testing.T) {
	var double object.NativeFn = func(args []object.Value) (object.Value, *object.Exception) {
		return object.BinaryOp(token.ASTERISK, args[0], object.NewInteger(2))
	}
	lib := &fakeLibrary{symbols: map[string]any{"Double": &double}}
	l := New(Options{Opener: &fakeOpener{libs: map[string]*fakeLibrary{"ext.so": lib}}})

	mod, _ := l.Load("ext.so")
	fn, found, err := mod.Member("double")
	require.NoError(t, err)
	require.True(t, found)

	result, exc := fn.Fn([]object.Value{object.NewInteger(21)})
	require.Nil(t, exc)
	require.Equal(t, "42", result.Inspect())
}

func TestNativePanicBecomesException(t *testing.T) {
	boom := func(args []object.Value) (object.Value, *object.Exception) {
		panic(errors.New("boom"))
	}
	lib := &fakeLibrary{symbols: map[string]any{"Boom": boom}}
	l := New(Options{Opener: &fakeOpener{libs: map[string]*fakeLibrary{"ext.so": lib}}})

	mod, _ := l.Load("ext.so")
	fn, _, _ := mod.Member("boom")

	_, exc := fn.Fn(nil)
	require.NotNil(t, exc)
	require.Equal(t, object.GenericError, exc.Kind)
	require.Contains(t, exc.Message, "boom")
}

func TestLoadSearchesLibraryPaths(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "geo.so")
	require.NoError(t, os.WriteFile(full, []byte{}, 0o644))

	lib := &fakeLibrary{symbols: map[string]any{}}
	opener := &fakeOpener{libs: map[string]*fakeLibrary{full: lib}}
	l := New(Options{Paths: []string{t.TempDir(), dir}, Opener: opener})

	mod, exc := l.Load("geo")
	require.Nil(t, exc)
	require.Equal(t, "geo", mod.Name)
	require.Equal(t, []string{full}, opener.opened)
}

func TestModuleName(t *testing.T) {
	cases := map[string]string{
		"/usr/lib/glang/sqlx.so": "sqlx",
		"ext.so":                 "ext",
		"plain":                  "plain",
		"dir/with.dots.so":       "with.dots",
	}
	for path, expected := range cases {
		require.Equal(t, expected, ModuleName(path), path)
	}
}
