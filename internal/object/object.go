package object

import (
	"bytes"
	"glang/internal/ast"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	NULL_OBJ    = "Null"
	BOOLEAN_OBJ = "Boolean"
	INTEGER_OBJ = "Integer"
	FLOAT_OBJ   = "Float"
	STRING_OBJ  = "String"

	VECTOR_OBJ = "Vector"
	MAP_OBJ    = "Map"

	FUNCTION_OBJ        = "Function"
	NATIVE_FUNCTION_OBJ = "NativeFunction"
	MODULE_OBJ          = "Module"
)

// AnyArity marks a native function that accepts any number of arguments.
const AnyArity = -1

var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

type ObjectType string

// Value is the closed set of runtime values. The unexported marker keeps the
// set of kinds fixed to the ones declared in this package.
type Value interface {
	Type() ObjectType
	Inspect() string
	value()
}

// NativeFn is the boundary every native callable implements, including the
// symbols exported by extension libraries.
type NativeFn func(args []Value) (Value, *Exception)

type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }
func (n *Null) value()           {}

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Boolean) value()           {}

// Integer is an arbitrary-precision signed integer. The wrapped big.Int is
// never mutated after construction.
type Integer struct {
	Value *big.Int
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return i.Value.String() }
func (i *Integer) value()           {}

// Float is an exact arbitrary-precision rational. The wrapped big.Rat is
// never mutated after construction.
type Float struct {
	Value *big.Rat
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return formatRat(f.Value) }
func (f *Float) value()           {}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }
func (s *String) value()           {}

type Vector struct {
	Elements []Value
}

func (v *Vector) Type() ObjectType { return VECTOR_OBJ }
func (v *Vector) Inspect() string {
	var out bytes.Buffer

	elements := []string{}
	for _, e := range v.Elements {
		elements = append(elements, Repr(e))
	}

	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")

	return out.String()
}
func (v *Vector) value() {}

type MapPair struct {
	Key   Value
	Value Value
}

// Map associates hashable keys with values. Insertion order is not kept.
type Map struct {
	Pairs map[MapKey]MapPair
}

func NewMap() *Map {
	return &Map{Pairs: map[MapKey]MapPair{}}
}

func (m *Map) Type() ObjectType { return MAP_OBJ }
func (m *Map) Inspect() string {
	pairs := make([]string, 0, len(m.Pairs))
	for _, pair := range m.Pairs {
		pairs = append(pairs, Repr(pair.Key)+": "+Repr(pair.Value))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ", ") + "}"
}
func (m *Map) value() {}

// Put stores v under k, replacing any entry whose key is equal to k.
func (m *Map) Put(k Hashable, v Value) *Map {
	if m.Pairs == nil {
		m.Pairs = map[MapKey]MapPair{}
	}
	m.Pairs[k.MapKey()] = MapPair{Key: k, Value: v}
	return m
}

func (m *Map) Get(k Hashable) (Value, bool) {
	pair, ok := m.Pairs[k.MapKey()]
	return pair.Value, ok
}

func (m *Map) Len() int { return len(m.Pairs) }

// Function is a closure: its Env is the live environment of the definition
// site, shared with every other closure that captured it.
type Function struct {
	Name       string
	Parameters []string
	Body       *ast.Block
	Env        *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	if f.Name == "" {
		return "<fn>"
	}
	return "<fn " + f.Name + ">"
}
func (f *Function) value() {}

// DisplayName is the name used in error messages.
func (f *Function) DisplayName() string {
	if f.Name == "" {
		return "<anonymous>"
	}
	return f.Name
}

type NativeFunction struct {
	Name  string
	Arity int // AnyArity for variadic natives
	Fn    NativeFn
}

func (nf *NativeFunction) Type() ObjectType { return NATIVE_FUNCTION_OBJ }
func (nf *NativeFunction) Inspect() string  { return "<native fn " + nf.Name + ">" }
func (nf *NativeFunction) value()           {}

// SymbolResolver looks up native functions by name inside whatever backs a
// module, typically a dynamically loaded library. Resolve returns (nil, nil)
// when the name is simply not exported.
type SymbolResolver interface {
	Resolve(name string) (*NativeFunction, error)
	Close() error
}

// Module is the handle bound by an import. Members are resolved lazily
// through the resolver and cached, so a symbol is looked up at most once.
type Module struct {
	Name string
	Path string

	mu       sync.Mutex
	resolver SymbolResolver
	members  map[string]*NativeFunction
	closed   bool
}

// NewModule creates a handle backed by resolver.
func NewModule(name, path string, resolver SymbolResolver) *Module {
	return &Module{
		Name:     name,
		Path:     path,
		resolver: resolver,
		members:  map[string]*NativeFunction{},
	}
}

// NewBuiltinModule creates a handle whose members are a fixed capability table.
func NewBuiltinModule(name string, members ...*NativeFunction) *Module {
	m := NewModule(name, "<builtin>", nil)
	for _, member := range members {
		m.members[member.Name] = member
	}
	return m
}

func (m *Module) Type() ObjectType { return MODULE_OBJ }
func (m *Module) Inspect() string  { return "<module " + m.Name + ">" }
func (m *Module) value()           {}

// Member returns the native function exported under name. The boolean is
// false when the module has no such member; err reports a resolution failure
// such as a symbol with the wrong signature.
func (m *Module) Member(name string) (*NativeFunction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fn, ok := m.members[name]; ok {
		return fn, true, nil
	}
	if m.resolver == nil || m.closed {
		return nil, false, nil
	}
	fn, err := m.resolver.Resolve(name)
	if err != nil {
		return nil, false, err
	}
	if fn == nil {
		return nil, false, nil
	}
	m.members[name] = fn
	return fn, true, nil
}

// Cached reports how many members have been resolved so far.
func (m *Module) Cached() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members)
}

// Close releases the library behind the handle. Members already resolved
// stay usable only as long as the caller holds them.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.resolver == nil {
		m.closed = true
		return nil
	}
	m.closed = true
	return m.resolver.Close()
}

// Repr is the display form used inside containers and error messages:
// strings are quoted, everything else matches Inspect.
func Repr(v Value) string {
	if s, ok := v.(*String); ok {
		return strconv.Quote(s.Value)
	}
	return v.Inspect()
}

func NativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// IsTruthy treats Null and false as falsy and everything else as truthy.
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case *Null:
		return false
	case *Boolean:
		return v.Value
	default:
		return true
	}
}
