package evaluator

import (
	"errors"
	"glang/internal/ast"
	"glang/internal/loader"
	"glang/internal/object"
	"glang/internal/token"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// ModuleLoader opens a native extension library for an import statement and
// runs its initialisation hook.
type ModuleLoader interface {
	Load(path string) (*object.Module, *object.Exception)
}

// SourceResolver evaluates a source module named by an import statement.
type SourceResolver interface {
	ResolveSource(path string) (*object.Module, *object.Exception)
}

// SourceExtension marks import paths that name source modules rather than
// native libraries.
const SourceExtension = ".gl"

type Evaluator struct {
	Module string // module identifier recorded in traceback frames

	envStack []*object.Environment
	globals  *object.Environment

	logger         *slog.Logger
	out            io.Writer
	loader         ModuleLoader
	sources        SourceResolver
	allowNative    bool
	builtinModules map[string]*object.Module
	imported       map[string]*object.Module
}

type Option func(*Evaluator)

func WithModule(name string) Option {
	return func(e *Evaluator) { e.Module = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// WithOutput sets where print writes.
func WithOutput(w io.Writer) Option {
	return func(e *Evaluator) { e.out = w }
}

func WithLoader(l ModuleLoader) Option {
	return func(e *Evaluator) { e.loader = l }
}

func WithSourceResolver(r SourceResolver) Option {
	return func(e *Evaluator) { e.sources = r }
}

// WithBuiltinModule registers a module that import resolves by name before
// any library search.
func WithBuiltinModule(m *object.Module) Option {
	return func(e *Evaluator) { e.builtinModules[m.Name] = m }
}

func WithNativeExtensions(allowed bool) Option {
	return func(e *Evaluator) { e.allowNative = allowed }
}

// New creates an evaluator with a fresh global scope layered over the
// prelude.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		Module:         "<main>",
		logger:         slog.Default(),
		out:            os.Stdout,
		allowNative:    true,
		builtinModules: map[string]*object.Module{},
		imported:       map[string]*object.Module{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loader == nil {
		e.loader = loader.New(loader.Options{Logger: e.logger})
	}

	prelude := object.NewEnvironment()
	for _, fn := range e.preludeFunctions() {
		prelude.Set(fn.Name, fn)
	}
	e.globals = object.NewEnclosedEnvironment(prelude)
	e.PushEnv(e.globals)
	return e
}

func (e *Evaluator) PushEnv(env *object.Environment) {
	e.envStack = append(e.envStack, env)
}

func (e *Evaluator) CurrentEnv() *object.Environment {
	if len(e.envStack) == 0 {
		panic("Environment stack is empty in the current frame")
	}
	return e.envStack[len(e.envStack)-1]
}

func (e *Evaluator) PopEnv() {
	if len(e.envStack) == 0 {
		panic("Attempted to pop from an empty environment stack")
	}
	e.envStack = e.envStack[:len(e.envStack)-1]
}

// Globals is the top-level scope programs run in.
func (e *Evaluator) Globals() *object.Environment {
	return e.globals
}

// Run evaluates a whole program in the global scope. The result is the value
// of the last return statement, or Null.
func (e *Evaluator) Run(program *ast.Program) (object.Value, *object.Exception) {
	e.logger.Debug("run start",
		slog.String("module", e.Module),
		slog.Int("statements", len(program.Statements)))

	result, failed, exc := e.evalStatements(program.Statements)
	if exc != nil {
		exc.Push(e.Module, failed.Pos())
		e.logger.Debug("run failed",
			slog.String("module", e.Module),
			slog.String("error", exc.Error()),
			slog.Int("frames", len(exc.Traceback)))
		return nil, exc
	}

	e.logger.Debug("run finished", slog.String("module", e.Module))
	return result, nil
}

// Close releases every native library imported so far.
func (e *Evaluator) Close() error {
	var errs []error
	for path, mod := range e.imported {
		if err := mod.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(e.imported, path)
	}
	return errors.Join(errs...)
}

func (e *Evaluator) Eval(node ast.Node) (object.Value, *object.Exception) {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return e.Run(node)

	case *ast.Block:
		return e.evalBlock(node)

	case *ast.LetStatement:
		val, exc := e.Eval(node.Value)
		if exc != nil {
			// the name is still bound so later statements see Null
			e.CurrentEnv().Set(node.Name, object.NULL)
			return nil, exc
		}
		e.CurrentEnv().Set(node.Name, val)
		return object.NULL, nil

	case *ast.FunctionDeclaration:
		e.CurrentEnv().Set(node.Name, &object.Function{
			Name:       node.Name,
			Parameters: node.Parameters,
			Body:       node.Body,
			Env:        e.CurrentEnv(),
		})
		return object.NULL, nil

	case *ast.ExpressionStatement:
		if _, exc := e.Eval(node.Expression); exc != nil {
			return nil, exc
		}
		return object.NULL, nil

	case *ast.ReturnStatement:
		return e.Eval(node.ReturnValue)

	case *ast.ImportStatement:
		return e.evalImportStatement(node)

	// Expressions
	case *ast.NullLiteral:
		return object.NULL, nil

	case *ast.BooleanLiteral:
		return object.NativeBoolToBooleanObject(node.Value), nil

	case *ast.IntegerLiteral:
		return &object.Integer{Value: node.Value}, nil

	case *ast.FloatLiteral:
		return &object.Float{Value: node.Value}, nil

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}, nil

	case *ast.Identifier:
		return e.evalIdentifier(node)

	case *ast.VectorLiteral:
		elements, exc := e.evalExpressions(node.Elements)
		if exc != nil {
			return nil, exc
		}
		return &object.Vector{Elements: elements}, nil

	case *ast.MapLiteral:
		return e.evalMapLiteral(node)

	case *ast.PrefixExpression:
		right, exc := e.Eval(node.Right)
		if exc != nil {
			return nil, exc
		}
		result, exc := object.UnaryOp(node.Operator, right)
		if exc != nil {
			return nil, e.raise(exc, node.Position)
		}
		return result, nil

	case *ast.InfixExpression:
		left, exc := e.Eval(node.Left)
		if exc != nil {
			return nil, exc
		}
		right, exc := e.Eval(node.Right)
		if exc != nil {
			return nil, exc
		}
		result, exc := object.BinaryOp(node.Operator, left, right)
		if exc != nil {
			return nil, e.raise(exc, node.Position)
		}
		return result, nil

	case *ast.FunctionLiteral:
		return &object.Function{
			Parameters: node.Parameters,
			Body:       node.Body,
			Env:        e.CurrentEnv(),
		}, nil

	case *ast.CallExpression:
		function, exc := e.Eval(node.Function)
		if exc != nil {
			return nil, exc
		}
		args, exc := e.evalExpressions(node.Arguments)
		if exc != nil {
			return nil, exc
		}
		return e.applyFunction(node.Position, function, args)

	case *ast.IndexExpression:
		left, exc := e.Eval(node.Left)
		if exc != nil {
			return nil, exc
		}
		index, exc := e.Eval(node.Index)
		if exc != nil {
			return nil, exc
		}
		return e.evalIndexExpression(node.Position, left, index)

	case *ast.AttributeExpression:
		obj, exc := e.Eval(node.Object)
		if exc != nil {
			return nil, exc
		}
		return e.evalAttributeExpression(node, obj)
	}

	return nil, e.newException(node.Pos(), object.GenericError, "unsupported node %T", node)
}

// evalStatements runs statements in order and stops at the first exception,
// reporting the statement that raised it.
func (e *Evaluator) evalStatements(stmts []ast.Statement) (object.Value, ast.Statement, *object.Exception) {
	var result object.Value = object.NULL

	for _, stmt := range stmts {
		val, exc := e.Eval(stmt)
		if exc != nil {
			return nil, stmt, exc
		}
		if _, ok := stmt.(*ast.ReturnStatement); ok {
			result = val
		}
	}

	return result, nil, nil
}

func (e *Evaluator) evalBlock(block *ast.Block) (object.Value, *object.Exception) {
	result, _, exc := e.evalStatements(block.Statements)
	return result, exc
}

func (e *Evaluator) evalExpressions(exps []ast.Expression) ([]object.Value, *object.Exception) {
	result := make([]object.Value, 0, len(exps))

	for _, exp := range exps {
		evaluated, exc := e.Eval(exp)
		if exc != nil {
			return nil, exc
		}
		result = append(result, evaluated)
	}

	return result, nil
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier) (object.Value, *object.Exception) {
	if val, ok := e.CurrentEnv().Get(node.Value); ok {
		return val, nil
	}
	return nil, e.newException(node.Position, object.NameError, "name '%s' is not defined", node.Value)
}

func (e *Evaluator) evalMapLiteral(node *ast.MapLiteral) (object.Value, *object.Exception) {
	m := object.NewMap()

	for _, pair := range node.Pairs {
		key, exc := e.Eval(pair.Key)
		if exc != nil {
			return nil, exc
		}
		value, exc := e.Eval(pair.Value)
		if exc != nil {
			return nil, exc
		}
		hashable, ok := object.AsHashable(key)
		if !ok {
			return nil, e.newException(pair.Key.Pos(), object.TypeError, "unhashable type: '%s'", key.Type())
		}
		m.Put(hashable, value)
	}

	return m, nil
}

// newException builds an exception raised at pos in the current module.
func (e *Evaluator) newException(pos token.Position, kind object.ErrorKind, format string, a ...any) *object.Exception {
	return object.NewException(kind, format, a...).Push(e.Module, pos)
}

// raise records pos on an exception that surfaced at this node.
func (e *Evaluator) raise(exc *object.Exception, pos token.Position) *object.Exception {
	return exc.Push(e.Module, pos)
}

func isSourcePath(path string) bool {
	return filepath.Ext(path) == SourceExtension
}
