package evaluator

import (
	"glang/internal/ast"
	"glang/internal/object"
	"log/slog"
)

// evalImportStatement binds the imported module under its name in the
// current scope. Built-in modules win over source modules, which win over
// native libraries.
func (e *Evaluator) evalImportStatement(node *ast.ImportStatement) (object.Value, *object.Exception) {
	mod, exc := e.importModule(node.Path)
	if exc != nil {
		return nil, e.raise(exc, node.Position)
	}

	e.CurrentEnv().Set(mod.Name, mod)
	return object.NULL, nil
}

func (e *Evaluator) importModule(path string) (*object.Module, *object.Exception) {
	if mod, ok := e.builtinModules[path]; ok {
		e.logger.Debug("import builtin module", slog.String("module", mod.Name))
		return mod, nil
	}

	if isSourcePath(path) {
		if e.sources == nil {
			return nil, object.NewException(object.GenericError, "source module imports are not supported: '%s'", path)
		}
		mod, exc := e.sources.ResolveSource(path)
		if exc == nil && mod == nil {
			return nil, object.NewException(object.GenericError, "source module '%s' did not produce a module", path)
		}
		return mod, exc
	}

	if !e.allowNative {
		return nil, object.NewException(object.GenericError, "native extensions are disabled")
	}

	if mod, ok := e.imported[path]; ok {
		return mod, nil
	}

	mod, exc := e.loader.Load(path)
	if exc != nil {
		e.logger.Warn("import failed",
			slog.String("path", path),
			slog.String("error", exc.Error()))
		return nil, exc
	}

	e.logger.Debug("imported native module",
		slog.String("module", mod.Name),
		slog.String("path", mod.Path))
	e.imported[path] = mod
	return mod, nil
}
