// Package loader opens native extension libraries and exposes them as
// module handles.
package loader

import (
	"glang/internal/object"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LibraryExtension is appended to a bare import path when searching the
// library paths.
const LibraryExtension = ".so"

// InitSymbol is the optional entry point run once when a library is
// imported.
const InitSymbol = "init"

// Library is an opened native library.
type Library interface {
	Lookup(symbol string) (any, error)
	Close() error
}

type Opener interface {
	Open(path string) (Library, error)
}

type Options struct {
	Paths  []string // searched in order for relative import paths
	Opener Opener   // defaults to the platform opener
	Logger *slog.Logger
}

type Loader struct {
	paths  []string
	opener Opener
	logger *slog.Logger
}

func New(opts Options) *Loader {
	l := &Loader{
		paths:  opts.Paths,
		opener: opts.Opener,
		logger: opts.Logger,
	}
	if l.opener == nil {
		l.opener = DefaultOpener()
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load opens the library named by path, binds it to a module named after the
// file and runs its init hook if it exports one. An exception from init
// closes the library and is returned as is.
func (l *Loader) Load(path string) (*object.Module, *object.Exception) {
	resolved := l.resolve(path)

	lib, err := l.opener.Open(resolved)
	if err != nil {
		l.logger.Warn("failed to open native library",
			slog.String("path", resolved),
			slog.Any("error", err))
		return nil, object.NewException(object.GenericError, "%s", err)
	}

	name := ModuleName(path)
	resolver := &symbolResolver{module: name, lib: lib}
	mod := object.NewModule(name, resolved, resolver)

	if exc := runInit(name, lib); exc != nil {
		l.logger.Warn("native library init failed",
			slog.String("module", name),
			slog.String("error", exc.Error()))
		if err := mod.Close(); err != nil {
			l.logger.Warn("failed to close native library",
				slog.String("module", name),
				slog.Any("error", err))
		}
		return nil, exc
	}

	l.logger.Debug("loaded native library",
		slog.String("module", name),
		slog.String("path", resolved))
	return mod, nil
}

// resolve finds path in the library paths. Absolute paths, paths relative
// to the working directory and paths that cannot be found are returned
// unchanged so the opener reports the failure.
func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) || exists(path) {
		return path
	}

	candidates := []string{path}
	if filepath.Ext(path) == "" {
		candidates = append(candidates, path+LibraryExtension)
	}

	for _, dir := range l.paths {
		for _, candidate := range candidates {
			full := filepath.Join(dir, candidate)
			if exists(full) {
				return full
			}
		}
	}
	return path
}

// ModuleName is the base name of path without its extension.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
