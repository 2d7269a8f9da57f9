//go:build (linux || darwin || freebsd) && cgo

package loader

import "plugin"

type pluginOpener struct{}

// DefaultOpener opens Go plugins built with -buildmode=plugin.
func DefaultOpener() Opener {
	return pluginOpener{}
}

func (pluginOpener) Open(path string) (Library, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return pluginLibrary{p}, nil
}

type pluginLibrary struct {
	p *plugin.Plugin
}

func (l pluginLibrary) Lookup(symbol string) (any, error) {
	return l.p.Lookup(symbol)
}

// Close is a no-op: a Go plugin stays mapped for the life of the process.
func (l pluginLibrary) Close() error {
	return nil
}
