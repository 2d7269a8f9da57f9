package object

import (
	"bytes"
	"fmt"
	"glang/internal/token"
)

type ErrorKind string

const (
	NameError         ErrorKind = "NameError"
	TypeError         ErrorKind = "TypeError"
	KeyError          ErrorKind = "KeyError"
	IndexError        ErrorKind = "IndexError"
	AttributeError    ErrorKind = "AttributeError"
	ZeroDivisionError ErrorKind = "ZeroDivisionError"
	GenericError      ErrorKind = "Error"
)

// Frame records one boundary an exception crossed while unwinding.
type Frame struct {
	Module   string
	Position token.Position
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%s", f.Module, f.Position)
}

// Exception is the language-level error value. It is passed back explicitly
// alongside results, never thrown. Traceback holds the innermost frame first.
type Exception struct {
	Kind      ErrorKind
	Message   string
	Traceback []Frame
}

func NewException(kind ErrorKind, format string, a ...any) *Exception {
	return &Exception{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// NewArityError reports a call passing got arguments to a callee that takes
// exactly want.
func NewArityError(name string, want, got int) *Exception {
	return arityError(name, "", want, got)
}

// NewMinArityError is NewArityError for callees taking at least want.
func NewMinArityError(name string, want, got int) *Exception {
	return arityError(name, "at least ", want, got)
}

func arityError(name, bound string, want, got int) *Exception {
	noun, verb := "arguments", "were"
	if want == 1 {
		noun = "argument"
	}
	if got == 1 {
		verb = "was"
	}
	return NewException(TypeError, "%s() takes %s%d positional %s but %d %s given",
		name, bound, want, noun, got, verb)
}

// Push appends a frame and returns the exception so call sites can write
// `return nil, exc.Push(module, pos)`.
func (e *Exception) Push(module string, pos token.Position) *Exception {
	e.Traceback = append(e.Traceback, Frame{Module: module, Position: pos})
	return e
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Render formats the exception the way a host prints it: outermost frame
// first, then the kind and message.
func (e *Exception) Render() string {
	var buf bytes.Buffer

	if len(e.Traceback) > 0 {
		buf.WriteString("Traceback (most recent call last):\n")
		for i := len(e.Traceback) - 1; i >= 0; i-- {
			frame := e.Traceback[i]
			fmt.Fprintf(&buf, "  Module %q, line %d, column %d\n",
				frame.Module, frame.Position.Line, frame.Position.Column)
		}
	}
	buf.WriteString(e.Error())

	return buf.String()
}
