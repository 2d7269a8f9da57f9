package evaluator

import (
	"bytes"
	"glang/internal/ast"
	"glang/internal/object"
	"io"
	"log/slog"
	"testing"
)

func testProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	program, err := ast.DecodeBytes([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return program
}

func testEvaluator(opts ...Option) *Evaluator {
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return New(append(base, opts...)...)
}

func testEval(t *testing.T, src string, opts ...Option) (object.Value, *object.Exception) {
	t.Helper()
	return testEvaluator(opts...).Run(testProgram(t, src))
}

func expectValue(t *testing.T, src string, expected string) object.Value {
	t.Helper()
	result, exc := testEval(t, src)
	if exc != nil {
		t.Fatalf("unexpected exception:\n%s", exc.Render())
	}
	if result.Inspect() != expected {
		t.Errorf("expected %s, got %s", expected, result.Inspect())
	}
	return result
}

func expectException(t *testing.T, src string, kind object.ErrorKind, message string) *object.Exception {
	t.Helper()
	result, exc := testEval(t, src)
	if exc == nil {
		t.Fatalf("expected %s, got value %s", kind, result.Inspect())
	}
	if exc.Kind != kind {
		t.Errorf("expected %s, got %s", kind, exc.Kind)
	}
	if message != "" && exc.Message != message {
		t.Errorf("expected message %q, got %q", message, exc.Message)
	}
	return exc
}

func TestArithmeticPrecedence(t *testing.T) {
	expectValue(t, `
- {type: let, name: x, value: {type: int, value: 2}}
- {type: let, name: y, value: {type: int, value: 3}}
- type: return
  value:
    type: infix
    op: "+"
    left: {type: ident, name: x}
    right: {type: infix, op: "*", left: {type: ident, name: y}, right: {type: int, value: 2}}
`, "8")
}

func TestFunctionCall(t *testing.T) {
	expectValue(t, `
- type: fn
  name: add
  params: [a, b]
  body:
    - {type: return, value: {type: infix, op: "+", left: {type: ident, name: a}, right: {type: ident, name: b}}}
- {type: return, value: {type: call, callee: {type: ident, name: add}, args: [{type: int, value: 1}, {type: int, value: 2}]}}
`, "3")
}

func TestUndefinedName(t *testing.T) {
	exc := expectException(t, `
- {type: return, value: {type: ident, name: x}}
`, object.NameError, "name 'x' is not defined")

	if exc.Error() != "NameError: name 'x' is not defined" {
		t.Errorf("unexpected error string %q", exc.Error())
	}
	// raise site plus the run boundary
	if len(exc.Traceback) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(exc.Traceback))
	}
	for _, frame := range exc.Traceback {
		if frame.Module != "<main>" {
			t.Errorf("expected frame in <main>, got %s", frame.Module)
		}
	}
}

func TestClosureSeesLaterRebinding(t *testing.T) {
	expectValue(t, `
- type: fn
  name: outer
  body:
    - {type: let, name: x, value: {type: int, value: 1}}
    - {type: fn, name: inner, body: [{type: return, value: {type: ident, name: x}}]}
    - {type: let, name: x, value: {type: int, value: 2}}
    - {type: return, value: {type: call, callee: {type: ident, name: inner}}}
- {type: return, value: {type: call, callee: {type: ident, name: outer}}}
`, "2")
}

func TestClosureUsesDefinitionScope(t *testing.T) {
	expectValue(t, `
- type: fn
  name: make
  body:
    - {type: let, name: v, value: {type: int, value: 1}}
    - {type: return, value: {type: fn, body: [{type: return, value: {type: ident, name: v}}]}}
- {type: let, name: v, value: {type: int, value: 99}}
- {type: let, name: get, value: {type: call, callee: {type: ident, name: make}}}
- {type: return, value: {type: call, callee: {type: ident, name: get}}}
`, "1")
}

func TestParametersDoNotLeak(t *testing.T) {
	expectException(t, `
- {type: fn, name: f, params: [p], body: [{type: return, value: {type: ident, name: p}}]}
- {type: expr, expr: {type: call, callee: {type: ident, name: f}, args: [{type: int, value: 1}]}}
- {type: return, value: {type: ident, name: p}}
`, object.NameError, "name 'p' is not defined")
}

func TestIndexing(t *testing.T) {
	vector := `{type: vector, elements: [{type: int, value: 10}, {type: int, value: 20}]}`
	m := `{type: map, pairs: [{key: {type: string, value: a}, value: {type: int, value: 1}}]}`

	tests := []struct {
		name    string
		src     string
		kind    object.ErrorKind
		message string
		value   string
	}{
		{"vector", `[{type: return, value: {type: index, left: ` + vector + `, index: {type: int, value: 1}}}]`, "", "", "20"},
		{"negative", `[{type: return, value: {type: index, left: ` + vector + `, index: {type: prefix, op: "-", right: {type: int, value: 1}}}}]`, object.IndexError, "vector index out of range", ""},
		{"out of range", `[{type: return, value: {type: index, left: ` + vector + `, index: {type: int, value: 2}}}]`, object.IndexError, "vector index out of range", ""},
		{"float index", `[{type: return, value: {type: index, left: ` + vector + `, index: {type: float, value: "0.0"}}}]`, object.TypeError, "vector indices must be integers, not Float", ""},
		{"map", `[{type: return, value: {type: index, left: ` + m + `, index: {type: string, value: a}}}]`, "", "", "1"},
		{"missing key", `[{type: return, value: {type: index, left: ` + m + `, index: {type: string, value: b}}}]`, object.KeyError, `"b"`, ""},
		{"unhashable key", `[{type: return, value: {type: index, left: ` + m + `, index: ` + vector + `}}]`, object.TypeError, "unhashable type: 'Vector'", ""},
		{"integer", `[{type: return, value: {type: index, left: {type: int, value: 5}, index: {type: int, value: 0}}}]`, object.TypeError, "'Integer' object is not subscriptable", ""},
		{"string", `[{type: return, value: {type: index, left: {type: string, value: ab}, index: {type: int, value: 0}}}]`, object.TypeError, "'String' object is not subscriptable", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.kind == "" {
				expectValue(t, tt.src, tt.value)
				return
			}
			expectException(t, tt.src, tt.kind, tt.message)
		})
	}
}

func TestArityCheckedBeforeBody(t *testing.T) {
	var out bytes.Buffer
	_, exc := testEval(t, `
- type: fn
  name: f
  params: [a]
  body:
    - {type: expr, expr: {type: call, callee: {type: ident, name: print}, args: [{type: string, value: ran}]}}
- {type: return, value: {type: call, callee: {type: ident, name: f}, args: [{type: int, value: 1}, {type: int, value: 2}]}}
`, WithOutput(&out))

	if exc == nil || exc.Kind != object.TypeError {
		t.Fatalf("expected TypeError, got %v", exc)
	}
	if exc.Message != "f() takes 1 positional argument but 2 were given" {
		t.Errorf("unexpected message %q", exc.Message)
	}
	if out.Len() != 0 {
		t.Errorf("expected body not to run, got output %q", out.String())
	}
}

func TestNativeArity(t *testing.T) {
	expectException(t, `
- {type: return, value: {type: call, callee: {type: ident, name: len}}}
`, object.TypeError, "len() takes 1 positional argument but 0 were given")
}

func TestFailedLetBindsNull(t *testing.T) {
	e := testEvaluator()

	_, exc := e.Run(testProgram(t, `
- {type: let, name: x, value: {type: ident, name: missing}}
- {type: let, name: y, value: {type: int, value: 1}}
`))
	if exc == nil || exc.Kind != object.NameError {
		t.Fatalf("expected NameError, got %v", exc)
	}

	x, ok := e.Globals().Get("x")
	if !ok {
		t.Fatalf("expected x to be bound after the failed let")
	}
	if x != object.NULL {
		t.Errorf("expected x to be Null, got %s", x.Inspect())
	}
	if _, ok := e.Globals().Get("y"); ok {
		t.Errorf("expected evaluation to stop before y")
	}

	result, exc := e.Run(testProgram(t, `[{type: return, value: {type: ident, name: x}}]`))
	if exc != nil {
		t.Fatalf("expected x to resolve, got %s", exc)
	}
	if result != object.NULL {
		t.Errorf("expected Null, got %s", result.Inspect())
	}
}

func TestTracebackGrowsPerCall(t *testing.T) {
	exc := expectException(t, `
- type: fn
  name: inner
  body:
    - {type: return, value: {type: ident, name: missing, line: 3, column: 12}}
- type: fn
  name: outer
  body:
    - {type: return, value: {type: call, callee: {type: ident, name: inner}, line: 7, column: 10}}
- {type: return, value: {type: call, callee: {type: ident, name: outer}, line: 9, column: 6}, line: 9, column: 1}
`, object.NameError, "name 'missing' is not defined")

	lines := make([]int, len(exc.Traceback))
	for i, frame := range exc.Traceback {
		lines[i] = frame.Position.Line
	}
	expected := []int{3, 7, 9, 9}
	if len(lines) != len(expected) {
		t.Fatalf("expected frames at lines %v, got %v", expected, lines)
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Fatalf("expected frames at lines %v, got %v", expected, lines)
		}
	}
	if exc.Traceback[2].Position.Column != 6 || exc.Traceback[3].Position.Column != 1 {
		t.Errorf("unexpected columns in %v", exc.Traceback)
	}
}

func TestNotCallable(t *testing.T) {
	expectException(t, `
- {type: return, value: {type: call, callee: {type: int, value: 1}, args: [{type: int, value: 2}]}}
`, object.TypeError, "'Integer' object is not callable")
}

func TestUnhashableMapLiteralKey(t *testing.T) {
	expectException(t, `
- {type: return, value: {type: map, pairs: [{key: {type: vector}, value: {type: int, value: 1}}]}}
`, object.TypeError, "unhashable type: 'Vector'")
}

func TestMapLiteralEqualKeysCollide(t *testing.T) {
	expectValue(t, `
- type: return
  value:
    type: map
    pairs:
      - {key: {type: int, value: 1}, value: {type: string, value: int}}
      - {key: {type: float, value: "1.0"}, value: {type: string, value: float}}
      - {key: {type: bool, value: true}, value: {type: string, value: bool}}
`, `{1.0: "float", true: "bool"}`)
}

func TestBlockValueIsLastReturn(t *testing.T) {
	expectValue(t, `
- type: fn
  name: f
  body:
    - {type: return, value: {type: int, value: 1}}
    - {type: let, name: z, value: {type: int, value: 2}}
- {type: return, value: {type: call, callee: {type: ident, name: f}}}
`, "1")

	expectValue(t, `
- {type: fn, name: g, body: [{type: let, name: z, value: {type: int, value: 2}}]}
- {type: return, value: {type: call, callee: {type: ident, name: g}}}
`, "null")

	expectValue(t, `[]`, "null")
}

func TestExactArithmetic(t *testing.T) {
	expectValue(t, `
- type: return
  value:
    type: infix
    op: "=="
    left:
      type: infix
      op: "*"
      left: {type: infix, op: "/", left: {type: int, value: 1}, right: {type: int, value: 3}}
      right: {type: int, value: 3}
    right: {type: int, value: 1}
`, "true")

	expectValue(t, `
- {type: return, value: {type: infix, op: "+", left: {type: float, value: "0.1"}, right: {type: float, value: "0.2"}}}
`, "0.3")

	expectException(t, `
- {type: return, value: {type: infix, op: "/", left: {type: int, value: 1}, right: {type: int, value: 0}}}
`, object.ZeroDivisionError, "division by zero")
}

func TestOperandsEvaluatedBeforeDispatch(t *testing.T) {
	expectException(t, `
- {type: return, value: {type: infix, op: "-", left: {type: string, value: a}, right: {type: ident, name: nope}}}
`, object.NameError, "name 'nope' is not defined")
}

func TestPrelude(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{`[{type: return, value: {type: call, callee: {type: ident, name: len}, args: [{type: string, value: "héllo"}]}}]`, "5"},
		{`[{type: return, value: {type: call, callee: {type: ident, name: len}, args: [{type: vector, elements: [{type: null}]}]}}]`, "1"},
		{`[{type: return, value: {type: call, callee: {type: ident, name: type}, args: [{type: float, value: "1.5"}]}}]`, "Float"},
		{`[{type: return, value: {type: call, callee: {type: ident, name: str}, args: [{type: int, value: 42}]}}]`, "42"},
	}

	for _, tt := range tests {
		expectValue(t, tt.src, tt.expected)
	}

	expectException(t, `[{type: return, value: {type: call, callee: {type: ident, name: len}, args: [{type: int, value: 1}]}}]`,
		object.TypeError, "object of type 'Integer' has no len()")
}

func TestPreludeCanBeShadowed(t *testing.T) {
	expectValue(t, `
- {type: let, name: len, value: {type: int, value: 5}}
- {type: return, value: {type: ident, name: len}}
`, "5")
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	result, exc := testEval(t, `
- type: return
  value:
    type: call
    callee: {type: ident, name: print}
    args: [{type: string, value: total}, {type: float, value: "2.50"}, {type: vector, elements: [{type: string, value: x}]}]
`, WithOutput(&out))
	if exc != nil {
		t.Fatalf("unexpected exception: %s", exc)
	}
	if result != object.NULL {
		t.Errorf("expected print to return Null")
	}
	if out.String() != "total 2.5 [\"x\"]\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestAttributeOnNonModule(t *testing.T) {
	expectException(t, `
- {type: return, value: {type: attr, object: {type: int, value: 1}, name: real}}
`, object.AttributeError, "'Integer' object has no attribute 'real'")
}

func TestDisplayOfRepeatingFraction(t *testing.T) {
	expectValue(t, `
- {type: return, value: {type: infix, op: "/", left: {type: int, value: 2}, right: {type: int, value: 3}}}
`, "0.6666666666666667")
}
