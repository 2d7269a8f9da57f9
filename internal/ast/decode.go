package ast

import (
	"bytes"
	"errors"
	"fmt"
	"glang/internal/token"
	"io"
	"math/big"

	"gopkg.in/yaml.v3"
)

// ErrInvalidNode is wrapped by every decoding failure caused by a malformed node.
var ErrInvalidNode = errors.New("invalid node")

// Decode reads a program document produced by the parser. The document is YAML
// (JSON is accepted as a subset): either a sequence of statements or a mapping
// with a "statements" key. Every node is a mapping carrying a "type"
// discriminator; "line" and "column" are optional and default to the node's
// location in the document itself.
func Decode(r io.Reader) (*Program, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Program{}, nil
		}
		return nil, fmt.Errorf("decode program: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.MappingNode {
		stmts, ok := fieldsOf(root)["statements"]
		if !ok {
			return nil, invalid(root, "program", "missing 'statements'")
		}
		root = stmts
	}
	statements, err := decodeStatements(root)
	if err != nil {
		return nil, err
	}
	return &Program{Statements: statements}, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(src []byte) (*Program, error) {
	return Decode(bytes.NewReader(src))
}

type statementDecoder func(*yaml.Node, map[string]*yaml.Node, token.Position) (Statement, error)
type expressionDecoder func(*yaml.Node, map[string]*yaml.Node, token.Position) (Expression, error)

var (
	statementDecoders  map[string]statementDecoder
	expressionDecoders map[string]expressionDecoder
)

func init() {
	statementDecoders = map[string]statementDecoder{
		"let":    decodeLet,
		"fn":     decodeFunctionDeclaration,
		"expr":   decodeExpressionStatement,
		"return": decodeReturn,
		"import": decodeImport,
	}
	expressionDecoders = map[string]expressionDecoder{
		"ident":  decodeIdentifier,
		"null":   decodeNull,
		"bool":   decodeBoolean,
		"int":    decodeInteger,
		"float":  decodeFloat,
		"string": decodeString,
		"vector": decodeVector,
		"map":    decodeMap,
		"prefix": decodePrefix,
		"infix":  decodeInfix,
		"call":   decodeCall,
		"index":  decodeIndex,
		"attr":   decodeAttribute,
		"fn":     decodeFunctionLiteral,
	}
}

func decodeStatements(node *yaml.Node) ([]Statement, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, invalid(node, "block", "expected a sequence of statements")
	}
	statements := make([]Statement, 0, len(node.Content))
	for _, item := range node.Content {
		stmt, err := decodeStatement(item)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

func decodeStatement(node *yaml.Node) (Statement, error) {
	typ, fields, pos, err := header(node)
	if err != nil {
		return nil, err
	}
	decoder, ok := statementDecoders[typ]
	if !ok {
		return nil, invalid(node, typ, "unknown statement type")
	}
	return decoder(node, fields, pos)
}

func decodeExpression(node *yaml.Node) (Expression, error) {
	typ, fields, pos, err := header(node)
	if err != nil {
		return nil, err
	}
	decoder, ok := expressionDecoders[typ]
	if !ok {
		return nil, invalid(node, typ, "unknown expression type")
	}
	return decoder(node, fields, pos)
}

func decodeExpressions(node *yaml.Node, what string) ([]Expression, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, invalid(node, what, "expected a sequence")
	}
	exprs := make([]Expression, 0, len(node.Content))
	for _, item := range node.Content {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

func decodeLet(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Statement, error) {
	name, err := requireScalar(node, f, "let", "name")
	if err != nil {
		return nil, err
	}
	value, err := requireExpression(node, f, "let", "value")
	if err != nil {
		return nil, err
	}
	return &LetStatement{Position: pos, Name: name, Value: value}, nil
}

func decodeFunctionDeclaration(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Statement, error) {
	name, err := requireScalar(node, f, "fn", "name")
	if err != nil {
		return nil, err
	}
	params, body, err := decodeFunctionParts(node, f)
	if err != nil {
		return nil, err
	}
	return &FunctionDeclaration{Position: pos, Name: name, Parameters: params, Body: body}, nil
}

func decodeExpressionStatement(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Statement, error) {
	expr, err := requireExpression(node, f, "expr", "expr")
	if err != nil {
		return nil, err
	}
	return &ExpressionStatement{Position: pos, Expression: expr}, nil
}

func decodeReturn(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Statement, error) {
	expr, err := requireExpression(node, f, "return", "value")
	if err != nil {
		return nil, err
	}
	return &ReturnStatement{Position: pos, ReturnValue: expr}, nil
}

func decodeImport(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Statement, error) {
	path, err := requireScalar(node, f, "import", "path")
	if err != nil {
		return nil, err
	}
	return &ImportStatement{Position: pos, Path: path}, nil
}

func decodeIdentifier(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	name, err := requireScalar(node, f, "ident", "name")
	if err != nil {
		return nil, err
	}
	return &Identifier{Position: pos, Value: name}, nil
}

func decodeNull(_ *yaml.Node, _ map[string]*yaml.Node, pos token.Position) (Expression, error) {
	return &NullLiteral{Position: pos}, nil
}

func decodeBoolean(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	raw, ok := f["value"]
	if !ok {
		return nil, invalid(node, "bool", "missing 'value'")
	}
	var value bool
	if err := raw.Decode(&value); err != nil {
		return nil, invalid(raw, "bool", err.Error())
	}
	return &BooleanLiteral{Position: pos, Value: value}, nil
}

func decodeInteger(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	raw, err := requireScalar(node, f, "int", "value")
	if err != nil {
		return nil, err
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, invalid(node, "int", fmt.Sprintf("malformed integer %q", raw))
	}
	return &IntegerLiteral{Position: pos, Value: value}, nil
}

func decodeFloat(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	raw, err := requireScalar(node, f, "float", "value")
	if err != nil {
		return nil, err
	}
	value, ok := new(big.Rat).SetString(raw)
	if !ok {
		return nil, invalid(node, "float", fmt.Sprintf("malformed float %q", raw))
	}
	return &FloatLiteral{Position: pos, Value: value}, nil
}

func decodeString(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	raw, ok := f["value"]
	if !ok || raw.Kind != yaml.ScalarNode {
		return nil, invalid(node, "string", "missing 'value'")
	}
	return &StringLiteral{Position: pos, Value: raw.Value}, nil
}

func decodeVector(_ *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	elements, err := decodeExpressions(f["elements"], "vector")
	if err != nil {
		return nil, err
	}
	return &VectorLiteral{Position: pos, Elements: elements}, nil
}

func decodeMap(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	lit := &MapLiteral{Position: pos}
	pairs, ok := f["pairs"]
	if !ok {
		return lit, nil
	}
	if pairs.Kind != yaml.SequenceNode {
		return nil, invalid(node, "map", "'pairs' must be a sequence")
	}
	for _, item := range pairs.Content {
		if item.Kind != yaml.MappingNode {
			return nil, invalid(item, "map", "pair must be a mapping")
		}
		pf := fieldsOf(item)
		key, err := requireExpression(item, pf, "map", "key")
		if err != nil {
			return nil, err
		}
		value, err := requireExpression(item, pf, "map", "value")
		if err != nil {
			return nil, err
		}
		lit.Pairs = append(lit.Pairs, MapPair{Key: key, Value: value})
	}
	return lit, nil
}

func decodePrefix(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	op, err := requireScalar(node, f, "prefix", "op")
	if err != nil {
		return nil, err
	}
	tok, ok := token.LookupPrefix(op)
	if !ok {
		return nil, invalid(node, "prefix", fmt.Sprintf("unknown operator %q", op))
	}
	right, err := requireExpression(node, f, "prefix", "right")
	if err != nil {
		return nil, err
	}
	return &PrefixExpression{Position: pos, Operator: tok, Right: right}, nil
}

func decodeInfix(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	op, err := requireScalar(node, f, "infix", "op")
	if err != nil {
		return nil, err
	}
	tok, ok := token.LookupInfix(op)
	if !ok {
		return nil, invalid(node, "infix", fmt.Sprintf("unknown operator %q", op))
	}
	left, err := requireExpression(node, f, "infix", "left")
	if err != nil {
		return nil, err
	}
	right, err := requireExpression(node, f, "infix", "right")
	if err != nil {
		return nil, err
	}
	return &InfixExpression{Position: pos, Left: left, Operator: tok, Right: right}, nil
}

func decodeCall(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	callee, err := requireExpression(node, f, "call", "callee")
	if err != nil {
		return nil, err
	}
	args, err := decodeExpressions(f["args"], "call")
	if err != nil {
		return nil, err
	}
	return &CallExpression{Position: pos, Function: callee, Arguments: args}, nil
}

func decodeIndex(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	left, err := requireExpression(node, f, "index", "left")
	if err != nil {
		return nil, err
	}
	index, err := requireExpression(node, f, "index", "index")
	if err != nil {
		return nil, err
	}
	return &IndexExpression{Position: pos, Left: left, Index: index}, nil
}

func decodeAttribute(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	object, err := requireExpression(node, f, "attr", "object")
	if err != nil {
		return nil, err
	}
	name, err := requireScalar(node, f, "attr", "name")
	if err != nil {
		return nil, err
	}
	return &AttributeExpression{Position: pos, Object: object, Name: name}, nil
}

func decodeFunctionLiteral(node *yaml.Node, f map[string]*yaml.Node, pos token.Position) (Expression, error) {
	params, body, err := decodeFunctionParts(node, f)
	if err != nil {
		return nil, err
	}
	return &FunctionLiteral{Position: pos, Parameters: params, Body: body}, nil
}

func decodeFunctionParts(node *yaml.Node, f map[string]*yaml.Node) ([]string, *Block, error) {
	var params []string
	if raw, ok := f["params"]; ok {
		if err := raw.Decode(&params); err != nil {
			return nil, nil, invalid(raw, "fn", "'params' must be a list of names")
		}
	}
	body := &Block{Position: nodePosition(node)}
	if raw, ok := f["body"]; ok {
		body.Position = nodePosition(raw)
		statements, err := decodeStatements(raw)
		if err != nil {
			return nil, nil, err
		}
		body.Statements = statements
	}
	return params, body, nil
}

func header(node *yaml.Node) (string, map[string]*yaml.Node, token.Position, error) {
	if node.Kind != yaml.MappingNode {
		return "", nil, token.Position{}, invalid(node, "node", "expected a mapping")
	}
	fields := fieldsOf(node)
	typ, ok := fields["type"]
	if !ok || typ.Kind != yaml.ScalarNode {
		return "", nil, token.Position{}, invalid(node, "node", "missing 'type'")
	}
	pos := nodePosition(node)
	if line, ok := fields["line"]; ok {
		if err := line.Decode(&pos.Line); err != nil {
			return "", nil, token.Position{}, invalid(line, typ.Value, "'line' must be an integer")
		}
		pos.Column = 0
	}
	if col, ok := fields["column"]; ok {
		if err := col.Decode(&pos.Column); err != nil {
			return "", nil, token.Position{}, invalid(col, typ.Value, "'column' must be an integer")
		}
	}
	return typ.Value, fields, pos, nil
}

func fieldsOf(node *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}
	return fields
}

func requireScalar(node *yaml.Node, f map[string]*yaml.Node, what, key string) (string, error) {
	raw, ok := f[key]
	if !ok || raw.Kind != yaml.ScalarNode {
		return "", invalid(node, what, fmt.Sprintf("missing '%s'", key))
	}
	return raw.Value, nil
}

func requireExpression(node *yaml.Node, f map[string]*yaml.Node, what, key string) (Expression, error) {
	raw, ok := f[key]
	if !ok {
		return nil, invalid(node, what, fmt.Sprintf("missing '%s'", key))
	}
	return decodeExpression(raw)
}

func nodePosition(node *yaml.Node) token.Position {
	return token.Position{Line: node.Line, Column: node.Column}
}

func invalid(node *yaml.Node, what, msg string) error {
	return fmt.Errorf("line %d: decode %s: %s: %w", node.Line, what, msg, ErrInvalidNode)
}
