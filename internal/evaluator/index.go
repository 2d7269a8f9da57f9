package evaluator

import (
	"glang/internal/ast"
	"glang/internal/object"
	"glang/internal/token"
)

func (e *Evaluator) evalIndexExpression(pos token.Position, left, index object.Value) (object.Value, *object.Exception) {
	switch left := left.(type) {
	case *object.Vector:
		return e.evalVectorIndexExpression(pos, left, index)
	case *object.Map:
		return e.evalMapIndexExpression(pos, left, index)
	}
	return nil, e.newException(pos, object.TypeError, "'%s' object is not subscriptable", left.Type())
}

func (e *Evaluator) evalVectorIndexExpression(pos token.Position, vector *object.Vector, index object.Value) (object.Value, *object.Exception) {
	idx, ok := index.(*object.Integer)
	if !ok {
		return nil, e.newException(pos, object.TypeError, "vector indices must be integers, not %s", index.Type())
	}

	i := idx.Value
	if i.Sign() < 0 || !i.IsInt64() || i.Int64() >= int64(len(vector.Elements)) {
		return nil, e.newException(pos, object.IndexError, "vector index out of range")
	}

	return vector.Elements[i.Int64()], nil
}

func (e *Evaluator) evalMapIndexExpression(pos token.Position, m *object.Map, index object.Value) (object.Value, *object.Exception) {
	key, ok := object.AsHashable(index)
	if !ok {
		return nil, e.newException(pos, object.TypeError, "unhashable type: '%s'", index.Type())
	}

	val, ok := m.Get(key)
	if !ok {
		return nil, e.newException(pos, object.KeyError, "%s", object.Repr(index))
	}

	return val, nil
}

// evalAttributeExpression resolves a member of a module handle. No other kind
// carries attributes.
func (e *Evaluator) evalAttributeExpression(node *ast.AttributeExpression, obj object.Value) (object.Value, *object.Exception) {
	mod, ok := obj.(*object.Module)
	if !ok {
		return nil, e.newException(node.Position, object.AttributeError,
			"'%s' object has no attribute '%s'", obj.Type(), node.Name)
	}

	fn, found, err := mod.Member(node.Name)
	if err != nil {
		return nil, e.newException(node.Position, object.TypeError, "%s", err)
	}
	if !found {
		return nil, e.newException(node.Position, object.AttributeError,
			"module '%s' has no attribute '%s'", mod.Name, node.Name)
	}

	return fn, nil
}
