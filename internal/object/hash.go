package object

// MapKey identifies a map entry. Integer and Float keys share the "number"
// space and are keyed by their reduced rational, so 2 and 2.0 collide on
// purpose; Booleans keep their own space.
type MapKey struct {
	Type  ObjectType
	Value string
}

const numberKeyType ObjectType = "number"

// Hashable values may be used as map keys.
type Hashable interface {
	Value
	MapKey() MapKey
}

func (n *Null) MapKey() MapKey { return MapKey{Type: NULL_OBJ} }

func (b *Boolean) MapKey() MapKey {
	if b.Value {
		return MapKey{Type: BOOLEAN_OBJ, Value: "1"}
	}
	return MapKey{Type: BOOLEAN_OBJ, Value: "0"}
}

func (i *Integer) MapKey() MapKey {
	return MapKey{Type: numberKeyType, Value: i.Value.String()}
}

func (f *Float) MapKey() MapKey {
	return MapKey{Type: numberKeyType, Value: f.Value.RatString()}
}

func (s *String) MapKey() MapKey { return MapKey{Type: STRING_OBJ, Value: s.Value} }

// AsHashable reports whether v can be used as a map key.
func AsHashable(v Value) (Hashable, bool) {
	h, ok := v.(Hashable)
	return h, ok
}
