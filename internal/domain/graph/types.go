package graph

import (
	"fmt"
	"math"
	"sort"
)

// TypeHandle names a data type registered in a Library.
type TypeHandle string

const (
	// TypeUnknown is the handle of ports without a data type.
	TypeUnknown TypeHandle = ""
	// TypeAny is compatible with every other type.
	TypeAny TypeHandle = "any"
	// TypeExecution is the handle carried by execution ports.
	TypeExecution TypeHandle = "execution"
)

func (t TypeHandle) String() string {
	if t == TypeUnknown {
		return "unknown"
	}
	return string(t)
}

// Field is a named sub-component of an expandable type.
type Field struct {
	Name string
	Type TypeHandle
}

// TypeInfo describes a data type.
type TypeInfo struct {
	Handle TypeHandle
	Title  string
	// Fields makes the type expandable: each field becomes a sub-port.
	Fields []Field
	// NewConstant creates the default constant for the type. Nil means ports of
	// this type carry no constant.
	NewConstant func() Constant
}

// Expandable reports whether the type has sub-fields.
func (t *TypeInfo) Expandable() bool {
	return len(t.Fields) > 0
}

// Constant is the default value attached to an input port.
type Constant interface {
	Type() TypeHandle
	Value() any
	SetValue(v any) error
	Clone() Constant
}

// ScalarConstant holds a single value of type T.
type ScalarConstant[T any] struct {
	typ   TypeHandle
	value T
}

// NewScalarConstant creates a constant of the given handle holding v.
func NewScalarConstant[T any](typ TypeHandle, v T) *ScalarConstant[T] {
	return &ScalarConstant[T]{typ: typ, value: v}
}

// Type returns the data type of the constant.
func (c *ScalarConstant[T]) Type() TypeHandle { return c.typ }

// Value returns the held value.
func (c *ScalarConstant[T]) Value() any { return c.value }

// Get returns the held value with its static type.
func (c *ScalarConstant[T]) Get() T { return c.value }

// SetValue replaces the held value. Numbers decoded from documents are converted
// when the conversion is lossless.
func (c *ScalarConstant[T]) SetValue(v any) error {
	converted, err := coerce[T](v)
	if err != nil {
		return fmt.Errorf("%w: %s constant cannot hold %T", ErrConstantType, c.typ, v)
	}
	c.value = converted
	return nil
}

// Clone returns an independent copy.
func (c *ScalarConstant[T]) Clone() Constant {
	return &ScalarConstant[T]{typ: c.typ, value: c.value}
}

// VectorConstant holds a fixed number of float components.
type VectorConstant struct {
	typ    TypeHandle
	values []float64
}

// NewVectorConstant creates a zero vector with n components.
func NewVectorConstant(typ TypeHandle, n int) *VectorConstant {
	return &VectorConstant{typ: typ, values: make([]float64, n)}
}

// Type returns the data type of the constant.
func (c *VectorConstant) Type() TypeHandle { return c.typ }

// Value returns a copy of the components.
func (c *VectorConstant) Value() any {
	out := make([]float64, len(c.values))
	copy(out, c.values)
	return out
}

// SetValue accepts []float64 or []any of numbers with the right length.
func (c *VectorConstant) SetValue(v any) error {
	var in []float64
	switch vv := v.(type) {
	case []float64:
		in = vv
	case []any:
		in = make([]float64, 0, len(vv))
		for _, item := range vv {
			f, err := coerce[float64](item)
			if err != nil {
				return fmt.Errorf("%w: %s component %T", ErrConstantType, c.typ, item)
			}
			in = append(in, f)
		}
	default:
		return fmt.Errorf("%w: %s constant cannot hold %T", ErrConstantType, c.typ, v)
	}
	if len(in) != len(c.values) {
		return fmt.Errorf("%w: %s wants %d components, got %d", ErrConstantType, c.typ, len(c.values), len(in))
	}
	copy(c.values, in)
	return nil
}

// Clone returns an independent copy.
func (c *VectorConstant) Clone() Constant {
	out := &VectorConstant{typ: c.typ, values: make([]float64, len(c.values))}
	copy(out.values, c.values)
	return out
}

var (
	_ Constant = (*ScalarConstant[bool])(nil)
	_ Constant = (*VectorConstant)(nil)
)

func coerce[T any](v any) (T, error) {
	var zero T
	if t, ok := v.(T); ok {
		return t, nil
	}
	var out any
	switch any(zero).(type) {
	case int64:
		switch n := v.(type) {
		case int:
			out = int64(n)
		case int32:
			out = int64(n)
		case uint64:
			if n <= math.MaxInt64 {
				out = int64(n)
			}
		case float64:
			// Only whole values inside [-2^63, 2^63) convert exactly.
			if n == math.Trunc(n) && n >= math.MinInt64 && n < -math.MinInt64 {
				out = int64(n)
			}
		}
	case float64:
		switch n := v.(type) {
		case int:
			out = float64(n)
		case int32:
			out = float64(n)
		case int64:
			out = float64(n)
		case float32:
			out = float64(n)
		}
	}
	if t, ok := out.(T); ok {
		return t, nil
	}
	return zero, ErrConstantType
}

// KindRole says where a node kind may be instantiated.
type KindRole int

const (
	RoleNode KindRole = iota
	RoleContext
	RoleBlock
)

func (r KindRole) String() string {
	switch r {
	case RoleNode:
		return "node"
	case RoleContext:
		return "context"
	case RoleBlock:
		return "block"
	default:
		return "unknown"
	}
}

// NodeKind is a registered node constructor.
type NodeKind struct {
	Tag   string
	Title string
	Role  KindRole
	// New creates a fresh definition for one node instance.
	New func() Definition
	// AllowSelfConnection lets wires connect two ports of the same node.
	AllowSelfConnection bool
}

// Library holds the data types and node kinds a graph can instantiate. It is
// filled once at startup and read-only afterwards.
type Library struct {
	types map[TypeHandle]*TypeInfo
	kinds map[string]NodeKind
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		types: make(map[TypeHandle]*TypeInfo),
		kinds: make(map[string]NodeKind),
	}
}

// RegisterType adds a data type.
func (l *Library) RegisterType(info TypeInfo) error {
	if info.Handle == TypeUnknown {
		return fmt.Errorf("%w: empty handle", ErrUnknownType)
	}
	if _, ok := l.types[info.Handle]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, info.Handle)
	}
	for _, f := range info.Fields {
		if _, ok := l.types[f.Type]; !ok {
			return fmt.Errorf("%w: field %s of %s has type %s", ErrUnknownType, f.Name, info.Handle, f.Type)
		}
	}
	stored := info
	l.types[info.Handle] = &stored
	return nil
}

// RegisterKind adds a node kind.
func (l *Library) RegisterKind(k NodeKind) error {
	if k.Tag == "" || k.New == nil {
		return fmt.Errorf("%w: %q is incomplete", ErrUnknownNodeKind, k.Tag)
	}
	if _, ok := l.kinds[k.Tag]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeKind, k.Tag)
	}
	l.kinds[k.Tag] = k
	return nil
}

// Type returns the registered type info.
func (l *Library) Type(h TypeHandle) (*TypeInfo, bool) {
	if l == nil {
		return nil, false
	}
	t, ok := l.types[h]
	return t, ok
}

// HasType reports whether h is registered. The execution type is always known.
func (l *Library) HasType(h TypeHandle) bool {
	if h == TypeExecution {
		return true
	}
	_, ok := l.Type(h)
	return ok
}

// Kind returns the registered node kind.
func (l *Library) Kind(tag string) (NodeKind, bool) {
	if l == nil {
		return NodeKind{}, false
	}
	k, ok := l.kinds[tag]
	return k, ok
}

// Kinds returns all node kinds sorted by tag.
func (l *Library) Kinds() []NodeKind {
	out := make([]NodeKind, 0, len(l.kinds))
	for _, k := range l.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// NewConstant creates the default constant for h.
func (l *Library) NewConstant(h TypeHandle) (Constant, bool) {
	t, ok := l.Type(h)
	if !ok || t.NewConstant == nil {
		return nil, false
	}
	return t.NewConstant(), true
}

// Expandable reports whether ports of type h have sub-ports.
func (l *Library) Expandable(h TypeHandle) bool {
	t, ok := l.Type(h)
	return ok && t.Expandable()
}

// Compatible reports whether an output of type from may feed an input of type to.
func (l *Library) Compatible(from, to TypeHandle) bool {
	if from == to {
		return true
	}
	if from == TypeExecution || to == TypeExecution {
		return false
	}
	return from == TypeAny || to == TypeAny
}
