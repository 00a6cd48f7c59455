package nodelib

import "github.com/zjrosen/nodegraph/internal/domain/graph"

// Data types registered by Register.
const (
	TypeBool    graph.TypeHandle = "bool"
	TypeInt     graph.TypeHandle = "int"
	TypeFloat   graph.TypeHandle = "float"
	TypeString  graph.TypeHandle = "string"
	TypeVector2 graph.TypeHandle = "vector2"
	TypeVector3 graph.TypeHandle = "vector3"
	TypeColor   graph.TypeHandle = "color"
	TypeAny                      = graph.TypeAny
)

func vectorType(h graph.TypeHandle, title string, fields ...string) graph.TypeInfo {
	info := graph.TypeInfo{
		Handle:      h,
		Title:       title,
		NewConstant: func() graph.Constant { return graph.NewVectorConstant(h, len(fields)) },
	}
	for _, f := range fields {
		info.Fields = append(info.Fields, graph.Field{Name: f, Type: TypeFloat})
	}
	return info
}

// types lists the data types in registration order; scalar types come first so
// vector fields resolve.
func types() []graph.TypeInfo {
	return []graph.TypeInfo{
		{Handle: TypeBool, Title: "Boolean", NewConstant: func() graph.Constant {
			return graph.NewScalarConstant(TypeBool, false)
		}},
		{Handle: TypeInt, Title: "Integer", NewConstant: func() graph.Constant {
			return graph.NewScalarConstant[int64](TypeInt, 0)
		}},
		{Handle: TypeFloat, Title: "Float", NewConstant: func() graph.Constant {
			return graph.NewScalarConstant[float64](TypeFloat, 0)
		}},
		{Handle: TypeString, Title: "String", NewConstant: func() graph.Constant {
			return graph.NewScalarConstant(TypeString, "")
		}},
		vectorType(TypeVector2, "Vector 2", "x", "y"),
		vectorType(TypeVector3, "Vector 3", "x", "y", "z"),
		vectorType(TypeColor, "Color", "r", "g", "b", "a"),
		{Handle: TypeAny, Title: "Any"},
	}
}
