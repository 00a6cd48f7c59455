// Package nodelib provides the built-in data types and node kinds of nodegraph.
package nodelib

import (
	"fmt"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

// Node kind tags.
const (
	KindAdd          = "math.add"
	KindSwitch       = "math.switch"
	KindConstant     = "value.constant"
	KindSplitVector3 = "vector3.split"
	KindSequence     = "flow.sequence"
	KindBranch       = "flow.branch"
	KindGetVariable  = "variable.get"
	KindSetVariable  = "variable.set"
	KindSubgraphCall = "subgraph.call"
	KindStack        = "context.stack"
	KindLogBlock     = "block.log"
	KindScaleBlock   = "block.scale"
)

func kinds() []graph.NodeKind {
	return []graph.NodeKind{
		{Tag: KindAdd, Title: "Add", New: func() graph.Definition { return &addDefinition{} }},
		{Tag: KindSwitch, Title: "Switch", New: func() graph.Definition { return &switchDefinition{} }},
		{Tag: KindConstant, Title: "Constant", New: func() graph.Definition { return &constantDefinition{} }},
		{Tag: KindSplitVector3, Title: "Split Vector 3", New: func() graph.Definition {
			return graph.DefineFunc(defineSplitVector3)
		}},
		{Tag: KindSequence, Title: "Sequence", New: func() graph.Definition {
			return graph.DefineFunc(defineSequence)
		}},
		{Tag: KindBranch, Title: "Branch", New: func() graph.Definition {
			return graph.DefineFunc(defineBranch)
		}},
		{Tag: KindGetVariable, Title: "Get Variable", New: func() graph.Definition { return &variableDefinition{} }},
		{Tag: KindSetVariable, Title: "Set Variable", New: func() graph.Definition {
			return &variableDefinition{set: true}
		}},
		{Tag: KindSubgraphCall, Title: "Subgraph", New: func() graph.Definition { return &subgraphDefinition{} }},
		{Tag: KindStack, Title: "Stack", Role: graph.RoleContext, New: func() graph.Definition {
			return graph.DefineFunc(defineStack)
		}},
		{Tag: KindLogBlock, Title: "Log", Role: graph.RoleBlock, New: func() graph.Definition {
			return graph.DefineFunc(defineLogBlock)
		}},
		{Tag: KindScaleBlock, Title: "Scale", Role: graph.RoleBlock, New: func() graph.Definition {
			return graph.DefineFunc(defineScaleBlock)
		}},
	}
}

// Register adds the built-in types and node kinds to lib.
func Register(lib *graph.Library) error {
	for _, t := range types() {
		if err := lib.RegisterType(t); err != nil {
			return fmt.Errorf("registering type %s: %w", t.Handle, err)
		}
	}
	for _, k := range kinds() {
		if err := lib.RegisterKind(k); err != nil {
			return fmt.Errorf("registering kind %s: %w", k.Tag, err)
		}
	}
	return nil
}

// NewLibrary returns a library holding the built-in types and node kinds.
func NewLibrary() *graph.Library {
	lib := graph.NewLibrary()
	if err := Register(lib); err != nil {
		// The built-in set is static; a failure here is a programming error.
		panic(err)
	}
	return lib
}
