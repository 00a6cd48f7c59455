package testutil

import (
	"github.com/zjrosen/nodegraph/internal/domain/graph"
	"github.com/zjrosen/nodegraph/internal/nodelib"
)

// WithChainTestData adds the standard numeric chain.
//
// Structure:
//
//	source (constant) -> add1.a, add1.sum -> add2.a, add2.sum -> switch.a
//	sink (constant, unwired)
//
// add1.b holds the constant 2.5.
func (b *Builder) WithChainTestData() *Builder {
	return b.
		WithNode("source", nodelib.KindConstant, At(0, 0), Constant("value", 1.0)).
		WithNode("add1", nodelib.KindAdd, At(100, 0), Constant("b", 2.5)).
		WithNode("add2", nodelib.KindAdd, At(200, 0)).
		WithNode("switch", nodelib.KindSwitch, At(300, 0)).
		WithNode("sink", nodelib.KindConstant, At(400, 0)).
		WithWire("source", "out", "add1", "a").
		WithWire("add1", "sum", "add2", "a").
		WithWire("add2", "sum", "switch", "a")
}

// WithFlowTestData adds execution flow nodes.
//
// Structure:
//
//	seq.then -> branch.in, seq.then -> log.in (in that order)
//	flag (bool constant) -> branch.condition
func (b *Builder) WithFlowTestData() *Builder {
	return b.
		WithNode("seq", nodelib.KindSequence, At(0, 200)).
		WithNode("branch", nodelib.KindBranch, At(150, 200)).
		WithNode("log", nodelib.KindSequence, At(150, 300), Title("Log")).
		WithNode("flag", nodelib.KindConstant, At(0, 300), Option("type", string(nodelib.TypeBool))).
		WithWire("seq", "then", "branch", "in").
		WithWire("seq", "then", "log", "in").
		WithWire("flag", "out", "branch", "condition")
}

// WithVariableTestData declares the float variable "speed" with a getter
// wired into a setter.
func (b *Builder) WithVariableTestData() *Builder {
	return b.
		WithNode("get", nodelib.KindGetVariable, At(0, 400)).
		WithNode("set", nodelib.KindSetVariable, At(200, 400)).
		WithVariable(graph.VariableSpec{
			Name:    "speed",
			Type:    nodelib.TypeFloat,
			Scope:   graph.ScopeInput,
			Default: 4.5,
		}, "get", "set").
		WithWire("get", "value", "set", "value")
}
