package nodelib

import "github.com/zjrosen/nodegraph/internal/domain/graph"

func defineSequence(d *graph.PortDefiner) {
	d.AddExecutionInput("in")
	d.AddOutputPort(graph.PortSpec{
		ID:       "then",
		Title:    "Then",
		Kind:     graph.PortKindExecution,
		Capacity: graph.CapacityMulti,
		Options:  graph.PortOptionReorderable,
	})
}

func defineBranch(d *graph.PortDefiner) {
	d.AddExecutionInput("in")
	d.AddInputPort(graph.PortSpec{ID: "condition", Title: "Condition", Type: TypeBool})
	d.AddExecutionOutput("true")
	d.AddExecutionOutput("false")
}

func defineStack(d *graph.PortDefiner) {
	d.AddExecutionInput("in")
	d.AddExecutionOutput("out")
}

func defineLogBlock(d *graph.PortDefiner) {
	d.AddInputPort(graph.PortSpec{ID: "message", Title: "Message", Type: TypeString})
}

func defineScaleBlock(d *graph.PortDefiner) {
	d.AddInputPort(graph.PortSpec{ID: "factor", Title: "Factor", Type: TypeFloat, Default: 1.0})
}
