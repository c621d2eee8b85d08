package ir

import (
	"fmt"
	"strings"
)

// NodeId is a unique identifier of a Node within its Graph.
type NodeId int

// InvalidNodeId is returned for nodes that were removed from their graph.
const InvalidNodeId = NodeId(-1)

// Use records one consumer of a Value: the consuming node and which of its
// input slots the value feeds.
type Use struct {
	Node     *Node
	InputIdx int
}

// Value is a typed edge of the graph: the output of one node, consumed by
// zero or more downstream nodes.
type Value struct {
	producer *Node
	port     int
	shape    Shape

	// consumers is kept in no particular order; rewrite splices preserve
	// each consumer's input slot, not its position in this list.
	consumers []Use
}

// Shape of the value.
func (v *Value) Shape() Shape { return v.shape }

// Producer returns the node producing this value and the output port it
// comes from.
func (v *Value) Producer() (*Node, int) { return v.producer, v.port }

// Consumers returns a copy of the current consumer list.
func (v *Value) Consumers() []Use {
	uses := make([]Use, len(v.consumers))
	copy(uses, v.consumers)
	return uses
}

// NumConsumers returns how many input slots consume this value.
func (v *Value) NumConsumers() int { return len(v.consumers) }

func (v *Value) removeUse(node *Node, inputIdx int) {
	for i, use := range v.consumers {
		if use.Node == node && use.InputIdx == inputIdx {
			v.consumers = append(v.consumers[:i], v.consumers[i+1:]...)
			return
		}
	}
}

// Node is one operator instance in a Graph.
//
// A node is created with its inputs already present in the graph, so the
// graph's insertion order is a valid topological order -- the executor and
// the rewriter rely on this invariance.
type Node struct {
	graph   *Graph
	id      NodeId
	opType  OpType
	version int
	name    string

	inputs  []*Value
	outputs []*Value

	// rtInfo carries provenance and runtime metadata. It is copied forward
	// by rewrite splices, never interpreted by the graph itself.
	rtInfo map[string]any

	// attrs is the operator-specific attribute struct (may be nil for
	// attribute-free operators).
	attrs any
}

// Graph the node belongs to, or nil if it was removed.
func (n *Node) Graph() *Graph { return n.graph }

// Id of the node within its graph.
func (n *Node) Id() NodeId { return n.id }

// OpType returns the operator kind.
func (n *Node) OpType() OpType { return n.opType }

// Version returns the operator version tag.
func (n *Node) Version() int { return n.version }

// Name returns the friendly name of the node.
func (n *Node) Name() string { return n.name }

// SetName changes the friendly name of the node.
func (n *Node) SetName(name string) { n.name = name }

// NumInputs returns the number of input values.
func (n *Node) NumInputs() int { return len(n.inputs) }

// Input returns the idx-th input value.
func (n *Node) Input(idx int) *Value { return n.inputs[idx] }

// Inputs returns a copy of the ordered input values.
func (n *Node) Inputs() []*Value {
	inputs := make([]*Value, len(n.inputs))
	copy(inputs, n.inputs)
	return inputs
}

// NumOutputs returns the number of output values.
func (n *Node) NumOutputs() int { return len(n.outputs) }

// Output returns the idx-th output value.
func (n *Node) Output(idx int) *Value { return n.outputs[idx] }

// Attrs returns the operator-specific attribute struct.
func (n *Node) Attrs() any { return n.attrs }

// RTInfo returns the value stored under the given runtime-info key.
func (n *Node) RTInfo(key string) (any, bool) {
	value, ok := n.rtInfo[key]
	return value, ok
}

// SetRTInfo stores a runtime-info entry on the node.
func (n *Node) SetRTInfo(key string, value any) {
	if n.rtInfo == nil {
		n.rtInfo = make(map[string]any)
	}
	n.rtInfo[key] = value
}

// rtInfoQuantized marks nodes that sit inside a quantization-sensitive
// subgraph; it steers memory-layout preference during compilation.
const rtInfoQuantized = "quantized"

// MarkQuantized tags the node as belonging to a quantized subgraph.
func (n *Node) MarkQuantized() { n.SetRTInfo(rtInfoQuantized, true) }

// IsQuantized reports whether the node was tagged as quantized.
func (n *Node) IsQuantized() bool {
	value, ok := n.rtInfo[rtInfoQuantized]
	if !ok {
		return false
	}
	quantized, ok := value.(bool)
	return ok && quantized
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	shapeStrs := make([]string, len(n.outputs))
	for i, out := range n.outputs {
		shapeStrs[i] = out.shape.String()
	}
	return fmt.Sprintf("%s.v%d(%q) -> %s", n.opType, n.version, n.name,
		strings.Join(shapeStrs, ", "))
}
