// Package ir defines the in-memory intermediate representation (IR) of a
// computation: a directed acyclic Graph of Nodes connected by typed Value
// edges.
//
// The graph is logically immutable once built; the only sanctioned mutation
// is Graph.ReplaceNode, used by rewrite passes (see the rewrite sub-package)
// to splice one node for another atomically.
//
// Operator attributes are plain structs attached to the Node. Each operator
// kind documents its attribute type; see DetectionOutputV8Attrs,
// DetectionOutputV1Attrs and ShuffleChannelsAttrs.
package ir

// OpType identifies the operator kind of a Node.
//
// Together with Node.Version it fully determines the attribute schema and the
// execution semantics of the node.
type OpType int

const (
	OpInvalid OpType = iota

	// OpParameter is a graph input placeholder.
	OpParameter

	// OpConstant holds a statically known tensor.
	OpConstant

	// OpDetectionOutput is the SSD-style detection post-processing operator.
	// Version 1 carries an explicit class count; version 8 derives it from
	// the input shapes.
	OpDetectionOutput

	// OpShuffleChannels splits one axis into (group, extent/group), swaps the
	// two and recombines them.
	OpShuffleChannels

	// OpResult marks a graph output.
	OpResult
)

// String implements fmt.Stringer.
func (op OpType) String() string {
	switch op {
	case OpParameter:
		return "Parameter"
	case OpConstant:
		return "Constant"
	case OpDetectionOutput:
		return "DetectionOutput"
	case OpShuffleChannels:
		return "ShuffleChannels"
	case OpResult:
		return "Result"
	default:
		return "InvalidOp"
	}
}
