package ir

import (
	"github.com/pkg/errors"
)

// Graph is a directed acyclic set of Nodes connected by Value edges.
//
// Nodes must be created with their inputs already in the graph, so the
// internal node list is always topologically sorted. A Graph is not safe for
// concurrent mutation: a rewrite pass owns the graph for the duration of its
// traversal.
type Graph struct {
	name   string
	nodes  []*Node
	nextId NodeId
}

// NewGraph creates an empty graph with the given name.
func NewGraph(name string) *Graph {
	return &Graph{name: name}
}

// Name of the graph.
func (g *Graph) Name() string { return g.name }

// NumNodes returns the number of live nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Nodes returns a snapshot of the graph's nodes in topological order.
//
// The snapshot is not invalidated by subsequent ReplaceNode calls, which is
// what allows rewrite passes to iterate while splicing.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// AddNode creates a node with the given operator kind/version, inputs and
// output shapes, and appends it to the graph.
//
// All inputs must already belong to this graph; the new node is therefore a
// valid topological successor of every node already present.
func (g *Graph) AddNode(opType OpType, version int, name string, attrs any,
	inputs []*Value, outputShapes []Shape) (*Node, error) {
	for i, input := range inputs {
		if input == nil {
			return nil, errors.Errorf("AddNode(%s): input #%d is nil", opType, i)
		}
		if input.producer == nil || input.producer.graph != g {
			return nil, errors.Errorf("AddNode(%s): input #%d does not belong to graph %q",
				opType, i, g.name)
		}
	}

	node := &Node{
		graph:   g,
		id:      g.nextId,
		opType:  opType,
		version: version,
		name:    name,
		attrs:   attrs,
		inputs:  make([]*Value, len(inputs)),
		outputs: make([]*Value, len(outputShapes)),
	}
	g.nextId++

	for i, input := range inputs {
		node.inputs[i] = input
		input.consumers = append(input.consumers, Use{Node: node, InputIdx: i})
	}
	for port, shape := range outputShapes {
		node.outputs[port] = &Value{
			producer: node,
			port:     port,
			shape:    shape.Clone(),
		}
	}

	g.nodes = append(g.nodes, node)
	return node, nil
}

// ReplaceNode splices newNode in place of oldNode: every consumer of each of
// oldNode's outputs is rewired to the corresponding output of newNode, the
// friendly name and runtime info are carried forward, and oldNode is removed
// from the graph.
//
// The splice is atomic: it either fully succeeds, or fails without touching
// the graph. Both nodes must belong to this graph and have the same number of
// outputs with matching shapes.
func (g *Graph) ReplaceNode(oldNode, newNode *Node) error {
	// Validate everything up front; no mutation happens before this block
	// passes, so a failed attempt leaves the graph untouched.
	if oldNode == nil || newNode == nil {
		return errors.New("ReplaceNode: nil node")
	}
	if oldNode.graph != g {
		return errors.Errorf("ReplaceNode: node %q does not belong to graph %q", oldNode.name, g.name)
	}
	if newNode.graph != g {
		return errors.Errorf("ReplaceNode: node %q does not belong to graph %q", newNode.name, g.name)
	}
	if oldNode == newNode {
		return errors.Errorf("ReplaceNode: cannot replace node %q with itself", oldNode.name)
	}
	if len(oldNode.outputs) != len(newNode.outputs) {
		return errors.Errorf("ReplaceNode(%q): output count mismatch, %d vs %d",
			oldNode.name, len(oldNode.outputs), len(newNode.outputs))
	}
	for port := range oldNode.outputs {
		oldShape := oldNode.outputs[port].shape
		newShape := newNode.outputs[port].shape
		if !oldShape.Equal(newShape) {
			return errors.Errorf("ReplaceNode(%q): output #%d shape mismatch, %s vs %s",
				oldNode.name, port, oldShape, newShape)
		}
	}

	// Rewire all consumers of oldNode's outputs.
	for port, oldValue := range oldNode.outputs {
		newValue := newNode.outputs[port]
		for _, use := range oldValue.consumers {
			use.Node.inputs[use.InputIdx] = newValue
			newValue.consumers = append(newValue.consumers, use)
		}
		oldValue.consumers = nil
	}

	// Carry forward the identity of the replaced node.
	newNode.name = oldNode.name
	for key, value := range oldNode.rtInfo {
		newNode.SetRTInfo(key, value)
	}

	g.removeNode(oldNode)
	return nil
}

// RemoveNode deletes a node that has no remaining consumers from the graph.
func (g *Graph) RemoveNode(node *Node) error {
	if node == nil || node.graph != g {
		return errors.Errorf("RemoveNode: node does not belong to graph %q", g.name)
	}
	for _, output := range node.outputs {
		if len(output.consumers) > 0 {
			return errors.Errorf("RemoveNode(%q): node still has consumers", node.name)
		}
	}
	g.removeNode(node)
	return nil
}

// removeNode detaches the node from its input values and drops it from the
// node list. The node must have no remaining consumers.
func (g *Graph) removeNode(node *Node) {
	for inputIdx, input := range node.inputs {
		input.removeUse(node, inputIdx)
	}
	node.inputs = nil
	node.graph = nil
	node.id = InvalidNodeId
	for i, candidate := range g.nodes {
		if candidate == node {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			return
		}
	}
}
