// Package rewrite implements structural pattern-match rewriting over ir
// graphs: canonicalization and operator-version down-conversion passes.
//
// A Rule pairs a Pattern -- a structural match on operator kind and version
// -- with a Callback that may validate further and either splice replacement
// nodes into the graph or decline. Declining is normal control flow, never an
// error.
package rewrite

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/govino/govino/ir"
)

// Pattern is a structural matcher over operator kind and version.
type Pattern struct {
	OpType  ir.OpType
	Version int
}

// Matches reports whether the node matches the pattern structurally. The
// callback performs any deeper validation.
func (p Pattern) Matches(node *ir.Node) bool {
	return node.OpType() == p.OpType && node.Version() == p.Version
}

// Callback is invoked for every node whose Pattern matched. It returns
// whether it rewrote the node. Returning (false, nil) declines the match and
// leaves the node untouched; an error aborts the pass with the graph exactly
// as it was before the failed attempt.
type Callback func(g *ir.Graph, node *ir.Node) (applied bool, err error)

// Rule is a named (Pattern, Callback) pair.
type Rule struct {
	Name     string
	Pattern  Pattern
	Callback Callback
}

// Rewriter runs a set of rewrite rules over a graph.
//
// Each rule is evaluated once per node in a single pass: the rules shipped
// here never produce new instances of their own pattern, so no fixed-point
// iteration is performed. A rule whose rewrite can re-match must not be
// registered here without first extending Run with an explicit fixed-point
// policy.
type Rewriter struct {
	rules []Rule
}

// NewRewriter returns a Rewriter with the given rules.
func NewRewriter(rules ...Rule) *Rewriter {
	return &Rewriter{rules: rules}
}

// Register appends a rule to the rewriter.
func (r *Rewriter) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Run applies every registered rule to the graph, one single pass per rule,
// and reports whether any node changed.
//
// Rewriting is single-threaded: the caller owns the graph for the duration
// of the call.
func (r *Rewriter) Run(g *ir.Graph) (changed bool, err error) {
	for _, rule := range r.rules {
		ruleChanged, err := r.runRule(g, rule)
		if err != nil {
			return changed, errors.WithMessagef(err, "rewrite rule %q", rule.Name)
		}
		changed = changed || ruleChanged
	}
	return changed, nil
}

func (r *Rewriter) runRule(g *ir.Graph, rule Rule) (changed bool, err error) {
	// The snapshot keeps iteration stable while callbacks splice nodes.
	for _, node := range g.Nodes() {
		if node.Graph() != g {
			// Removed by an earlier splice of this same rule.
			continue
		}
		if !rule.Pattern.Matches(node) {
			continue
		}
		applied, err := rule.Callback(g, node)
		if err != nil {
			return changed, errors.WithMessagef(err, "node %q", node.Name())
		}
		if applied {
			klog.V(2).Infof("rewrite: rule %q applied to node %q", rule.Name, node.Name())
			changed = true
		} else {
			klog.V(2).Infof("rewrite: rule %q declined node %q", rule.Name, node.Name())
		}
	}
	return changed, nil
}
