package rewrite

import (
	"github.com/govino/govino/ir"
)

// ConvertDetectionOutput8To1 returns the rule that down-converts version-8
// DetectionOutput nodes to version 1.
//
// Version 8 derives its class count from the input shapes; version 1 needs it
// as an explicit attribute. The conversion is therefore only applicable when
// the class count is statically deducible -- otherwise the node is left
// unchanged.
func ConvertDetectionOutput8To1() Rule {
	return Rule{
		Name:     "ConvertDetectionOutput8To1",
		Pattern:  Pattern{OpType: ir.OpDetectionOutput, Version: 8},
		Callback: convertDetectionOutput8To1,
	}
}

func convertDetectionOutput8To1(g *ir.Graph, node *ir.Node) (bool, error) {
	attrsV8, ok := node.Attrs().(*ir.DetectionOutputV8Attrs)
	if !ok {
		return false, nil
	}
	numClasses, ok := ir.ComputeNumClasses(node)
	if !ok {
		// Applicable only when the number of classes is deduced.
		return false, nil
	}

	// Every version-8 field has a defined mapping into the version-1 schema;
	// the only addition is the deduced NumClasses.
	attrsV1 := &ir.DetectionOutputV1Attrs{
		NumClasses:              numClasses,
		BackgroundLabelId:       attrsV8.BackgroundLabelId,
		TopK:                    attrsV8.TopK,
		VarianceEncodedInTarget: attrsV8.VarianceEncodedInTarget,
		KeepTopK:                append([]int(nil), attrsV8.KeepTopK...),
		CodeType:                attrsV8.CodeType,
		ShareLocation:           attrsV8.ShareLocation,
		NMSThreshold:            attrsV8.NMSThreshold,
		ConfidenceThreshold:     attrsV8.ConfidenceThreshold,
		ClipAfterNMS:            attrsV8.ClipAfterNMS,
		ClipBeforeNMS:           attrsV8.ClipBeforeNMS,
		DecreaseLabelId:         attrsV8.DecreaseLabelId,
		Normalized:              attrsV8.Normalized,
		InputHeight:             attrsV8.InputHeight,
		InputWidth:              attrsV8.InputWidth,
		ObjectnessScore:         attrsV8.ObjectnessScore,
	}

	// The operator accepts either 3 required inputs or the 5-input form with
	// the two auxiliary inputs; anything else is not this rule's business.
	numInputs := node.NumInputs()
	if numInputs != 3 && numInputs != 5 {
		return false, nil
	}

	outputShapes := make([]ir.Shape, node.NumOutputs())
	for port := range outputShapes {
		outputShapes[port] = node.Output(port).Shape()
	}
	replacement, err := g.AddNode(ir.OpDetectionOutput, 1, node.Name(), attrsV1,
		node.Inputs(), outputShapes)
	if err != nil {
		return false, err
	}
	// ReplaceNode carries the friendly name and runtime info forward and is
	// all-or-nothing: on failure the original node stays in place and the
	// detached replacement is deleted again.
	if err := g.ReplaceNode(node, replacement); err != nil {
		_ = g.RemoveNode(replacement)
		return false, err
	}
	return true, nil
}
