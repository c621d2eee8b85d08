package ir

// DetectionOutputV8Attrs are the attributes of the version-8 DetectionOutput
// operator. Unlike version 1 it carries no explicit class count: the count is
// derived from the input shapes when they are static (see ComputeNumClasses).
type DetectionOutputV8Attrs struct {
	BackgroundLabelId       int
	TopK                    int
	VarianceEncodedInTarget bool
	KeepTopK                []int
	CodeType                string
	ShareLocation           bool
	NMSThreshold            float32
	ConfidenceThreshold     float32
	ClipAfterNMS            bool
	ClipBeforeNMS           bool
	DecreaseLabelId         bool
	Normalized              bool
	InputHeight             int
	InputWidth              int
	ObjectnessScore         float32
}

// DetectionOutputV1Attrs are the attributes of the version-1 DetectionOutput
// operator: the version-8 schema plus an explicit NumClasses.
type DetectionOutputV1Attrs struct {
	NumClasses              int
	BackgroundLabelId       int
	TopK                    int
	VarianceEncodedInTarget bool
	KeepTopK                []int
	CodeType                string
	ShareLocation           bool
	NMSThreshold            float32
	ConfidenceThreshold     float32
	ClipAfterNMS            bool
	ClipBeforeNMS           bool
	DecreaseLabelId         bool
	Normalized              bool
	InputHeight             int
	InputWidth              int
	ObjectnessScore         float32
}

// ShuffleChannelsAttrs are the attributes of the ShuffleChannels operator.
//
// Axis may be negative, following the usual negative-indexing convention
// against the input rank; Group must divide the axis extent exactly -- both
// are validated by the operator's upstream constructor, not here.
type ShuffleChannelsAttrs struct {
	Axis  int
	Group int
}

// ComputeNumClasses derives the class count of a DetectionOutput node from
// its input shapes: inputs are (box logits [N, priors*4*locClasses]),
// (class predictions [N, priors*classes]) and
// (proposals [priorsBatch, 1..2, priors*priorBoxSize]).
//
// It returns ok=false when the involved dimensions are not statically known,
// or when they are inconsistent -- the caller treats both the same way, as
// "not deducible".
func ComputeNumClasses(node *Node) (numClasses int, ok bool) {
	if node.OpType() != OpDetectionOutput || node.NumInputs() < 3 {
		return 0, false
	}
	attrs, isV8 := node.Attrs().(*DetectionOutputV8Attrs)
	if !isV8 {
		return 0, false
	}

	classPreds := node.Input(1).Shape()
	proposals := node.Input(2).Shape()
	if classPreds.Rank() != 2 || proposals.Rank() != 3 {
		return 0, false
	}

	priorBoxSize := 4
	if !attrs.Normalized {
		priorBoxSize = 5
	}

	proposalsLen := proposals.Dim(2)
	classesLen := classPreds.Dim(1)
	if proposalsLen == DynamicDim || classesLen == DynamicDim {
		return 0, false
	}
	if proposalsLen%priorBoxSize != 0 {
		return 0, false
	}
	numPriors := proposalsLen / priorBoxSize
	if numPriors <= 0 || classesLen%numPriors != 0 {
		return 0, false
	}
	return classesLen / numPriors, true
}
