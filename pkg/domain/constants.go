package domain

// InitialTransformation is the canonical first step of every transform sequence.
// It converts the loaded design into an AIG so that the catalog commands apply.
const InitialTransformation = "strash"

// Feature keys produced by the structural analyzers.
const (
	FeatureWires       = "wires"
	FeaturePublicWires = "public_wires"
	FeatureCells       = "cells"
	FeatureAnds        = "ands"
	FeatureOrs         = "ors"
	FeatureNots        = "nots"
	FeatureInputs      = "inputs"
	FeatureOutputs     = "outputs"
	FeatureEdges       = "edges"
	FeatureLevels      = "levels"
	FeatureLatches     = "latches"
)

// FeatureNames is the fixed ordering of the observation vector.
var FeatureNames = []string{
	FeatureWires,
	FeaturePublicWires,
	FeatureCells,
	FeatureAnds,
	FeatureOrs,
	FeatureNots,
	FeatureInputs,
	FeatureOutputs,
	FeatureEdges,
	FeatureLevels,
	FeatureLatches,
}

// Target selects the technology mapping performed after the transform sequence.
type Target string

const (
	// TargetSCL maps to a standard-cell library under a clock period (delay/area report).
	TargetSCL Target = "scl"
	// TargetFPGA maps to K-input LUTs (node/level report).
	TargetFPGA Target = "fpga"
)
