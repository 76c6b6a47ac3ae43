// Package engine wires the signal stages and detectors into a single pipeline:
//
//	Normalize -> Enhance -> SampleDensity -> Detector.Scan -> Policy.Classify -> Style.Emit
//
// A Config selects the detector strategy and every threshold. Two presets are
// provided, NeighborDeviationPreset (the default) and ConvolutionKernelPreset,
// each pairing its detector with the matching classification policy and
// annotation style.
//
// Engine.Process runs once per frame, synchronously. The pixel buffer is
// enhanced in place; the returned Result carries the report and, for
// non-healthy frames, the annotation.
package engine
