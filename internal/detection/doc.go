// Package detection scores structural discontinuities in an enhanced
// radiograph and turns the best one into a report and a drawing instruction.
//
// # Detectors
//
// A Detector walks the sites of a dsp.ScanWindow, keeps the sites that are
// dense enough to be bone, and scores how sharply intensity drops around
// them. Two strategies are provided:
//
//   - NeighborDeviationDetector compares a site with the pixels Offset to
//     the right and Offset below. Every site whose drop exceeds the
//     threshold becomes a candidate.
//   - ConvolutionKernelDetector convolves a 3x3 high-pass kernel around the
//     site and keeps the single strongest response.
//
// Neighbor lookups are bounds-checked per site. A site whose neighborhood
// leaves the buffer is skipped, never read.
//
// # Ordering
//
// Candidates are ranked by descending score. Ties keep scan order (row-major,
// ascending y then x), so the first-seen site wins. Scan with workers > 1
// splits the window into row partitions and merges them in row order, which
// preserves this tie-break exactly.
//
// # Classification
//
// A Policy converts the top score into a confidence percentage and a Status.
// DeviationPolicy has a Suspicious band below its Critical cutoff;
// StressPolicy does not. All cutoffs are strict.
//
// # Annotation
//
// Style.Emit produces a circle Annotation for non-healthy reports.
// Annotation.Apply draws it on any Surface.
//
// # Coordinate System
//
// Origin (0, 0) is the top-left pixel, X grows rightward and Y downward.
package detection
