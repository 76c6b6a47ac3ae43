// Package dsp implements the signal stages of the radiograph pipeline.
//
// The package operates on PixelBuffer, a contiguous interleaved RGBA byte
// buffer in the layout produced by a 2D canvas or *image.RGBA. The stages
// are applied in order:
//
//  1. Normalize: reduce R, G, B to a single luma value written back into all
//     three color channels (alpha untouched).
//  2. Enhance: linear contrast stretch around the 128 midpoint.
//  3. SampleDensity: median luminance over the interior scan window, used as
//     the baseline for density-relative detectors.
//
// # Coordinate System
//
// Coordinates are 0-based with origin at the top-left corner:
//   - X increases rightward, Y increases downward
//   - Index(x, y, c) = (y*Width + x)*4 + c
//
// # Scan Windows
//
// ScanWindow excludes a configurable margin on every side of the buffer and
// visits sites row-major (ascending y outer, ascending x inner) at a fixed
// step. The visiting order is part of the contract: detectors use it as the
// tie-break when two sites score the same.
//
// # Error Handling
//
// Errors wrap one of three sentinels and should be tested with errors.Is:
//   - ErrInvalidBuffer: buffer length does not match its dimensions
//   - ErrInvalidConfiguration: contrast level, steps or margins out of range
//   - ErrInsufficientSignal: the scan window holds no sample sites
//
// # Thread Safety
//
// Stages mutate the buffer in place and must not run concurrently on the same
// buffer from different callers. The *Parallel variants partition rows
// internally; each row is written by exactly one worker.
package dsp
