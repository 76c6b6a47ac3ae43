// Package imaging connects decoded radiograph captures to the analysis
// engine and renders its output.
//
// # Loading
//
// ImageCache decodes each source once, applying EXIF orientation so phone
// captures come out upright. Sources are opened through a storage.Fetcher,
// so the same cache serves local paths, URLs and blobs.
//
// # Engine Bridge
//
// ToPixelBuffer copies any image.Image into a fresh dsp.PixelBuffer with its
// origin at (0, 0); FromPixelBuffer turns an enhanced buffer back into an
// *image.RGBA. Prepare downsizes oversized captures before analysis.
//
// # Rendering
//
// RasterSurface implements detection.Surface on an *image.RGBA, so an
// Annotation can be replayed on a raster the same way a canvas would draw
// it. Render strokes the annotation and a status caption onto a copy of the
// image. CropAround zooms on a candidate site.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y downward. Regions are half-open: Min is
// inclusive, Max exclusive.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Cached images are shared and must
// be treated as read-only; every function here that modifies pixels works on
// a copy.
package imaging
