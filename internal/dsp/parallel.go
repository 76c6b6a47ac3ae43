package dsp

import (
	"golang.org/x/sync/errgroup"
)

// ForEachRows splits the row range [0, rows) into at most workers contiguous
// parts and calls fn once per part. Parts are numbered in ascending row order
// so callers can merge per-part results deterministically.
//
// With workers <= 1 (or a single row) fn runs on the calling goroutine.
func ForEachRows(rows, workers int, fn func(part, start, end int) error) error {
	if rows <= 0 {
		return nil
	}
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		return fn(0, 0, rows)
	}

	var g errgroup.Group
	g.SetLimit(workers)

	chunk := (rows + workers - 1) / workers
	part := 0
	for start := 0; start < rows; start += chunk {
		end := start + chunk
		if end > rows {
			end = rows
		}
		p, s, e := part, start, end
		g.Go(func() error {
			return fn(p, s, e)
		})
		part++
	}
	return g.Wait()
}

// PartCount returns how many parts ForEachRows produces for the given inputs.
func PartCount(rows, workers int) int {
	if rows <= 0 {
		return 0
	}
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		return 1
	}
	chunk := (rows + workers - 1) / workers
	return (rows + chunk - 1) / chunk
}
