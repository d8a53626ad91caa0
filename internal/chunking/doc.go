// Package chunking splits long audio into bounded windows and stitches the
// per-window results back together.
//
// Plan produces ceil(duration/window) contiguous windows; Refine optionally
// moves interior boundaries onto nearby silences without changing the count.
// Engine materializes windows as mono 16 kHz WAV extracts and Cleanup removes
// them. Reassemble joins partial results in index order and marks missing
// windows with a 1-based placeholder.
package chunking
