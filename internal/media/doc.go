// Package media models the audio files flowing through the pipeline.
//
// Asset is an immutable handle whose duration and sample format are probed
// lazily and memoized. Prober is the non-raising probing contract; the
// ffprobe-backed implementation logs failures at debug level and reports
// zero values instead of errors. Sub-packages wrap ffprobe, ffmpeg, and tag
// reading.
package media
