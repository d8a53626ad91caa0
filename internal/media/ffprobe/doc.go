// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: audio stream properties (codec, sample rate, channels)
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect executes ffprobe; Parse decodes captured output. Helper methods on
// Result never fail: missing or malformed numbers read as 0.
package ffprobe
