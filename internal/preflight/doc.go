// Package preflight provides readiness checks for the external programs,
// filesystem paths, disk space, and LLM endpoint lyricsmith depends on.
//
// The HTTP server and inbox watcher call RunAll at startup and refuse to
// accept work when a required check fails. The CLI "lyricsmith status"
// command renders every check, including optional ones such as WhisperX.
package preflight
