// Package pipeline sequences the lyrics stages for one audio file.
//
// An Orchestrator stages the input, separates it, transcribes the vocal stem,
// detects the source language, translates into each target, and times every
// lyric set against the song duration. Each call to Process owns a Run that
// records per-stage status and artifacts, writes its files under
// <output_dir>/<run-id>/ while holding an advisory lock, and ends with a
// result.json bundle. Runs are mirrored into the run history store when one
// is configured.
package pipeline
