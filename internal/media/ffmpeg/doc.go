// Package ffmpeg wraps the ffmpeg invocations the pipeline relies on: chunk
// extraction to mono 16 kHz WAV, silence detection, pan-filter channel
// decomposition, and stem mixing.
//
// Every call goes through an injectable CommandRunner so tests can assert the
// argument lists without the binary installed.
package ffmpeg
