// Package transcription turns a vocal stem into lyric text.
//
// Stage splits long audio into windows, runs each window through a fallback
// chain of providers on a bounded errgroup pool, and reassembles the window
// texts in order. A transcript shorter than the minimum length, or one still
// carrying the placeholder marker, triggers one escalation pass with smaller
// windows and a larger token budget. When that also fails the transcript is
// FailedSentinel.
//
// Providers: a multimodal chat model and a speech-model alias reached through
// the LLM client, local WhisperX, and a placeholder that never validates.
package transcription
