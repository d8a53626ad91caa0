// Package llm provides an OpenAI-compatible chat completion client.
//
// This package is used by:
//   - Transcription: multimodal models receive vocal chunks as input_audio
//     parts and return lyric text
//   - Language detection and translation: plain text prompts with explicit
//     temperature and token budgets
//   - Preflight: HealthCheck verifies the key and default model
//
// # Configuration
//
// Requires api_key and a model (per request or client default), and
// optionally base_url, referer, title, timeout.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, network timeouts, and empty
// content with exponential backoff (base 1s, max 10s, up to 3 attempts by
// default). Context cancellation aborts retries immediately. Callers layer
// their own provider fallback on top of these transport retries.
package llm
