// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and Details, which maps
//     any failure onto a user-safe code and message for the API and CLI.
//
// Provider adapters live in sub-packages (llm, whisperx, demucs).
package services
