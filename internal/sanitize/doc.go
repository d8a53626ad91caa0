// Package sanitize strips reasoning and commentary from model output.
//
// A Rules value is an explicit table of spans removed from the raw text and
// line filters (phrases, whole words, prefixes). TranslationRules and
// TranscriptionRules are the two presets used by the pipeline.
package sanitize
