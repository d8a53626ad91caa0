// Package translation detects the language of a transcript and translates
// lyrics in two passes.
//
// The generate pass asks a chat model for a translation at a creative
// temperature. The extract pass asks again, at a low temperature, for only
// the lyrics from that answer, and the result is cleaned with
// sanitize.TranslationRules. An empty extract falls back to the sanitized
// generate output. Each pass walks the configured model list through a
// fallback chain with one relaxed retry per model.
package translation
