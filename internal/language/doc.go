// Package language canonicalizes language names and codes.
//
// Detection answers from a chat model arrive as free text ("spanish",
// "Español", "pt-BR"); Canonical reduces them to one English display name
// so the pipeline can compare the detected language against targets and
// name translation artifacts consistently. Codes outside the built-in table
// resolve through golang.org/x/text.
package language
