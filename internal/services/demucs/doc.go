// Package demucs wraps the Demucs source-separation CLI.
//
// A Run names one configuration (model, two-stem or full, WAV or MP3).
// DefaultRuns expands the configured model list into the ordered runs the
// separation stage tries. Service builds the command line, executes it
// through an injectable CommandRunner, and reports where the stems landed.
package demucs
