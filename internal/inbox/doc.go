// Package inbox watches a drop directory and feeds new audio files to the
// pipeline.
//
// Files are picked up once their size stops changing between two settle
// intervals. Each file is processed once, serially, with the configured
// default target languages, and then moved into processed/ or failed/ so a
// restart does not pick it up again.
package inbox
