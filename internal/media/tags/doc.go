// Package tags reads song metadata (title, artist, album) embedded in audio
// files via github.com/dhowden/tag. Tags are informational: the pipeline
// records them in the run bundle but never requires them.
package tags
