// Package lyrics assigns timestamps to lyric lines by dividing the audio
// duration into equal slices.
package lyrics
