// Package separation splits a song into a vocal stem and an accompaniment
// stem.
//
// Stage tries each Engine through a fallback chain, accepting output only
// when both files exist and meet the minimum size. When every engine fails it
// decomposes the stereo signal into mid and side channels, and when that
// fails too it copies the input as both stems. Both last resorts mark the
// result Degraded and log a separation_degraded warning.
package separation
