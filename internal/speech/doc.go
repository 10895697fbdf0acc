// Package speech splits text into naturally paced chunks and plays them one
// at a time through a synthesis engine, with per-chunk prosody variation,
// inter-chunk pauses and cancellation.
package speech
