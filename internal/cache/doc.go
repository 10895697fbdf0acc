// Package cache stores synthesized clips so repeated utterances skip the
// engine. It has an in-memory LRU (L1) in front of a zstd-compressed disk
// cache (L2) that survives restarts.
package cache
