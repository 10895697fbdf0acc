// Package audio turns utterances into sound. It holds the PCM and WAV
// helpers, the oto-backed Player, and Speaker, which chains a cache, a
// synthesizer and an output into a speech engine.
package audio
