// Package engines provides the speech synthesizers orate can drive: espeak,
// piper, gtts, a user supplied command and an offline mock. Every engine
// renders one utterance to PCM per call.
package engines
