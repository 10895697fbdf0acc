// Package record captures the microphone while text is being spoken and
// saves the take as a WAV file.
package record
