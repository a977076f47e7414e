// Package audio decodes uploaded audio into PCM and splits it into
// fixed-length, self-contained WAV chunks for transcription.
package audio
