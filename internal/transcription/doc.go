// Package transcription holds the speech-to-text engines and the
// coordinator that runs them over the chunks of one request in parallel.
package transcription
