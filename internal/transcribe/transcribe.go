// Package transcribe turns recorded audio into text via a remote
// OpenAI-compatible transcription endpoint. The rest of the application
// only sees the Transcriber interface and the text coming back.
package transcribe

import "context"

// Transcriber converts a WAV recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte) (string, error)
}
