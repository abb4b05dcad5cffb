// Package voice wraps the external speech I/O collaborators: text-to-speech
// synthesis and speech-to-text transcription. The agent only ever requests
// rendering or transcription; playback and audio routing belong to the room
// service.
package voice

import "context"

// SynthesizeOptions configures synthesis.
type SynthesizeOptions struct {
	Voice      string // voice identifier
	Language   string // language code
	Format     string // "wav", "mp3", or "pcm"
	SampleRate int
}

// Synthesis is the rendered audio for one utterance.
type Synthesis struct {
	Audio  []byte
	Format string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)
}

// TranscribeOptions configures transcription.
type TranscribeOptions struct {
	Model      string
	Language   string
	Format     string
	SampleRate int
}

// Transcriber converts audio to text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (string, error)
}
