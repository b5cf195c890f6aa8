// Package tts converts alert text into playable audio.
//
// Two backends are provided: OpenAI (network, MP3) and espeak-ng (local,
// WAV). Chain tries providers in order so a hazard alert still gets a voice
// when the network is down.
//
// Example usage:
//
//	remote, _ := tts.NewOpenAI(tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	local, _ := tts.NewEspeak()
//	chain, _ := tts.NewChain(remote, local)
//	defer chain.Close()
//
//	result, _ := chain.Synthesize(ctx, "Warning, dog very close.")
//	// result.Audio holds WAV or MP3 bytes, see result.Format
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks that the provider can be used.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio data.
	Audio []byte

	Format AudioFormat

	// Duration is the estimated playback duration, zero if unknown.
	Duration time.Duration

	CharCount int

	// LatencyMs is the synthesis time in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
	BitDepth   int
}

// Encoding identifies the container/codec of an AudioResult.
type Encoding string

const (
	EncodingWAV   Encoding = "wav"           // RIFF WAV, PCM16
	EncodingMP3   Encoding = "mp3_44100_128" // MP3 128kbps
	EncodingPCM24 Encoding = "pcm_24000"     // Raw 24kHz mono PCM16
)

// SampleRateFromEncoding returns the nominal sample rate of an encoding.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingWAV:
		return 22050 // espeak-ng default
	case EncodingMP3:
		return 44100
	case EncodingPCM24:
		return 24000
	default:
		return 24000
	}
}
