// audio_output.go - Audio backend interface and factory

package main

import "fmt"

const (
	AUDIO_BACKEND_OTO = iota
	AUDIO_BACKEND_NONE
)

// AudioOutput is the seam between the engine and the platform audio layer.
// Backends pull interleaved stereo float32 from the engine.
type AudioOutput interface {
	Start()
	Stop()
	Close()
	IsStarted() bool
}

// NewAudioOutput builds the requested backend and hands it the engine to
// pull from.
func NewAudioOutput(backend int, sampleRate int, engine *SamplerEngine) (AudioOutput, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		player, err := NewOtoPlayer(sampleRate)
		if err != nil {
			return nil, err
		}
		player.SetupPlayer(engine)
		return player, nil
	case AUDIO_BACKEND_NONE:
		return &NullOutput{}, nil
	default:
		return nil, fmt.Errorf("audio output: unknown backend %d", backend)
	}
}

// NullOutput renders nothing; used by tests and offline tools.
type NullOutput struct {
	started bool
}

func (n *NullOutput) Start()          { n.started = true }
func (n *NullOutput) Stop()           { n.started = false }
func (n *NullOutput) Close()          { n.started = false }
func (n *NullOutput) IsStarted() bool { return n.started }
