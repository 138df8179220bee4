package narration

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the playback phase. Transitions are serialized: a new Speak
// first forces any existing playback back to idle, so at most one
// narration is ever loading or audible.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhasePlaying
)

// Outcome is the terminal result of one playback.
type Outcome string

const (
	// OutcomePrimary: played to natural end via the remote synthesis path.
	OutcomePrimary Outcome = "primary"
	// OutcomeFallback: played to natural end via the local voice.
	OutcomeFallback Outcome = "fallback"
	// OutcomeSilent: both paths failed; nothing was audible.
	OutcomeSilent Outcome = "silent"
	// OutcomeInterrupted: halted by Stop before finishing.
	OutcomeInterrupted Outcome = "interrupted"
)

// Finished reports whether the playback ran to its natural end or errored
// out, as opposed to being cut off by Stop.
func (o Outcome) Finished() bool {
	return o == OutcomePrimary || o == OutcomeFallback || o == OutcomeSilent
}

// Synthesizer renders text into a playable audio payload. The remote
// backend client satisfies this.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

// Sink plays an audio payload to completion, honoring context
// cancellation.
type Sink interface {
	Play(ctx context.Context, audio []byte) error
}

// LocalVoice is the secondary path: a locally available speech capability
// that synthesizes and plays in one step.
type LocalVoice interface {
	Speak(ctx context.Context, text string) error
}

// Playback is the handle for one narration. It completes exactly once;
// Outcome distinguishes a natural end from an interruption.
type Playback struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	outcome Outcome
}

// Done is closed when the playback has settled, whatever the outcome.
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the terminal outcome, or "" while still in flight.
func (p *Playback) Outcome() Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome
}

// settle records the outcome and closes Done. Only the first caller wins.
func (p *Playback) settle(o Outcome) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outcome != "" {
		return false
	}
	p.outcome = o
	close(p.done)
	return true
}

// Player converts narrative text to audible speech with a two-tier
// strategy: remote synthesis first, local voice on any remote failure.
// The fallback is silent from the consumer's point of view; the only
// observable outcomes are "played via primary", "played via fallback",
// or "finished with nothing audible".
type Player struct {
	synth  Synthesizer
	sink   Sink
	voice  LocalVoice
	logger *zap.Logger

	mu        sync.Mutex
	phase     Phase
	active    *Playback
	useRemote bool
}

// NewPlayer creates a playback manager. Each instance owns its own state,
// so tests can run independent players side by side.
func NewPlayer(synth Synthesizer, sink Sink, voice LocalVoice, logger *zap.Logger) *Player {
	return &Player{
		synth:     synth,
		sink:      sink,
		voice:     voice,
		logger:    logger.Named("NarrationPlayer"),
		phase:     PhaseIdle,
		useRemote: true,
	}
}

// Phase returns the current playback phase.
func (pl *Player) Phase() Phase {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.phase
}

// Speak starts narrating text, stopping any narration already in flight
// first. It never fails outward: synthesis and playback errors are
// handled internally and reflected only in the handle's Outcome.
func (pl *Player) Speak(ctx context.Context, text string) *Playback {
	pl.Stop()

	playCtx, cancel := context.WithCancel(ctx)
	pb := &Playback{
		id:     uuid.New(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	pl.mu.Lock()
	pl.active = pb
	pl.phase = PhaseLoading
	pl.mu.Unlock()

	go pl.run(playCtx, pb, text)
	return pb
}

// Stop halts whatever narration is active. Idempotent and safe from any
// phase, including idle. A stopped playback settles as interrupted and
// its audio resource is released; it is never reported as finished.
func (pl *Player) Stop() {
	pl.mu.Lock()
	pb := pl.active
	pl.active = nil
	pl.phase = PhaseIdle
	pl.mu.Unlock()

	if pb != nil {
		if pb.settle(OutcomeInterrupted) {
			pl.logger.Debug("Narration stopped", zap.String("playback_id", pb.id.String()))
		}
		pb.cancel()
	}
}

// Toggle stops the narration when one is loading or audible, otherwise
// starts speaking text.
func (pl *Player) Toggle(ctx context.Context, text string) *Playback {
	pl.mu.Lock()
	busy := pl.phase != PhaseIdle
	pl.mu.Unlock()

	if busy {
		pl.Stop()
		return nil
	}
	return pl.Speak(ctx, text)
}

func (pl *Player) run(ctx context.Context, pb *Playback, text string) {
	defer pl.release(pb)

	log := pl.logger.With(zap.String("playback_id", pb.id.String()))

	if pl.remoteEnabled() {
		audio, err := pl.synth.SynthesizeSpeech(ctx, text)
		if err == nil {
			pl.setPhase(pb, PhasePlaying)
			if playErr := pl.sink.Play(ctx, audio); playErr == nil {
				if pb.settle(OutcomePrimary) {
					log.Debug("Narration finished via primary path")
				}
				return
			} else {
				err = playErr
			}
		}
		if ctx.Err() != nil {
			// Stopped mid-flight; the handle is already settled.
			return
		}
		pl.disableRemote()
		log.Warn("Remote narration failed, falling back to local voice", zap.Error(err))
	}

	pl.setPhase(pb, PhasePlaying)
	if err := pl.voice.Speak(ctx, text); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn("Local voice failed, narration is silent", zap.Error(err))
		pb.settle(OutcomeSilent)
		return
	}
	if pb.settle(OutcomeFallback) {
		log.Debug("Narration finished via fallback path")
	}
}

// release runs on every exit path: it frees the playback's resources,
// guarantees the handle settles, and returns the player to idle if this
// playback is still the active one.
func (pl *Player) release(pb *Playback) {
	pb.settle(OutcomeInterrupted)
	pb.cancel()

	pl.mu.Lock()
	if pl.active == pb {
		pl.active = nil
		pl.phase = PhaseIdle
	}
	pl.mu.Unlock()
}

// setPhase advances the phase only while pb is still the active playback,
// so a stopped narration cannot resurrect the player out of idle.
func (pl *Player) setPhase(pb *Playback, phase Phase) {
	pl.mu.Lock()
	if pl.active == pb {
		pl.phase = phase
	}
	pl.mu.Unlock()
}

func (pl *Player) remoteEnabled() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.useRemote
}

// disableRemote latches the player onto the local voice after the first
// remote failure, mirroring how the web client stops retrying a dead
// synthesis backend.
func (pl *Player) disableRemote() {
	pl.mu.Lock()
	pl.useRemote = false
	pl.mu.Unlock()
}
