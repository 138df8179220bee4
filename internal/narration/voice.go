package narration

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecSink plays audio payloads by piping them into an external player
// command (aplay, ffplay, paplay...). The command is killed when the
// context is cancelled, which is how Stop releases the audio resource.
type ExecSink struct {
	argv []string
}

// NewExecSink parses a player command line such as "aplay -q -".
func NewExecSink(command string) *ExecSink {
	return &ExecSink{argv: strings.Fields(command)}
}

func (s *ExecSink) Play(ctx context.Context, audio []byte) error {
	if len(s.argv) == 0 {
		return fmt.Errorf("no audio player command configured")
	}
	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stdin = bytes.NewReader(audio)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("audio player %q failed: %w", s.argv[0], err)
	}
	return nil
}

// ExecVoice is the local fallback: an external speech synthesizer
// (espeak-ng configured for the narration language) that reads the text
// from stdin and plays it itself.
type ExecVoice struct {
	argv []string
}

// NewExecVoice parses a voice command line such as "espeak-ng -v fr".
func NewExecVoice(command string) *ExecVoice {
	return &ExecVoice{argv: strings.Fields(command)}
}

func (v *ExecVoice) Speak(ctx context.Context, text string) error {
	if len(v.argv) == 0 {
		return fmt.Errorf("no local voice command configured")
	}
	cmd := exec.CommandContext(ctx, v.argv[0], v.argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("local voice %q failed: %w", v.argv[0], err)
	}
	return nil
}
