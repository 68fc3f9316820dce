// Package tts invokes an external text-to-speech executable to narrate
// slide notes. The tool is an opaque collaborator: it reads a text file,
// writes an audio file, and signals failure through its exit code.
package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Synthesizer converts a text file into an audio file. Implementations
// block until synthesis completes.
type Synthesizer interface {
	Synthesize(ctx context.Context, textPath, audioPath string) error
}

// CommandSynthesizer runs an external executable once per invocation with
// `-f <text> -o <audio>` arguments.
type CommandSynthesizer struct {
	// Path is the executable, resolved via PATH when not absolute.
	Path string
	// Timeout bounds one invocation; zero means no bound beyond ctx.
	Timeout time.Duration
}

// NewCommandSynthesizer creates a synthesizer invoking the given executable.
func NewCommandSynthesizer(path string) *CommandSynthesizer {
	return &CommandSynthesizer{Path: path}
}

// Synthesize runs the executable and waits for it to exit. The command
// runs from the directory containing the text file and receives bare file
// names, so tools that resolve paths relative to their working directory
// behave the same as when run by hand from the output folder. A non-zero
// exit or a missing/empty output file is an error.
func (s *CommandSynthesizer) Synthesize(ctx context.Context, textPath, audioPath string) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	dir := filepath.Dir(textPath)
	cmd := exec.CommandContext(ctx, s.Path, "-f", filepath.Base(textPath), "-o", filepath.Base(audioPath))
	cmd.Dir = dir
	// Force UTF-8 output handling in tools that honor it.
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")

	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("synthesis command failed: %w: %s", err, msg)
		}
		return fmt.Errorf("synthesis command failed: %w", err)
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return fmt.Errorf("synthesis produced no output file: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("synthesis produced empty output file %s", audioPath)
	}
	return nil
}
