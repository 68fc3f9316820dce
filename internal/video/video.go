// Package video assembles per-slide clips and the final deck video by
// shelling out to ffmpeg. Each clip shows the slide image for the length
// of its narration plus a one-second lead-in; clips are then concatenated
// without re-encoding.
package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Builder runs ffmpeg with configurable encoding settings.
type Builder struct {
	// FFmpegPath is the ffmpeg executable, resolved via PATH when relative.
	FFmpegPath string
	FPS        int
	Codec      string
	AudioCodec string
	Preset     string
	Bitrate    string
}

// NewBuilder returns a Builder with the standard encoding settings.
func NewBuilder(ffmpegPath string) *Builder {
	return &Builder{
		FFmpegPath: ffmpegPath,
		FPS:        24,
		Codec:      "libx264",
		AudioCodec: "aac",
		Preset:     "ultrafast",
		Bitrate:    "1000k",
	}
}

// BuildClip muxes a still image and its narration into one video clip.
// The audio is delayed by one second and the image loops until the delayed
// audio ends, so each slide opens with a short pause.
func (b *Builder) BuildClip(ctx context.Context, imagePath, audioPath, clipPath string) error {
	if err := os.MkdirAll(filepath.Dir(clipPath), 0o755); err != nil {
		return fmt.Errorf("create clip directory: %w", err)
	}

	args := []string{
		"-y",
		"-loop", "1",
		"-framerate", fmt.Sprintf("%d", b.FPS),
		"-i", imagePath,
		"-i", audioPath,
		"-af", "adelay=1000:all=1",
		"-c:v", b.Codec,
		"-preset", b.Preset,
		"-b:v", b.Bitrate,
		"-c:a", b.AudioCodec,
		"-pix_fmt", "yuv420p",
		"-shortest",
		clipPath,
	}
	return b.run(ctx, args)
}

// Concat joins the clips into a single video using ffmpeg's concat
// demuxer with stream copy. The temporary list file is removed afterwards.
func (b *Builder) Concat(ctx context.Context, clipPaths []string, outputPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}

	listPath := filepath.Join(filepath.Dir(outputPath), "concat_list.txt")
	if err := writeConcatList(listPath, clipPaths); err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	}
	return b.run(ctx, args)
}

func (b *Builder) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, b.FFmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			// ffmpeg writes everything to stderr; keep only the tail.
			lines := strings.Split(msg, "\n")
			if len(lines) > 5 {
				lines = lines[len(lines)-5:]
			}
			return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.Join(lines, " / "))
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// writeConcatList writes the ffmpeg concat demuxer input file. Paths are
// absolute with single quotes escaped per the demuxer's quoting rules.
func writeConcatList(listPath string, clipPaths []string) error {
	var sb strings.Builder
	for _, p := range clipPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		abs = strings.ReplaceAll(abs, `'`, `'\''`)
		fmt.Fprintf(&sb, "file '%s'\n", abs)
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}
