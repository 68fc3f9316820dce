// Package pipeline orchestrates the conversion of a presentation file
// into per-slide artifacts: an image render, a speaker-notes text file,
// and a synthesized audio narration, plus the assembled deck video and
// PDF handout when enabled.
//
// The pipeline is strictly sequential. Fatal conditions (missing input,
// unsupported format, unopenable document) abort before any slide is
// processed; per-artifact failures are recorded and logged but never stop
// the remaining work.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"

	"github.com/LesterThomas/presentation-generator/internal/tts"
)

// Deck is the narrow view of an opened presentation the orchestrator
// needs. Indices are zero-based deck positions, hidden slides included.
type Deck interface {
	SlideCount() int
	Hidden(index int) bool
	Notes(index int) (string, error)
	ExportImage(index int, path string) error
	Close() error
}

// Opener opens a presentation file. Open failures are treated as fatal
// for the whole run.
type Opener func(path string) (Deck, error)

// ClipBuilder assembles per-slide clips and concatenates them.
type ClipBuilder interface {
	BuildClip(ctx context.Context, imagePath, audioPath, clipPath string) error
	Concat(ctx context.Context, clipPaths []string, outputPath string) error
}

// HandoutBuilder assembles slide images into a PDF.
type HandoutBuilder func(pdfPath string, imagePaths []string) error

// Pipeline wires the collaborators together. Clips and Handout are
// optional; nil disables the corresponding output.
type Pipeline struct {
	Open    Opener
	Synth   tts.Synthesizer
	Clips   ClipBuilder
	Handout HandoutBuilder
	Log     *slog.Logger
}

// supportedExtensions lists the input formats accepted by the pipeline.
var supportedExtensions = map[string]bool{
	".pptx": true,
	".ppt":  true,
}

// Run converts the presentation at inputPath. It returns a fatal error
// when no slide processing could start; otherwise the Summary carries the
// per-slide outcomes and the caller decides the exit status from
// Summary.ErrorCount.
func (p *Pipeline) Run(ctx context.Context, inputPath string) (*Summary, error) {
	log := p.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if _, err := os.Stat(inputPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
		}
		return nil, fmt.Errorf("stat input %s: %w", inputPath, err)
	}
	ext := strings.ToLower(filepath.Ext(inputPath))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s (expected .pptx or .ppt)", ErrUnsupportedFormat, ext)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputDir := filepath.Join(filepath.Dir(inputPath), base)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}
	log.Info("output folder ready", "dir", outputDir)

	doc, err := p.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRendererUnavailable, err)
	}
	defer doc.Close()

	total := doc.SlideCount()
	visible := 0
	for i := 0; i < total; i++ {
		if !doc.Hidden(i) {
			visible++
		}
	}
	width := IndexWidth(visible)
	log.Info("presentation opened", "path", inputPath, "slides", total, "visible", visible)

	for _, name := range removeStaleArtifacts(outputDir, visible, width) {
		log.Info("removed stale artifact", "file", name)
	}

	summary := &Summary{
		OutputDir:     outputDir,
		SlideCount:    total,
		SkippedHidden: total - visible,
	}

	index := 0
	for i := 0; i < total; i++ {
		if doc.Hidden(i) {
			log.Info("skipping hidden slide", "slide", i+1)
			continue
		}
		index++
		summary.Slides = append(summary.Slides, p.processSlide(ctx, doc, i, index, width, outputDir, log))
	}

	if p.Clips != nil {
		p.assembleVideo(ctx, summary, base, width, log)
	}
	if p.Handout != nil {
		p.assembleHandout(summary, base, width, log)
	}

	summary.OutputBytes = dirSize(outputDir)
	log.Info("run complete",
		"slides", len(summary.Slides),
		"failed_slides", summary.FailedSlides(),
		"errors", summary.ErrorCount(),
		"output_size", units.HumanSize(float64(summary.OutputBytes)))
	return summary, nil
}

// processSlide drives the three artifact producers for one slide. The
// sub-steps are independent: a failure in one is recorded and the
// remaining steps still run.
func (p *Pipeline) processSlide(ctx context.Context, doc Deck, deckIndex, index, width int, outputDir string, log *slog.Logger) SlideResult {
	result := SlideResult{Index: index}

	imagePath := filepath.Join(outputDir, imageName(index, width))
	textPath := filepath.Join(outputDir, textName(index, width))
	audioPath := filepath.Join(outputDir, audioName(index, width))

	log.Info("exporting slide", "slide", index, "file", filepath.Base(imagePath))
	if err := doc.ExportImage(deckIndex, imagePath); err != nil {
		result.Image = err
		log.Error("failed to export slide", "slide", index, "error", err)
	}

	notes, err := doc.Notes(deckIndex)
	if err != nil {
		result.Text = err
		log.Error("failed to extract notes", "slide", index, "error", err)
	} else if err := writeTextIfChanged(textPath, notes); err != nil {
		result.Text = err
		log.Error("failed to write notes", "slide", index, "error", err)
	} else if notes == "" {
		log.Info("no notes found", "slide", index, "file", filepath.Base(textPath))
	} else {
		log.Info("extracted notes", "slide", index, "file", filepath.Base(textPath))
	}

	if upToDate(audioPath, textPath) {
		log.Info("audio up-to-date, reusing", "slide", index, "file", filepath.Base(audioPath))
		return result
	}
	log.Info("generating audio", "slide", index, "file", filepath.Base(audioPath))
	if err := p.Synth.Synthesize(ctx, textPath, audioPath); err != nil {
		result.Audio = err
		log.Error("failed to generate audio", "slide", index, "error", err)
	} else {
		log.Info("generated audio", "slide", index, "file", filepath.Base(audioPath), "size", fileSizeHuman(audioPath))
	}
	return result
}

// assembleVideo builds one clip per fully produced slide and concatenates
// them into <basename>_video.mp4.
func (p *Pipeline) assembleVideo(ctx context.Context, summary *Summary, base string, width int, log *slog.Logger) {
	clipsDir := filepath.Join(summary.OutputDir, "clips")
	var clips []string

	for i := range summary.Slides {
		r := &summary.Slides[i]
		imagePath := filepath.Join(summary.OutputDir, imageName(r.Index, width))
		audioPath := filepath.Join(summary.OutputDir, audioName(r.Index, width))
		clipPath := filepath.Join(clipsDir, clipName(r.Index, width))

		if !fileExists(imagePath) || !fileExists(audioPath) {
			log.Info("skipping clip, missing inputs", "slide", r.Index)
			continue
		}
		if upToDate(clipPath, imagePath) && upToDate(clipPath, audioPath) {
			log.Info("clip up-to-date, reusing", "slide", r.Index)
			clips = append(clips, clipPath)
			continue
		}

		log.Info("creating video clip", "slide", r.Index)
		if err := p.Clips.BuildClip(ctx, imagePath, audioPath, clipPath); err != nil {
			r.Clip = err
			log.Error("failed to create clip", "slide", r.Index, "error", err)
			continue
		}
		clips = append(clips, clipPath)
	}

	if len(clips) == 0 {
		if len(summary.Slides) > 0 {
			summary.VideoErr = fmt.Errorf("no clips produced")
			log.Error("video assembly skipped", "error", summary.VideoErr)
		}
		return
	}

	videoPath := filepath.Join(summary.OutputDir, base+"_video.mp4")
	log.Info("concatenating clips", "clips", len(clips), "file", filepath.Base(videoPath))
	if err := p.Clips.Concat(ctx, clips, videoPath); err != nil {
		summary.VideoErr = err
		log.Error("failed to create video", "error", err)
		return
	}
	log.Info("final video created", "file", filepath.Base(videoPath), "size", fileSizeHuman(videoPath))
}

// assembleHandout builds <basename>.pdf from the slide images that exist.
func (p *Pipeline) assembleHandout(summary *Summary, base string, width int, log *slog.Logger) {
	var images []string
	for _, r := range summary.Slides {
		imagePath := filepath.Join(summary.OutputDir, imageName(r.Index, width))
		if fileExists(imagePath) {
			images = append(images, imagePath)
		}
	}

	pdfPath := filepath.Join(summary.OutputDir, base+".pdf")
	log.Info("building handout", "pages", len(images), "file", filepath.Base(pdfPath))
	if err := p.Handout(pdfPath, images); err != nil {
		summary.HandoutErr = err
		log.Error("failed to build handout", "error", err)
		return
	}
	log.Info("handout created", "file", filepath.Base(pdfPath), "size", fileSizeHuman(pdfPath))
}

// writeTextIfChanged writes content to path unless the file already holds
// the same content. Leaving unchanged files untouched preserves their
// modification time, which the audio and clip caching relies on.
func writeTextIfChanged(path, content string) error {
	if existing, err := os.ReadFile(path); err == nil && string(existing) == content {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// upToDate reports whether target exists and is newer than source.
func upToDate(target, source string) bool {
	ti, err := os.Stat(target)
	if err != nil {
		return false
	}
	si, err := os.Stat(source)
	if err != nil {
		return false
	}
	return ti.ModTime().After(si.ModTime())
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func fileSizeHuman(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return units.HumanSize(float64(info.Size()))
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
