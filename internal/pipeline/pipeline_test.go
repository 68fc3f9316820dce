package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeDeck is an in-memory Deck whose image exports write marker files.
type fakeDeck struct {
	count     int
	hidden    map[int]bool
	notes     map[int]string
	notesErr  map[int]error
	exportErr map[int]error
	closed    bool
}

func (d *fakeDeck) SlideCount() int { return d.count }

func (d *fakeDeck) Hidden(index int) bool { return d.hidden[index] }

func (d *fakeDeck) Notes(index int) (string, error) {
	if err := d.notesErr[index]; err != nil {
		return "", err
	}
	return d.notes[index], nil
}

func (d *fakeDeck) ExportImage(index int, path string) error {
	if err := d.exportErr[index]; err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("png-%d", index)), 0o644)
}

func (d *fakeDeck) Close() error {
	d.closed = true
	return nil
}

// fakeSynth records synthesis calls and writes marker audio files.
type fakeSynth struct {
	calls []string
	fail  map[string]bool // keyed by audio file base name
}

func (s *fakeSynth) Synthesize(ctx context.Context, textPath, audioPath string) error {
	name := filepath.Base(audioPath)
	s.calls = append(s.calls, name)
	if s.fail[name] {
		return errors.New("synthesis failed")
	}
	return os.WriteFile(audioPath, []byte("RIFF"), 0o644)
}

// fakeClips records clip and concat invocations.
type fakeClips struct {
	built     []string
	buildFail map[string]bool // keyed by clip file base name
	concatIn  []string
	concatOut string
	concatErr error
}

func (c *fakeClips) BuildClip(ctx context.Context, imagePath, audioPath, clipPath string) error {
	name := filepath.Base(clipPath)
	if c.buildFail[name] {
		return errors.New("clip failed")
	}
	if err := os.MkdirAll(filepath.Dir(clipPath), 0o755); err != nil {
		return err
	}
	c.built = append(c.built, name)
	return os.WriteFile(clipPath, []byte("mp4"), 0o644)
}

func (c *fakeClips) Concat(ctx context.Context, clipPaths []string, outputPath string) error {
	c.concatIn = append([]string{}, clipPaths...)
	c.concatOut = outputPath
	if c.concatErr != nil {
		return c.concatErr
	}
	return os.WriteFile(outputPath, []byte("video"), 0o644)
}

// newTestPipeline returns a pipeline over the given deck plus the path of
// a dummy input file whose sibling output directory the run will use.
func newTestPipeline(t *testing.T, deck *fakeDeck) (*Pipeline, *fakeSynth, string) {
	t.Helper()
	input := filepath.Join(t.TempDir(), "talk.pptx")
	if err := os.WriteFile(input, []byte("zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	synth := &fakeSynth{}
	p := &Pipeline{
		Open:  func(string) (Deck, error) { return deck, nil },
		Synth: synth,
	}
	return p, synth, input
}

func outputPath(input, name string) string {
	return filepath.Join(filepath.Dir(input), "talk", name)
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", filepath.Base(path), err)
	}
}

func mustNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected %s to not exist", filepath.Base(path))
	}
}

func TestRunInputNotFound(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeDeck{count: 1})
	missing := filepath.Join(t.TempDir(), "missing.pptx")

	_, err := p.Run(context.Background(), missing)
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
	mustNotExist(t, filepath.Join(filepath.Dir(missing), "missing"))
}

func TestRunUnsupportedFormat(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeDeck{count: 1})
	input := filepath.Join(t.TempDir(), "report.docx")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := p.Run(context.Background(), input)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRunOpenFailure(t *testing.T) {
	p, _, input := newTestPipeline(t, nil)
	p.Open = func(string) (Deck, error) { return nil, errors.New("corrupt archive") }

	_, err := p.Run(context.Background(), input)
	if !errors.Is(err, ErrRendererUnavailable) {
		t.Fatalf("expected ErrRendererUnavailable, got %v", err)
	}
}

func TestRunSuccess(t *testing.T) {
	deck := &fakeDeck{
		count: 3,
		notes: map[int]string{0: "Welcome.", 1: "Details.", 2: "Thanks."},
	}
	p, synth, input := newTestPipeline(t, deck)

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.ErrorCount() != 0 {
		t.Errorf("expected zero errors, got %d", summary.ErrorCount())
	}
	if len(summary.Slides) != 3 {
		t.Fatalf("expected 3 slide results, got %d", len(summary.Slides))
	}
	for i := 1; i <= 3; i++ {
		mustExist(t, outputPath(input, fmt.Sprintf("slide_%02d.png", i)))
		mustExist(t, outputPath(input, fmt.Sprintf("text_%02d.txt", i)))
		mustExist(t, outputPath(input, fmt.Sprintf("audio_%02d.wav", i)))
	}
	text, err := os.ReadFile(outputPath(input, "text_02.txt"))
	if err != nil || string(text) != "Details." {
		t.Errorf("unexpected notes content: %q (%v)", text, err)
	}
	if len(synth.calls) != 3 {
		t.Errorf("expected 3 synthesis calls, got %v", synth.calls)
	}
	if !deck.closed {
		t.Error("deck was not closed")
	}
	if summary.OutputBytes == 0 {
		t.Error("expected non-zero output size")
	}
}

func TestRunSynthesisFailureContinues(t *testing.T) {
	deck := &fakeDeck{
		count: 3,
		notes: map[int]string{0: "a", 1: "b", 2: "c"},
	}
	p, synth, input := newTestPipeline(t, deck)
	synth.fail = map[string]bool{"audio_02.wav": true}

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", summary.ErrorCount())
	}
	if summary.FailedSlides() != 1 {
		t.Errorf("expected 1 failed slide, got %d", summary.FailedSlides())
	}
	if summary.Slides[1].Audio == nil {
		t.Error("expected audio error on slide 2")
	}
	mustExist(t, outputPath(input, "audio_01.wav"))
	mustNotExist(t, outputPath(input, "audio_02.wav"))
	mustExist(t, outputPath(input, "audio_03.wav"))
	// The failing slide still produced its other artifacts.
	mustExist(t, outputPath(input, "slide_02.png"))
	mustExist(t, outputPath(input, "text_02.txt"))
}

func TestRunExportFailureContinues(t *testing.T) {
	deck := &fakeDeck{
		count:     2,
		notes:     map[int]string{0: "a", 1: "b"},
		exportErr: map[int]error{0: errors.New("render failed")},
	}
	p, _, input := newTestPipeline(t, deck)

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Slides[0].Image == nil {
		t.Error("expected image error on slide 1")
	}
	mustNotExist(t, outputPath(input, "slide_01.png"))
	mustExist(t, outputPath(input, "text_01.txt"))
	mustExist(t, outputPath(input, "audio_01.wav"))
	mustExist(t, outputPath(input, "slide_02.png"))
}

func TestRunEmptyNotes(t *testing.T) {
	deck := &fakeDeck{count: 1}
	p, _, input := newTestPipeline(t, deck)

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.ErrorCount() != 0 {
		t.Errorf("expected zero errors, got %d", summary.ErrorCount())
	}
	text, err := os.ReadFile(outputPath(input, "text_01.txt"))
	if err != nil {
		t.Fatalf("text file missing: %v", err)
	}
	if len(text) != 0 {
		t.Errorf("expected empty text file, got %q", text)
	}
}

func TestRunHiddenSlidesRenumbered(t *testing.T) {
	deck := &fakeDeck{
		count:  3,
		hidden: map[int]bool{1: true},
		notes:  map[int]string{0: "first", 2: "third"},
	}
	p, _, input := newTestPipeline(t, deck)

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.SkippedHidden != 1 {
		t.Errorf("expected 1 skipped slide, got %d", summary.SkippedHidden)
	}
	if len(summary.Slides) != 2 {
		t.Fatalf("expected 2 slide results, got %d", len(summary.Slides))
	}

	// Visible slides take consecutive indices with no gap.
	mustExist(t, outputPath(input, "slide_01.png"))
	mustExist(t, outputPath(input, "slide_02.png"))
	mustNotExist(t, outputPath(input, "slide_03.png"))

	// slide_02 holds the third deck slide.
	data, err := os.ReadFile(outputPath(input, "slide_02.png"))
	if err != nil || string(data) != "png-2" {
		t.Errorf("unexpected slide_02 content: %q (%v)", data, err)
	}
	text, err := os.ReadFile(outputPath(input, "text_02.txt"))
	if err != nil || string(text) != "third" {
		t.Errorf("unexpected text_02 content: %q (%v)", text, err)
	}
}

func TestRunRemovesStaleArtifacts(t *testing.T) {
	deck := &fakeDeck{count: 2, notes: map[int]string{0: "a", 1: "b"}}
	p, _, input := newTestPipeline(t, deck)

	outDir := filepath.Join(filepath.Dir(input), "talk")
	if err := os.MkdirAll(filepath.Join(outDir, "clips"), 0o755); err != nil {
		t.Fatal(err)
	}
	stale := []string{"slide_03.png", "text_7.txt", "audio_099.wav"}
	for _, name := range stale {
		if err := os.WriteFile(filepath.Join(outDir, name), []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(outDir, "clips", "clip_04.mp4"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "notes.md"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range stale {
		mustNotExist(t, filepath.Join(outDir, name))
	}
	mustNotExist(t, filepath.Join(outDir, "clips", "clip_04.mp4"))
	mustExist(t, filepath.Join(outDir, "notes.md"))
	mustExist(t, filepath.Join(outDir, "slide_01.png"))
}

func TestRunPaddingWidthTransition(t *testing.T) {
	deck := &fakeDeck{count: 100}
	p, _, input := newTestPipeline(t, deck)

	// Leftovers from an earlier 99-slide run use width-2 names.
	outDir := filepath.Join(filepath.Dir(input), "talk")
	if err := os.MkdirAll(filepath.Join(outDir, "clips"), 0o755); err != nil {
		t.Fatal(err)
	}
	leftovers := []string{"slide_01.png", "text_42.txt", "audio_99.wav"}
	for _, name := range leftovers {
		if err := os.WriteFile(filepath.Join(outDir, name), []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(outDir, "clips", "clip_07.mp4"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Width-2 names are not overwritten by a width-3 run and must be gone.
	for _, name := range leftovers {
		mustNotExist(t, filepath.Join(outDir, name))
	}
	mustNotExist(t, filepath.Join(outDir, "clips", "clip_07.mp4"))
	mustExist(t, filepath.Join(outDir, "slide_001.png"))
	mustExist(t, filepath.Join(outDir, "slide_100.png"))

	images, err := filepath.Glob(filepath.Join(outDir, "slide_*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 100 {
		t.Errorf("expected exactly 100 image files, got %d", len(images))
	}
}

func TestRunStatFailureNotReportedAsMissing(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeDeck{count: 1})
	// A path component over the name length limit makes stat fail with an
	// error other than "does not exist".
	input := filepath.Join(t.TempDir(), strings.Repeat("a", 300)+".pptx")

	_, err := p.Run(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for failing stat")
	}
	if errors.Is(err, ErrInputNotFound) {
		t.Errorf("stat failure should not be reported as missing input: %v", err)
	}
}

func TestRunReusesFreshAudio(t *testing.T) {
	deck := &fakeDeck{count: 1, notes: map[int]string{0: "stable"}}
	p, synth, input := newTestPipeline(t, deck)

	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if len(synth.calls) != 1 {
		t.Fatalf("expected 1 synthesis call, got %v", synth.calls)
	}

	// Backdate the text file so the existing audio is strictly newer.
	textPath := outputPath(input, "text_01.txt")
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(textPath, old, old); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(synth.calls) != 1 {
		t.Errorf("expected audio to be reused, got calls %v", synth.calls)
	}
}

func TestRunRegeneratesChangedAudio(t *testing.T) {
	deck := &fakeDeck{count: 1, notes: map[int]string{0: "take one"}}
	p, synth, input := newTestPipeline(t, deck)

	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Changed notes rewrite the text file, making the audio stale.
	deck.notes[0] = "take two"
	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(synth.calls) != 2 {
		t.Errorf("expected regeneration, got calls %v", synth.calls)
	}
}

func TestRunVideoAssembly(t *testing.T) {
	deck := &fakeDeck{count: 2, notes: map[int]string{0: "a", 1: "b"}}
	p, _, input := newTestPipeline(t, deck)
	clips := &fakeClips{}
	p.Clips = clips

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.VideoErr != nil {
		t.Fatalf("unexpected video error: %v", summary.VideoErr)
	}
	if len(clips.built) != 2 {
		t.Errorf("expected 2 clips, got %v", clips.built)
	}
	if len(clips.concatIn) != 2 {
		t.Errorf("expected 2 clips concatenated, got %v", clips.concatIn)
	}
	if filepath.Base(clips.concatOut) != "talk_video.mp4" {
		t.Errorf("unexpected video name: %s", clips.concatOut)
	}
	mustExist(t, outputPath(input, "talk_video.mp4"))
}

func TestRunVideoClipFailure(t *testing.T) {
	deck := &fakeDeck{count: 2, notes: map[int]string{0: "a", 1: "b"}}
	p, _, input := newTestPipeline(t, deck)
	clips := &fakeClips{buildFail: map[string]bool{"clip_02.mp4": true}}
	p.Clips = clips

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Slides[1].Clip == nil {
		t.Error("expected clip error on slide 2")
	}
	if summary.VideoErr != nil {
		t.Errorf("remaining clips should still concatenate: %v", summary.VideoErr)
	}
	if len(clips.concatIn) != 1 {
		t.Errorf("expected 1 clip concatenated, got %v", clips.concatIn)
	}
	if summary.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", summary.ErrorCount())
	}
}

func TestRunVideoNoClips(t *testing.T) {
	deck := &fakeDeck{count: 1, notes: map[int]string{0: "a"}}
	p, synth, input := newTestPipeline(t, deck)
	synth.fail = map[string]bool{"audio_01.wav": true}
	clips := &fakeClips{}
	p.Clips = clips

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.VideoErr == nil {
		t.Error("expected video error when no clips could be produced")
	}
	if clips.concatOut != "" {
		t.Error("concat should not run without clips")
	}
}

func TestRunHandout(t *testing.T) {
	deck := &fakeDeck{count: 2, notes: map[int]string{0: "a", 1: "b"}}
	p, _, input := newTestPipeline(t, deck)

	var gotPDF string
	var gotImages []string
	p.Handout = func(pdfPath string, imagePaths []string) error {
		gotPDF = pdfPath
		gotImages = imagePaths
		return os.WriteFile(pdfPath, []byte("pdf"), 0o644)
	}

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.HandoutErr != nil {
		t.Fatalf("unexpected handout error: %v", summary.HandoutErr)
	}
	if filepath.Base(gotPDF) != "talk.pdf" {
		t.Errorf("unexpected handout name: %s", gotPDF)
	}
	if len(gotImages) != 2 {
		t.Errorf("expected 2 handout pages, got %v", gotImages)
	}
}

func TestRunHandoutFailure(t *testing.T) {
	deck := &fakeDeck{count: 1, notes: map[int]string{0: "a"}}
	p, _, input := newTestPipeline(t, deck)
	p.Handout = func(string, []string) error { return errors.New("pdf failed") }

	summary, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.HandoutErr == nil {
		t.Error("expected handout error")
	}
	if summary.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", summary.ErrorCount())
	}
}

func TestIndexWidth(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{1, 2},
		{9, 2},
		{42, 2},
		{99, 2},
		{100, 3},
		{1234, 4},
	}
	for _, tt := range tests {
		if got := IndexWidth(tt.count); got != tt.want {
			t.Errorf("IndexWidth(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestIndexWidthAppliedToNames(t *testing.T) {
	deck := &fakeDeck{count: 1, notes: map[int]string{0: "a"}}
	// Artifact names honor the deck-size padding.
	if got := imageName(7, IndexWidth(120)); got != "slide_007.png" {
		t.Errorf("unexpected image name: %s", got)
	}
	if got := audioName(7, IndexWidth(deck.count)); got != "audio_07.wav" {
		t.Errorf("unexpected audio name: %s", got)
	}
}

func TestWriteTextIfChangedPreservesModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text_01.txt")
	if err := writeTextIfChanged(path, "same"); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	if err := writeTextIfChanged(path, "same"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Error("unchanged content should not rewrite the file")
	}

	if err := writeTextIfChanged(path, "different"); err != nil {
		t.Fatal(err)
	}
	info, err = os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.ModTime().Equal(old) {
		t.Error("changed content should rewrite the file")
	}
}
