package pipeline

// SlideResult records the outcome of every sub-step attempted for one
// slide. A nil field means the step succeeded (or was served from cache);
// a non-nil field holds the error that was logged for it.
type SlideResult struct {
	// Index is the 1-based visible slide index used in artifact names.
	Index int

	Image error
	Text  error
	Audio error
	Clip  error
}

// Failed reports whether any sub-step for the slide failed.
func (r SlideResult) Failed() bool {
	return r.Image != nil || r.Text != nil || r.Audio != nil || r.Clip != nil
}

// errorCount returns the number of failed sub-steps.
func (r SlideResult) errorCount() int {
	n := 0
	for _, err := range []error{r.Image, r.Text, r.Audio, r.Clip} {
		if err != nil {
			n++
		}
	}
	return n
}

// Summary aggregates a whole run.
type Summary struct {
	// OutputDir is the directory the artifacts were written to.
	OutputDir string
	// SlideCount is the number of slides in the deck, hidden included.
	SlideCount int
	// SkippedHidden is the number of hidden slides that were not exported.
	SkippedHidden int
	// Slides holds one result per visible slide, in order.
	Slides []SlideResult
	// VideoErr is the concatenation failure, if any.
	VideoErr error
	// HandoutErr is the PDF assembly failure, if any.
	HandoutErr error
	// OutputBytes is the total size of the output directory.
	OutputBytes int64
}

// ErrorCount returns the total number of recorded errors. The process
// exits non-zero when this is non-zero.
func (s *Summary) ErrorCount() int {
	n := 0
	for _, r := range s.Slides {
		n += r.errorCount()
	}
	if s.VideoErr != nil {
		n++
	}
	if s.HandoutErr != nil {
		n++
	}
	return n
}

// FailedSlides returns how many slides had at least one failed artifact.
func (s *Summary) FailedSlides() int {
	n := 0
	for _, r := range s.Slides {
		if r.Failed() {
			n++
		}
	}
	return n
}
