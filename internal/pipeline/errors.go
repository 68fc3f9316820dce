package pipeline

import "errors"

// Fatal conditions abort the run before any slide is processed. Per-slide
// failures are never surfaced through these; they are recorded on the
// slide's result instead.
var (
	// ErrInputNotFound reports a missing input presentation file.
	ErrInputNotFound = errors.New("input presentation not found")

	// ErrUnsupportedFormat reports an input file that is not a
	// presentation document.
	ErrUnsupportedFormat = errors.New("unsupported presentation format")

	// ErrRendererUnavailable reports that the presentation could not be
	// opened for rendering (corrupt file, unreadable archive).
	ErrRendererUnavailable = errors.New("presentation renderer unavailable")
)
