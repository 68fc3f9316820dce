// Package deck reads PowerPoint presentation files (.pptx) following the
// Office Open XML (OOXML) standard, exposing the subset of the document
// model the conversion pipeline needs: slide order, visibility, speaker
// notes, and the shapes required to rasterize each slide.
package deck

import "errors"

// Presentation is an in-memory view of an opened deck.
type Presentation struct {
	layout Layout
	slides []*Slide
}

// Layout is the slide canvas size in EMU.
type Layout struct {
	CX int64 // width
	CY int64 // height
}

// defaultLayout is the modern PowerPoint 16:9 canvas (13.333in x 7.5in).
var defaultLayout = Layout{CX: 12192000, CY: 6858000}

// SlideCount returns the number of slides in deck order, hidden included.
func (p *Presentation) SlideCount() int {
	return len(p.slides)
}

// Slide returns the slide at the given zero-based index.
func (p *Presentation) Slide(index int) (*Slide, error) {
	if index < 0 || index >= len(p.slides) {
		return nil, errors.New("slide index out of range")
	}
	return p.slides[index], nil
}

// Layout returns the slide canvas size.
func (p *Presentation) Layout() Layout {
	return p.layout
}

// Close releases resources held by the presentation. It clears internal
// references to allow garbage collection; the Presentation must not be
// used afterwards.
func (p *Presentation) Close() error {
	p.slides = nil
	return nil
}
