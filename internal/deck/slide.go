package deck

// Slide holds the parsed content of a single slide.
type Slide struct {
	shapes     []Shape
	notes      string
	hidden     bool
	background *Fill
}

func newSlide() *Slide {
	return &Slide{}
}

// NewSlide creates an empty slide. Together with the setters below this
// forms the authoring surface used to build decks programmatically.
func NewSlide() *Slide {
	return newSlide()
}

// AddShape appends a shape at the top of the z-order.
func (s *Slide) AddShape(shape Shape) {
	s.shapes = append(s.shapes, shape)
}

// SetNotes sets the speaker-notes text.
func (s *Slide) SetNotes(text string) {
	s.notes = text
}

// SetHidden marks the slide hidden.
func (s *Slide) SetHidden(hidden bool) {
	s.hidden = hidden
}

// SetBackground sets the slide background fill.
func (s *Slide) SetBackground(f *Fill) {
	s.background = f
}

// Shapes returns the slide's shapes in document (z) order.
func (s *Slide) Shapes() []Shape {
	return s.shapes
}

// Notes returns the speaker-notes text for the slide. A slide without a
// notes part yields the empty string; that is a normal case, not an error.
func (s *Slide) Notes() string {
	return s.notes
}

// Hidden reports whether the slide is marked hidden (show="0") and should
// be skipped by exports.
func (s *Slide) Hidden() bool {
	return s.hidden
}

// Background returns the slide background fill, or nil if none was set.
func (s *Slide) Background() *Fill {
	return s.background
}

// Shape is the interface implemented by all slide shapes.
type Shape interface {
	Bounds() Box
}

// Box is a shape's position and size in EMU.
type Box struct {
	OffsetX int64
	OffsetY int64
	Width   int64
	Height  int64
}

// TextBox is a shape containing paragraphs of rich text.
type TextBox struct {
	Box        Box
	Fill       *Fill
	Paragraphs []*Paragraph
}

// Bounds returns the shape's position and size.
func (t *TextBox) Bounds() Box { return t.Box }

// Picture is an embedded raster image.
type Picture struct {
	Box  Box
	Data []byte
}

// Bounds returns the shape's position and size.
func (p *Picture) Bounds() Box { return p.Box }

// Line is a straight connector from the box origin to its far corner.
type Line struct {
	Box   Box
	Color Color
}

// Bounds returns the shape's position and size.
func (l *Line) Bounds() Box { return l.Box }

// Alignment is a paragraph's horizontal alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Paragraph is a sequence of text runs and line breaks.
type Paragraph struct {
	Alignment Alignment
	Elements  []ParagraphElement
}

// ParagraphElement is either a *TextRun or a *Break.
type ParagraphElement interface {
	paragraphElement()
}

// TextRun is a span of text with uniform formatting.
type TextRun struct {
	Text string
	Font *Font
}

func (*TextRun) paragraphElement() {}

// Break is an explicit line break within a paragraph.
type Break struct{}

func (*Break) paragraphElement() {}

// Font holds the text formatting the renderer consumes.
type Font struct {
	Name   string
	Size   int // points
	Bold   bool
	Italic bool
	Color  Color
}

// NewFont returns a Font with PowerPoint-like defaults.
func NewFont() *Font {
	return &Font{
		Name:  "Calibri",
		Size:  18,
		Color: ColorBlack,
	}
}

// Fill is a solid color fill.
type Fill struct {
	Color Color
}
