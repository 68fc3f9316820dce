package render

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/LesterThomas/presentation-generator/internal/deck"
)

// getFace returns a font.Face for the given deck font, falling back
// through common sans-serif families to basicfont.
func (r *renderer) getFace(f *deck.Font) font.Face {
	if f == nil {
		f = deck.NewFont()
	}
	sizePt := float64(f.Size)
	if sizePt <= 0 {
		sizePt = 18
	}
	// Convert the design-time point size to canvas EMU, then to output
	// pixels. DPI acts as a zoom relative to the 96 default.
	scaledPt := float64(deck.Point(sizePt)) * r.scaleY * r.dpi / 96.0

	name := f.Name
	if name == "" {
		name = "Calibri"
	}

	if face := r.fontCache.GetFace(name, scaledPt, f.Bold, f.Italic); face != nil {
		return face
	}
	for _, fallback := range []string{"arial", "helvetica", "dejavu sans", "liberation sans", "noto sans"} {
		if face := r.fontCache.GetFace(fallback, scaledPt, f.Bold, f.Italic); face != nil {
			return face
		}
	}
	return basicfont.Face7x13
}

// textRun holds rendering info for a single text run.
type textRun struct {
	text  string
	face  font.Face
	color color.RGBA
}

// textLine holds a wrapped line of text runs.
type textLine struct {
	runs      []textRun
	width     int
	height    int
	alignment deck.Alignment
}

func buildTextLine(runs []textRun, align deck.Alignment) textLine {
	totalW := 0
	maxH := 0
	for _, r := range runs {
		totalW += font.MeasureString(r.face, r.text).Ceil()
		if h := r.face.Metrics().Height.Ceil(); h > maxH {
			maxH = h
		}
	}
	if maxH <= 0 {
		maxH = 14
	}
	return textLine{runs: runs, width: totalW, height: maxH, alignment: align}
}

func (r *renderer) drawParagraphs(paragraphs []*deck.Paragraph, x, y, w, h int) {
	var allLines []textLine

	for _, para := range paragraphs {
		var runs []textRun
		for _, elem := range para.Elements {
			switch e := elem.(type) {
			case *deck.TextRun:
				face := r.getFace(e.Font)
				tc := color.RGBA{A: 255}
				if e.Font != nil {
					tc = toRGBA(e.Font.Color)
				}
				runs = append(runs, textRun{text: e.Text, face: face, color: tc})
			case *deck.Break:
				if len(runs) > 0 {
					allLines = append(allLines, buildTextLine(runs, para.Alignment))
					runs = nil
				} else {
					allLines = append(allLines, textLine{height: 14, alignment: para.Alignment})
				}
			}
		}
		if len(runs) > 0 {
			allLines = append(allLines, buildTextLine(runs, para.Alignment))
		} else if len(para.Elements) == 0 {
			allLines = append(allLines, textLine{height: 14, alignment: para.Alignment})
		}
	}

	// Word-wrap lines that exceed the box width.
	var wrapped []textLine
	for _, line := range allLines {
		if line.width <= w || w <= 0 || len(line.runs) == 0 {
			wrapped = append(wrapped, line)
			continue
		}
		wrapped = append(wrapped, wrapRunLine(line, w)...)
	}

	curY := y
	for _, line := range wrapped {
		curY += line.height
		if curY > y+h {
			break
		}

		drawX := x
		switch line.alignment {
		case deck.AlignCenter:
			drawX = x + (w-line.width)/2
		case deck.AlignRight:
			drawX = x + w - line.width
		}

		for _, run := range line.runs {
			d := &font.Drawer{
				Dst:  r.img,
				Src:  &image.Uniform{run.color},
				Face: run.face,
				Dot:  fixed.P(drawX, curY),
			}
			d.DrawString(run.text)
			drawX += font.MeasureString(run.face, run.text).Ceil()
		}
	}
}

// wrapRunLine wraps a textLine into multiple lines that fit maxWidth.
func wrapRunLine(line textLine, maxWidth int) []textLine {
	type styledWord struct {
		word  string
		face  font.Face
		color color.RGBA
	}

	var words []styledWord
	for _, run := range line.runs {
		for i, w := range strings.Fields(run.text) {
			if i > 0 {
				w = " " + w
			}
			words = append(words, styledWord{word: w, face: run.face, color: run.color})
		}
	}
	if len(words) == 0 {
		return []textLine{line}
	}

	var result []textLine
	var curRuns []textRun
	curWidth := 0

	for _, sw := range words {
		ww := font.MeasureString(sw.face, sw.word).Ceil()
		if curWidth+ww > maxWidth && curWidth > 0 {
			result = append(result, buildTextLine(curRuns, line.alignment))
			curRuns = nil
			curWidth = 0
			sw.word = strings.TrimLeft(sw.word, " ")
			ww = font.MeasureString(sw.face, sw.word).Ceil()
		}
		curRuns = append(curRuns, textRun{text: sw.word, face: sw.face, color: sw.color})
		curWidth += ww
	}
	if len(curRuns) > 0 {
		result = append(result, buildTextLine(curRuns, line.alignment))
	}
	return result
}
