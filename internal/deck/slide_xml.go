package deck

import (
	"archive/zip"
	"encoding/xml"
	"strconv"
	"strings"
)

// readSlide parses a single slide part plus its relationships (notes,
// embedded images).
func readSlide(zr *zip.Reader, path string) (*Slide, error) {
	data, err := readFileFromZip(zr, path)
	if err != nil {
		return nil, err
	}

	relsPath := strings.Replace(path, "slides/", "slides/_rels/", 1) + ".rels"
	slideRels, err := readRelationships(zr, relsPath)
	if err != nil {
		return nil, err
	}

	slide := newSlide()
	if err := parseSlideXML(data, slide, slideRels, zr, path); err != nil {
		return nil, err
	}

	readSlideNotes(zr, slide, slideRels, path)
	return slide, nil
}

// parseSlideXML walks the slide document with a streaming token state
// machine, collecting the shapes the renderer understands: text boxes,
// pictures, connector lines, and the slide background fill.
func parseSlideXML(data []byte, slide *Slide, rels []xmlRel, zr *zip.Reader, slidePath string) error {
	type parseState struct {
		inBg        bool
		inBgPr      bool
		inSp        bool
		inPic       bool
		inCxnSp     bool
		inSpPr      bool
		inLn        bool
		inTxBody    bool
		inParagraph bool
		inRun       bool
		inRunProps  bool
		inText      bool
	}

	state := &parseState{}
	decoder := newXMLDecoder(data)

	var currentText *TextBox
	var currentPicture *Picture
	var currentLine *Line
	var currentParagraph *Paragraph
	var currentFont *Font
	var pendingShapeFill *Fill

	var offX, offY, extCX, extCY int64
	depth := 0

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "sld":
				if depth == 1 {
					for _, attr := range t.Attr {
						if attr.Name.Local == "show" && (attr.Value == "0" || attr.Value == "false") {
							slide.hidden = true
						}
					}
				}
			case "bg":
				state.inBg = true
			case "bgPr":
				if state.inBg {
					state.inBgPr = true
				}
			case "sp":
				state.inSp = true
				currentText = nil
				pendingShapeFill = nil
				offX, offY, extCX, extCY = 0, 0, 0, 0
			case "pic":
				state.inPic = true
				currentPicture = &Picture{}
				offX, offY, extCX, extCY = 0, 0, 0, 0
			case "cxnSp":
				state.inCxnSp = true
				currentLine = &Line{Color: ColorBlack}
				offX, offY, extCX, extCY = 0, 0, 0, 0
			case "spPr":
				state.inSpPr = true
			case "ln":
				if state.inSpPr {
					state.inLn = true
				}
			case "off":
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "x":
						offX = parseInt64(attr.Value)
					case "y":
						offY = parseInt64(attr.Value)
					}
				}
			case "ext":
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "cx":
						extCX = parseInt64(attr.Value)
					case "cy":
						extCY = parseInt64(attr.Value)
					}
				}
			case "blip":
				if state.inPic && currentPicture != nil {
					for _, attr := range t.Attr {
						if attr.Name.Local == "embed" {
							currentPicture.Data = loadImageData(zr, rels, attr.Value, slidePath)
						}
					}
				}
			case "txBody":
				if state.inSp {
					state.inTxBody = true
					if currentText == nil {
						currentText = &TextBox{}
					}
				}
			case "p":
				if state.inTxBody {
					state.inParagraph = true
					currentParagraph = &Paragraph{}
				}
			case "pPr":
				if state.inParagraph && currentParagraph != nil {
					for _, attr := range t.Attr {
						if attr.Name.Local == "algn" {
							currentParagraph.Alignment = parseAlignment(attr.Value)
						}
					}
				}
			case "r":
				if state.inParagraph {
					state.inRun = true
					currentFont = NewFont()
				}
			case "rPr":
				if state.inRun && currentFont != nil {
					state.inRunProps = true
					for _, attr := range t.Attr {
						switch attr.Name.Local {
						case "sz":
							// Font size is in hundredths of a point.
							if v, err := strconv.Atoi(attr.Value); err == nil && v > 0 {
								currentFont.Size = v / 100
							}
						case "b":
							currentFont.Bold = attr.Value == "1" || attr.Value == "true"
						case "i":
							currentFont.Italic = attr.Value == "1" || attr.Value == "true"
						}
					}
				}
			case "latin":
				if state.inRunProps && currentFont != nil {
					for _, attr := range t.Attr {
						if attr.Name.Local == "typeface" {
							currentFont.Name = attr.Value
						}
					}
				}
			case "srgbClr":
				if c := colorAttr(t); c != "" {
					applyColor(NewColor(c), state.inRunProps, state.inLn, state.inBgPr, state.inSpPr,
						currentFont, currentLine, slide, &pendingShapeFill)
				}
			case "schemeClr":
				if c := colorAttr(t); c != "" {
					applyColor(schemeColor(c), state.inRunProps, state.inLn, state.inBgPr, state.inSpPr,
						currentFont, currentLine, slide, &pendingShapeFill)
				}
			case "t":
				if state.inRun {
					state.inText = true
				}
			case "br":
				if state.inParagraph && currentParagraph != nil {
					currentParagraph.Elements = append(currentParagraph.Elements, &Break{})
				}
			}

		case xml.CharData:
			if state.inText && currentParagraph != nil {
				currentParagraph.Elements = append(currentParagraph.Elements, &TextRun{
					Text: string(t),
					Font: currentFont,
				})
			}

		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "bg":
				state.inBg = false
			case "bgPr":
				state.inBgPr = false
			case "sp":
				if currentText != nil {
					currentText.Box = Box{OffsetX: offX, OffsetY: offY, Width: extCX, Height: extCY}
					currentText.Fill = pendingShapeFill
					slide.shapes = append(slide.shapes, currentText)
					currentText = nil
				}
				state.inSp = false
			case "pic":
				if currentPicture != nil {
					currentPicture.Box = Box{OffsetX: offX, OffsetY: offY, Width: extCX, Height: extCY}
					slide.shapes = append(slide.shapes, currentPicture)
					currentPicture = nil
				}
				state.inPic = false
			case "cxnSp":
				if currentLine != nil {
					currentLine.Box = Box{OffsetX: offX, OffsetY: offY, Width: extCX, Height: extCY}
					slide.shapes = append(slide.shapes, currentLine)
					currentLine = nil
				}
				state.inCxnSp = false
			case "spPr":
				state.inSpPr = false
			case "ln":
				state.inLn = false
			case "txBody":
				state.inTxBody = false
			case "p":
				if currentParagraph != nil && currentText != nil {
					currentText.Paragraphs = append(currentText.Paragraphs, currentParagraph)
				}
				currentParagraph = nil
				state.inParagraph = false
			case "r":
				state.inRun = false
				currentFont = nil
			case "rPr":
				state.inRunProps = false
			case "t":
				state.inText = false
			}
		}
	}
	return nil
}

// applyColor routes a parsed color to whichever element is currently open.
// Run properties win over shape-level fills; line colors and the slide
// background have their own contexts.
func applyColor(c Color, inRunProps, inLine, inBgPr, inSpPr bool,
	font *Font, line *Line, slide *Slide, shapeFill **Fill) {
	switch {
	case inRunProps && font != nil:
		font.Color = c
	case inLine && line != nil:
		line.Color = c
	case inBgPr:
		slide.background = &Fill{Color: c}
	case inSpPr:
		*shapeFill = &Fill{Color: c}
	}
}

func colorAttr(t xml.StartElement) string {
	for _, attr := range t.Attr {
		if attr.Name.Local == "val" {
			return attr.Value
		}
	}
	return ""
}

// schemeColor maps theme color names to concrete colors. Without theme
// resolution only the light/dark pairs can be approximated.
func schemeColor(name string) Color {
	switch name {
	case "bg1", "lt1", "bg2", "lt2":
		return ColorWhite
	default:
		return ColorBlack
	}
}

func parseAlignment(v string) Alignment {
	switch v {
	case "ctr":
		return AlignCenter
	case "r":
		return AlignRight
	default:
		return AlignLeft
	}
}

// loadImageData resolves an image relationship ID to the embedded media
// bytes. Returns nil when the relationship or media part is missing; the
// renderer draws a placeholder for pictures without data.
func loadImageData(zr *zip.Reader, rels []xmlRel, relID, slidePath string) []byte {
	for _, rel := range rels {
		if rel.ID != relID {
			continue
		}
		target := resolveRelTarget(slidePath, rel.Target)
		data, err := readFileFromZip(zr, target)
		if err != nil {
			return nil
		}
		return data
	}
	return nil
}
