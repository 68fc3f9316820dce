package deck

import (
	"archive/zip"
	"encoding/xml"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// readSlideNotes loads the notes part referenced by the slide, if any.
// Missing notes are a normal case and leave the slide's notes empty.
func readSlideNotes(zr *zip.Reader, slide *Slide, rels []xmlRel, slidePath string) {
	for _, rel := range rels {
		if rel.Type != relTypeNotesSlide {
			continue
		}
		target := resolveRelTarget(slidePath, rel.Target)
		data, err := readFileFromZip(zr, target)
		if err != nil {
			continue
		}
		slide.notes = parseNotesXML(data)
	}
}

// parseNotesXML extracts the plain text of a notes slide. Paragraphs are
// joined with newlines, runs within a paragraph are concatenated. The
// result is NFC-normalized so the text handed to the speech synthesizer
// is stable regardless of how the authoring tool encoded it.
func parseNotesXML(data []byte) string {
	decoder := newXMLDecoder(data)

	type notesShape struct {
		phType     string
		paragraphs []string
	}

	var shapes []notesShape
	var current *notesShape
	var inBody, inParagraph, inRun, inText bool
	var sb strings.Builder

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				current = &notesShape{}
			case "ph":
				if current != nil {
					for _, attr := range t.Attr {
						if attr.Name.Local == "type" {
							current.phType = attr.Value
						}
					}
				}
			case "txBody":
				if current != nil {
					inBody = true
				}
			case "p":
				if inBody {
					inParagraph = true
					sb.Reset()
				}
			case "r":
				if inParagraph {
					inRun = true
				}
			case "t":
				if inRun {
					inText = true
				}
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "sp":
				if current != nil {
					shapes = append(shapes, *current)
					current = nil
				}
				inBody = false
			case "txBody":
				inBody = false
			case "p":
				if inParagraph && current != nil {
					current.paragraphs = append(current.paragraphs, sb.String())
				}
				inParagraph = false
			case "r":
				inRun = false
			case "t":
				inText = false
			}
		}
	}

	// The notes text lives in the body placeholder; slide-number, header,
	// and image placeholders on the notes page are not narration. Decks
	// without placeholder typing fall back to every text body.
	hasBody := false
	for _, s := range shapes {
		if s.phType == "body" {
			hasBody = true
			break
		}
	}
	var paragraphs []string
	for _, s := range shapes {
		if hasBody && s.phType != "body" {
			continue
		}
		paragraphs = append(paragraphs, s.paragraphs...)
	}

	text := strings.Join(paragraphs, "\n")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return norm.NFC.String(text)
}
