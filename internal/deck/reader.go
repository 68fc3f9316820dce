package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// maxZipEntrySize is the maximum allowed size for a single file extracted
// from a ZIP. This prevents zip bomb attacks. 50 MB is generous for any
// legitimate PPTX part.
const maxZipEntrySize = 50 << 20 // 50 MB

// maxZipTotalSize is the limit for the archive itself.
const maxZipTotalSize = 200 << 20 // 200 MB

// maxZipEntries is the maximum number of files allowed in a ZIP archive.
const maxZipEntries = 10000

// Relationship type URIs consumed by the reader.
const (
	relTypeNotesSlide = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	relTypeImage      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// relAttrNS is the namespace of r:id attributes.
const relAttrNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// Open reads a PPTX file from disk and returns a Presentation.
func Open(path string) (*Presentation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return ReadFrom(f, info.Size())
}

// ReadFrom reads a PPTX from an io.ReaderAt with the given size.
func ReadFrom(reader io.ReaderAt, size int64) (*Presentation, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid reader size: %d", size)
	}
	if size > int64(maxZipTotalSize) {
		return nil, fmt.Errorf("file size %d exceeds maximum allowed (%d bytes)", size, maxZipTotalSize)
	}

	zr, err := zip.NewReader(reader, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	if len(zr.File) > maxZipEntries {
		return nil, fmt.Errorf("zip archive contains too many entries (%d > %d)", len(zr.File), maxZipEntries)
	}

	pres := &Presentation{layout: defaultLayout}

	slideRelIDs, err := readPresentationXML(zr, pres)
	if err != nil {
		return nil, err
	}

	presRels, err := readRelationships(zr, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, err
	}

	for _, relID := range slideRelIDs {
		target := ""
		for _, rel := range presRels {
			if rel.ID == relID {
				target = rel.Target
				break
			}
		}
		if target == "" {
			continue
		}
		if !strings.HasPrefix(target, "ppt/") {
			target = "ppt/" + target
		}

		slide, err := readSlide(zr, target)
		if err != nil {
			return nil, fmt.Errorf("failed to read slide %s: %w", target, err)
		}
		pres.slides = append(pres.slides, slide)
	}

	return pres, nil
}

func readFileFromZip(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		if f.UncompressedSize64 > maxZipEntrySize {
			return nil, fmt.Errorf("file %s exceeds maximum allowed size (%d bytes)", name, maxZipEntrySize)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in zip: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, int64(maxZipEntrySize)+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from zip: %w", name, err)
		}
		if int64(len(data)) > int64(maxZipEntrySize) {
			return nil, fmt.Errorf("file %s actual size exceeds maximum allowed size", name)
		}
		return data, nil
	}
	return nil, fmt.Errorf("file not found in zip: %s", name)
}

// newXMLDecoder returns a decoder tolerant of non-UTF-8 encoding labels.
func newXMLDecoder(data []byte) *xml.Decoder {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel
	return decoder
}

// readPresentationXML extracts the ordered slide relationship IDs and the
// slide canvas size from ppt/presentation.xml.
func readPresentationXML(zr *zip.Reader, pres *Presentation) ([]string, error) {
	data, err := readFileFromZip(zr, "ppt/presentation.xml")
	if err != nil {
		return nil, fmt.Errorf("failed to read presentation.xml: %w", err)
	}

	decoder := newXMLDecoder(data)
	var relIDs []string
	inSldIDList := false

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sldIdLst":
				inSldIDList = true
			case "sldId":
				if !inSldIDList {
					continue
				}
				// The element carries both a numeric id attribute and a
				// namespaced r:id; only the relationship ID is wanted.
				for _, attr := range t.Attr {
					if attr.Name.Local == "id" && attr.Name.Space == relAttrNS {
						relIDs = append(relIDs, attr.Value)
					}
				}
			case "sldSz":
				var cx, cy int64
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "cx":
						cx = parseInt64(attr.Value)
					case "cy":
						cy = parseInt64(attr.Value)
					}
				}
				if cx > 0 && cy > 0 {
					pres.layout = Layout{CX: cx, CY: cy}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "sldIdLst" {
				inSldIDList = false
			}
		}
	}

	if len(relIDs) == 0 {
		return nil, fmt.Errorf("presentation.xml contains no slides")
	}
	return relIDs, nil
}

type xmlRel struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xmlRels struct {
	XMLName       xml.Name `xml:"Relationships"`
	Relationships []xmlRel `xml:"Relationship"`
}

func readRelationships(zr *zip.Reader, path string) ([]xmlRel, error) {
	data, err := readFileFromZip(zr, path)
	if err != nil {
		return nil, nil // relationships file may not exist
	}

	var rels xmlRels
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships %s: %w", path, err)
	}
	return rels.Relationships, nil
}

// resolveRelTarget resolves a relationship target relative to the part that
// declared it. Targets are usually of the form "../media/image1.png".
func resolveRelTarget(partPath, target string) string {
	if strings.HasPrefix(target, "ppt/") {
		return target
	}
	dir := partPath
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[:i]
	}
	for strings.HasPrefix(target, "../") {
		target = target[3:]
		if i := strings.LastIndex(dir, "/"); i >= 0 {
			dir = dir[:i]
		} else {
			dir = ""
		}
	}
	if dir == "" {
		return target
	}
	return dir + "/" + target
}

func parseInt64(s string) int64 {
	var v int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		v = v*10 + int64(c-'0')
	}
	return v
}
