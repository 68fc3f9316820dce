package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// IndexWidth returns the zero-padding width for artifact indices: two
// digits for decks up to 99 slides, growing with the deck beyond that so
// names never collide.
func IndexWidth(slideCount int) int {
	width := len(strconv.Itoa(slideCount))
	if width < 2 {
		width = 2
	}
	return width
}

// Artifact file name builders. Indices are 1-based.

func imageName(index, width int) string {
	return fmt.Sprintf("slide_%0*d.png", width, index)
}

func textName(index, width int) string {
	return fmt.Sprintf("text_%0*d.txt", width, index)
}

func audioName(index, width int) string {
	return fmt.Sprintf("audio_%0*d.wav", width, index)
}

func clipName(index, width int) string {
	return fmt.Sprintf("clip_%0*d.mp4", width, index)
}

var (
	artifactPattern = regexp.MustCompile(`^(slide|text|audio)_(\d+)\.(png|txt|wav)$`)
	clipPattern     = regexp.MustCompile(`^clip_(\d+)\.mp4$`)
)

// artifactExt maps an artifact kind to its canonical extension.
var artifactExt = map[string]string{
	"slide": "png",
	"text":  "txt",
	"audio": "wav",
}

// removeStaleArtifacts deletes per-slide artifacts left over from a
// previous run that the current run will not overwrite: indices beyond the
// current slide count, and names whose zero-padding differs from the
// current width. A shrunk deck leaves no leftovers, and a deck crossing a
// padding boundary (99 to 100 slides) leaves no width-2/width-3
// duplicates. Returns the removed file names.
func removeStaleArtifacts(outputDir string, slideCount, width int) []string {
	var removed []string

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := artifactPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		canonical := fmt.Sprintf("%s_%0*d.%s", m[1], width, index, artifactExt[m[1]])
		if index <= slideCount && entry.Name() == canonical {
			continue
		}
		if os.Remove(filepath.Join(outputDir, entry.Name())) == nil {
			removed = append(removed, entry.Name())
		}
	}

	clipsDir := filepath.Join(outputDir, "clips")
	entries, err = os.ReadDir(clipsDir)
	if err != nil {
		return removed
	}
	for _, entry := range entries {
		m := clipPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if index <= slideCount && entry.Name() == clipName(index, width) {
			continue
		}
		if os.Remove(filepath.Join(clipsDir, entry.Name())) == nil {
			removed = append(removed, filepath.Join("clips", entry.Name()))
		}
	}
	return removed
}
