// Package handout assembles the rendered slide images into a single PDF,
// one landscape page per slide.
package handout

import (
	"fmt"
	"image"
	_ "image/png" // slide renders are PNG
	"math"
	"os"

	"github.com/jung-kurt/gofpdf"
)

// pageMargin is the whitespace kept around each slide image, in mm.
const pageMargin = 10.0

// Build writes a PDF containing the given images in order. Image paths
// must reference PNG files produced by the renderer.
func Build(pdfPath string, imagePaths []string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no slide images to assemble")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")

	for _, imgPath := range imagePaths {
		w, h, err := imageSize(imgPath)
		if err != nil {
			return fmt.Errorf("read slide image %s: %w", imgPath, err)
		}

		pdf.AddPage()
		pageW, pageH := pdf.GetPageSize()
		availW := pageW - 2*pageMargin
		availH := pageH - 2*pageMargin

		// Scale to fit the page while keeping the aspect ratio.
		scale := math.Min(availW/w, availH/h)
		drawW := w * scale
		drawH := h * scale
		x := (pageW - drawW) / 2
		y := (pageH - drawH) / 2

		pdf.Image(imgPath, x, y, drawW, drawH, false, "", 0, "")
	}

	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return fmt.Errorf("write handout pdf: %w", err)
	}
	return nil
}

func imageSize(path string) (float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}
