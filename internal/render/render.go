// Package render rasterizes deck slides into PNG or JPEG images.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // register decoders for embedded pictures
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/LesterThomas/presentation-generator/internal/deck"
)

// Format is the output image format.
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
)

// Options configures slide-to-image rendering.
type Options struct {
	// Width is the output image width in pixels. Height is calculated
	// from the slide aspect ratio. Default: 1920.
	Width int
	// Format is the output image format (PNG or JPEG).
	Format Format
	// JPEGQuality is the JPEG quality (1-100). Default: 90.
	JPEGQuality int
	// Background overrides the slide background. Nil means use the slide
	// background or white.
	Background *color.RGBA
	// DPI is the rendering DPI for font sizing. Default: 96.
	DPI float64
	// FontDirs specifies additional directories to search for fonts.
	FontDirs []string
	// FontCache allows sharing a pre-configured FontCache across renders.
	// If nil, a new cache is created from FontDirs.
	FontCache *FontCache
}

// DefaultOptions returns default rendering options.
func DefaultOptions() *Options {
	return &Options{
		Width:       1920,
		Format:      FormatPNG,
		JPEGQuality: 90,
		DPI:         96,
	}
}

// Slide renders a single slide onto a new image sized from the layout's
// aspect ratio at the requested width.
func Slide(s *deck.Slide, layout deck.Layout, opts *Options) (image.Image, error) {
	if s == nil {
		return nil, fmt.Errorf("slide is nil")
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Width <= 0 {
		opts.Width = 1920
	}
	if layout.CX <= 0 || layout.CY <= 0 {
		return nil, fmt.Errorf("invalid slide layout %dx%d", layout.CX, layout.CY)
	}

	imgW := opts.Width
	imgH := int(float64(imgW) * float64(layout.CY) / float64(layout.CX))

	img := image.NewRGBA(image.Rect(0, 0, imgW, imgH))

	bg := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if opts.Background != nil {
		bg = *opts.Background
	} else if f := s.Background(); f != nil {
		bg = toRGBA(f.Color)
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	r := &renderer{
		img:       img,
		scaleX:    float64(imgW) / float64(layout.CX),
		scaleY:    float64(imgH) / float64(layout.CY),
		fontCache: opts.FontCache,
		dpi:       opts.DPI,
	}
	if r.fontCache == nil {
		r.fontCache = NewFontCache(opts.FontDirs...)
	}
	if r.dpi <= 0 {
		r.dpi = 96
	}

	for _, shape := range s.Shapes() {
		r.renderShape(shape)
	}
	return img, nil
}

// SaveImage encodes an image to the given path, creating parent
// directories as needed.
func SaveImage(img image.Image, path string, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	switch opts.Format {
	case FormatJPEG:
		quality := opts.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		return jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	default:
		return png.Encode(f, img)
	}
}

// --- renderer ---

type renderer struct {
	img       *image.RGBA
	scaleX    float64
	scaleY    float64
	fontCache *FontCache
	dpi       float64
}

func (r *renderer) renderShape(shape deck.Shape) {
	switch s := shape.(type) {
	case *deck.TextBox:
		r.renderTextBox(s)
	case *deck.Picture:
		r.renderPicture(s)
	case *deck.Line:
		r.renderLine(s)
	}
}

func (r *renderer) pixelBox(b deck.Box) image.Rectangle {
	x := int(float64(b.OffsetX) * r.scaleX)
	y := int(float64(b.OffsetY) * r.scaleY)
	w := int(float64(b.Width) * r.scaleX)
	h := int(float64(b.Height) * r.scaleY)
	return image.Rect(x, y, x+w, y+h)
}

func toRGBA(c deck.Color) color.RGBA {
	return color.RGBA{R: c.Red(), G: c.Green(), B: c.Blue(), A: c.Alpha()}
}

func (r *renderer) renderTextBox(s *deck.TextBox) {
	rect := r.pixelBox(s.Box)

	if s.Fill != nil {
		draw.Draw(r.img, rect, &image.Uniform{toRGBA(s.Fill.Color)}, image.Point{}, draw.Over)
	}
	r.drawParagraphs(s.Paragraphs, rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
}

func (r *renderer) renderPicture(s *deck.Picture) {
	rect := r.pixelBox(s.Box)

	if len(s.Data) == 0 {
		// Missing media part: draw a placeholder frame.
		r.drawRect(rect, color.RGBA{R: 200, G: 200, B: 200, A: 255}, 1)
		return
	}

	srcImg, _, err := image.Decode(bytes.NewReader(s.Data))
	if err != nil {
		r.drawRect(rect, color.RGBA{R: 200, G: 200, B: 200, A: 255}, 1)
		return
	}

	scaled := scaleImage(srcImg, rect.Dx(), rect.Dy())
	draw.Draw(r.img, rect, scaled, image.Point{}, draw.Over)
}

func (r *renderer) renderLine(s *deck.Line) {
	rect := r.pixelBox(s.Box)
	r.drawLine(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y, toRGBA(s.Color))
}

// --- drawing primitives ---

func (r *renderer) drawRect(rect image.Rectangle, c color.RGBA, width int) {
	for i := 0; i < width; i++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r.setPixel(x, rect.Min.Y+i, c)
			r.setPixel(x, rect.Max.Y-1-i, c)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			r.setPixel(rect.Min.X+i, y, c)
			r.setPixel(rect.Max.X-1-i, y, c)
		}
	}
}

func (r *renderer) drawLine(x1, y1, x2, y2 int, c color.RGBA) {
	// Bresenham's line algorithm
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		r.setPixel(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (r *renderer) setPixel(x, y int, c color.RGBA) {
	bounds := r.img.Bounds()
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		r.img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// scaleImage scales an image to the target size using nearest-neighbor.
func scaleImage(src image.Image, dstW, dstH int) image.Image {
	if dstW <= 0 || dstH <= 0 {
		return src
	}
	srcBounds := src.Bounds()
	srcW := srcBounds.Dx()
	srcH := srcBounds.Dy()
	if srcW == 0 || srcH == 0 {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			srcX := srcBounds.Min.X + x*srcW/dstW
			srcY := srcBounds.Min.Y + y*srcH/dstH
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}
	return dst
}
