package pipeline

import (
	"github.com/LesterThomas/presentation-generator/internal/deck"
	"github.com/LesterThomas/presentation-generator/internal/render"
)

// NewOpener returns an Opener backed by the pure-Go PPTX reader and
// rasterizer. One font cache is shared by every slide of a run.
func NewOpener(opts *render.Options) Opener {
	if opts == nil {
		opts = render.DefaultOptions()
	}
	if opts.FontCache == nil {
		opts.FontCache = render.NewFontCache(opts.FontDirs...)
	}
	return func(path string) (Deck, error) {
		pres, err := deck.Open(path)
		if err != nil {
			return nil, err
		}
		return &pptxDeck{pres: pres, opts: opts}, nil
	}
}

type pptxDeck struct {
	pres *deck.Presentation
	opts *render.Options
}

func (d *pptxDeck) SlideCount() int {
	return d.pres.SlideCount()
}

func (d *pptxDeck) Hidden(index int) bool {
	s, err := d.pres.Slide(index)
	if err != nil {
		return false
	}
	return s.Hidden()
}

func (d *pptxDeck) Notes(index int) (string, error) {
	s, err := d.pres.Slide(index)
	if err != nil {
		return "", err
	}
	return s.Notes(), nil
}

func (d *pptxDeck) ExportImage(index int, path string) error {
	s, err := d.pres.Slide(index)
	if err != nil {
		return err
	}
	img, err := render.Slide(s, d.pres.Layout(), d.opts)
	if err != nil {
		return err
	}
	return render.SaveImage(img, path, d.opts)
}

func (d *pptxDeck) Close() error {
	return d.pres.Close()
}
