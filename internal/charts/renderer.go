package charts

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
)

// Kind selects the chart style. The renderer is a thin display collaborator:
// it takes labels and values and returns an encoded image, nothing more.
type Kind string

const (
	KindBar  Kind = "bar"
	KindPie  Kind = "pie"
	KindLine Kind = "line"
)

var ErrMismatchedSeries = errors.New("labels and values must have the same non-zero length")

// Renderer turns a labeled series into a base64-encoded PNG.
type Renderer interface {
	Render(kind Kind, labels []string, values []float64, title string) (string, error)
}

// PNGRenderer rasterizes charts with the standard image package. All kinds
// currently rasterize as proportional bars; the Kind is kept on the
// interface so a richer backend can slot in without touching callers.
type PNGRenderer struct {
	Width  int
	Height int
}

func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Width: 800, Height: 500}
}

var palette = []color.RGBA{
	{R: 66, G: 133, B: 244, A: 255},
	{R: 219, G: 68, B: 55, A: 255},
	{R: 244, G: 180, B: 0, A: 255},
	{R: 15, G: 157, B: 88, A: 255},
	{R: 171, G: 71, B: 188, A: 255},
}

func (p *PNGRenderer) Render(_ Kind, labels []string, values []float64, _ string) (string, error) {
	if len(labels) == 0 || len(labels) != len(values) {
		return "", ErrMismatchedSeries
	}

	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	fill(img, img.Bounds(), color.White)

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	const margin = 20
	plotW := p.Width - 2*margin
	plotH := p.Height - 2*margin
	barW := plotW / len(values)

	for i, v := range values {
		if v < 0 {
			v = 0
		}
		h := int(float64(plotH) * v / maxVal)
		x0 := margin + i*barW
		bar := image.Rect(x0+2, margin+plotH-h, x0+barW-2, margin+plotH)
		fill(img, bar, palette[i%len(palette)])
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}
