// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render rasterizes document pages into PNG images for analysis.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/meshintel/formscan/pkg/types"
)

// PageImage is one rendered page, ready to send to the analyzer.
type PageImage struct {
	// Number is the 1-based page index within the document.
	Number int

	// PNG is the encoded page raster.
	PNG []byte
}

// Renderer converts a multi-page document into an ordered page image
// sequence. Implementations other than MuPDF can be swapped in for tests.
type Renderer interface {
	Render(path string) ([]PageImage, error)
}

// MuPDFRenderer rasterizes PDF pages through go-fitz.
type MuPDFRenderer struct {
	cfg types.RenderConfig
}

// NewMuPDFRenderer returns a renderer at the configured resolution.
func NewMuPDFRenderer(cfg types.RenderConfig) *MuPDFRenderer {
	return &MuPDFRenderer{cfg: cfg}
}

// Render opens the document and rasterizes every page in order.
func (r *MuPDFRenderer) Render(path string) ([]PageImage, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening document %s: %w", path, err)
	}
	defer doc.Close()

	pages := make([]PageImage, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, float64(r.cfg.DPI))
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", n+1, err)
		}
		encoded, err := EncodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", n+1, err)
		}
		pages = append(pages, PageImage{Number: n + 1, PNG: encoded})
	}

	return pages, nil
}

// EncodePNG serializes an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
