// Package rasterizer renders the first pages of a PDF into JPEG images for
// vision analysis when the PDF has no usable text layer.
package rasterizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
)

const (
	baseDPI        = 72.0
	defaultScale   = 2.0
	defaultQuality = 90
	dataURLPrefix  = "data:image/jpeg;base64,"
)

// Kind classifies a conversion failure.
type Kind string

const (
	KindOpen   Kind = "open"
	KindEmpty  Kind = "empty"
	KindRender Kind = "render"
	KindEncode Kind = "encode"
)

// Error reports why a conversion failed. Page is 1-based and zero when the
// failure is not tied to a page.
type Error struct {
	Kind Kind
	Page int
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Page > 0 && e.Err != nil:
		return fmt.Sprintf("rasterize %s page %d: %v", e.Kind, e.Page, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("rasterize %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("rasterize %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Document is the subset of a parsed PDF the converter needs.
type Document interface {
	NumPage() int
	ImageDPI(page int, dpi float64) (*image.RGBA, error)
	Close() error
}

// Opener parses raw PDF bytes.
type Opener func(data []byte) (Document, error)

// OpenFitz opens a document with MuPDF.
func OpenFitz(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Result holds the rendered pages in order and the page count of the source.
type Result struct {
	Images    []string
	PageCount int
}

// Converter turns PDFs into page images.
type Converter struct {
	open    Opener
	scale   float64
	quality int
}

// Option customises a Converter.
type Option func(*Converter)

// WithOpener swaps the PDF backend.
func WithOpener(open Opener) Option {
	return func(c *Converter) { c.open = open }
}

// WithScale sets the upscaling factor applied to the 72 DPI page size.
func WithScale(scale float64) Option {
	return func(c *Converter) {
		if scale > 0 {
			c.scale = scale
		}
	}
}

// WithQuality sets the JPEG quality (1-100).
func WithQuality(q int) Option {
	return func(c *Converter) {
		if q >= 1 && q <= 100 {
			c.quality = q
		}
	}
}

// New builds a Converter backed by go-fitz unless overridden.
func New(opts ...Option) *Converter {
	c := &Converter{open: OpenFitz, scale: defaultScale, quality: defaultQuality}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert renders min(PageCount, maxPages) pages in page order and returns
// them as JPEG data URLs. progress, when set, receives pageNum*100/pagesToProcess
// after each rendered page. Any page failure aborts the conversion and no
// images are returned.
func (c *Converter) Convert(ctx context.Context, data []byte, maxPages int, progress func(int)) (Result, error) {
	doc, err := c.open(data)
	if err != nil {
		return Result{}, &Error{Kind: KindOpen, Err: err}
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount <= 0 {
		return Result{}, &Error{Kind: KindEmpty}
	}

	pages := pageCount
	if maxPages > 0 && maxPages < pages {
		pages = maxPages
	}

	dpi := baseDPI * c.scale
	images := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return Result{}, &Error{Kind: KindRender, Page: i + 1, Err: err}
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
			return Result{}, &Error{Kind: KindEncode, Page: i + 1, Err: err}
		}
		images = append(images, dataURLPrefix+base64.StdEncoding.EncodeToString(buf.Bytes()))

		if progress != nil {
			progress((i + 1) * 100 / pages)
		}
	}

	return Result{Images: images, PageCount: pageCount}, nil
}
