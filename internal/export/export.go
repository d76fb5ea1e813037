// Package export encodes rasters as PNG, JPEG or single-page PDF.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Format is an output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

// DefaultJPEGQuality is used when Options.JPEGQuality is zero.
const DefaultJPEGQuality = 95

// DefaultBaseName is the file name stem of exported documents.
const DefaultBaseName = "scanned-document"

// ErrUnknownFormat reports an unsupported output format.
var ErrUnknownFormat = errors.New("unknown export format")

// Formats lists the supported formats.
func Formats() []Format { return []Format{FormatPNG, FormatJPEG, FormatPDF} }

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Extension returns the file extension without a dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// Filename returns the default download name for the format.
func (f Format) Filename() string {
	return DefaultBaseName + "." + f.Extension()
}

// Options tunes encoding.
type Options struct {
	// JPEGQuality in 1..100; also used for images embedded in PDFs when
	// PDFImageFormat is FormatJPEG.
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
	// PDFImageFormat selects how the page image is embedded: png (lossless, default) or jpeg.
	PDFImageFormat Format `json:"pdf_image_format" yaml:"pdf_image_format" mapstructure:"pdf_image_format"`
}

// DefaultOptions returns the default encoding options.
func DefaultOptions() Options {
	return Options{JPEGQuality: DefaultJPEGQuality, PDFImageFormat: FormatPNG}
}

func (o Options) quality() int {
	if o.JPEGQuality <= 0 {
		return DefaultJPEGQuality
	}
	return min(o.JPEGQuality, 100)
}

// Encode writes r to w in the given format.
func Encode(w io.Writer, r *raster.Raster, f Format, opts Options) error {
	if err := r.Validate(); err != nil {
		return raster.Wrap("export", err)
	}
	img := r.ToImage()
	switch f {
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(opts.quality()))
	case FormatPDF:
		return encodePDF(w, r, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// encodePDF embeds r as the only image of a page whose size in points
// equals the raster's pixel size.
func encodePDF(w io.Writer, r *raster.Raster, opts Options) error {
	embed := opts.PDFImageFormat
	if embed != FormatJPEG {
		embed = FormatPNG
	}
	var page bytes.Buffer
	if err := Encode(&page, r, embed, opts); err != nil {
		return err
	}

	imp, err := api.Import("pos:full", types.POINTS)
	if err != nil {
		return fmt.Errorf("pdf import settings: %w", err)
	}
	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, w, []io.Reader{&page}, imp, conf); err != nil {
		return fmt.Errorf("failed to build pdf: %w", err)
	}
	return nil
}

// WriteFile encodes r into path, creating parent directories as needed.
func WriteFile(path string, r *raster.Raster, f Format, opts Options) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path) //nolint:gosec // G304: output path is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(file, r, f, opts)
}
