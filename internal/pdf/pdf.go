// Package pdf reads page images out of PDF files so a scanned PDF can be
// fed back into the scanner.
package pdf

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNoImage reports a page without an embedded raster image.
var ErrNoImage = errors.New("no image on page")

// IsPDF reports whether path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// PageCount returns the number of pages of a PDF file.
func PageCount(filename string) (int, error) {
	n, err := api.PageCountFile(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf %s: %w", filepath.Base(filename), err)
	}
	return n, nil
}

// PageImage returns the largest image embedded on the given 1-based page.
func PageImage(filename string, page int) (image.Image, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}
	n, err := PageCount(filename)
	if err != nil {
		return nil, err
	}
	if page > n {
		return nil, fmt.Errorf("page %d out of range, document has %d page(s)", page, n)
	}
	images, err := ExtractImages(filename, strconv.Itoa(page))
	if err != nil {
		return nil, err
	}
	var best image.Image
	for _, img := range images[page] {
		if best == nil || area(img) > area(best) {
			best = img
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w %d", ErrNoImage, page)
	}
	return best, nil
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

// ExtractImages extracts the images of the selected pages ("" for all),
// keyed by page number.
func ExtractImages(filename string, pageRange string) (map[int][]image.Image, error) {
	pageNumbers, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "docscan-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pages []string
	for _, n := range pageNumbers {
		pages = append(pages, strconv.Itoa(n))
	}
	if err := api.ExtractImagesFile(filename, tempDir, pages, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return collectExtractedImages(tempDir, base)
}

// collectExtractedImages loads every decodable image in dir and groups
// them by the page number encoded in the file name.
func collectExtractedImages(dir, base string) (map[int][]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	result := make(map[int][]image.Image)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		page, err := parsePageFromFilename(e.Name(), base)
		if err != nil {
			continue
		}
		img, err := imaging.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		result[page] = append(result[page], img)
	}
	return result, nil
}

// parsePageFromFilename reads the page number from an extracted image
// name, either "<base>_<page>_<id>.<ext>" or "page_<page>_image_<id>.<ext>".
func parsePageFromFilename(filename, base string) (int, error) {
	rest := ""
	switch {
	case base != "" && strings.HasPrefix(filename, base+"_"):
		rest = strings.TrimPrefix(filename, base+"_")
	case strings.HasPrefix(filename, "page_"):
		rest = strings.TrimPrefix(filename, "page_")
	default:
		return 0, errors.New("not a page image")
	}
	num, _, _ := strings.Cut(rest, "_")
	num = strings.TrimSuffix(num, filepath.Ext(num))
	page, err := strconv.Atoi(num)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page number in %q", filename)
	}
	return page, nil
}

// parsePageRange parses "1-5", "1,3,5" or a mix of both.
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}
	var pages []int
	for part := range strings.SplitSeq(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses a single page ("3") or an inclusive range ("1-5").
func parseRangeToken(part string) ([]int, error) {
	from, to, isRange := strings.Cut(part, "-")
	start, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	if !isRange {
		return []int{start}, nil
	}
	if strings.Contains(to, "-") {
		return nil, fmt.Errorf("invalid range format: %s", part)
	}
	end, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return nil, fmt.Errorf("invalid end page: %s", to)
	}
	if start > end {
		return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out, nil
}
