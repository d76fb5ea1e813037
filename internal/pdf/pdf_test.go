package pdf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name        string
		pageRange   string
		want        []int
		expectError bool
	}{
		{name: "empty range returns nil", pageRange: "", want: nil},
		{name: "single page", pageRange: "1", want: []int{1}},
		{name: "multiple single pages", pageRange: "1,3,5", want: []int{1, 3, 5}},
		{name: "simple range", pageRange: "1-5", want: []int{1, 2, 3, 4, 5}},
		{name: "mixed pages and ranges", pageRange: "1,3-5,7", want: []int{1, 3, 4, 5, 7}},
		{name: "range with spaces", pageRange: " 1 - 3 , 5 ", want: []int{1, 2, 3, 5}},
		{name: "invalid page number", pageRange: "abc", expectError: true},
		{name: "invalid range format", pageRange: "1-2-3", expectError: true},
		{name: "start greater than end", pageRange: "5-1", expectError: true},
		{name: "invalid end page", pageRange: "1-xyz", expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageRange(tt.pageRange)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePageFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		base     string
		want     int
		ok       bool
	}{
		{"scan_1_Im0.png", "scan", 1, true},
		{"my_scan_12_Im3.jpg", "my_scan", 12, true},
		{"page_2_image_1.png", "", 2, true},
		{"other_3_Im0.png", "scan", 0, false},
		{"scan_x_Im0.png", "scan", 0, false},
		{"scan_0_Im0.png", "scan", 0, false},
	}
	for _, tt := range tests {
		got, err := parsePageFromFilename(tt.filename, tt.base)
		if !tt.ok {
			assert.Error(t, err, tt.filename)
			continue
		}
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.want, got)
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("scan.PDF"))
	assert.False(t, IsPDF("scan.png"))
}

func TestPageCount_ExportedDocument(t *testing.T) {
	var buf bytes.Buffer
	r := testutil.GradientRaster(t, 120, 80)
	require.NoError(t, export.Encode(&buf, r, export.FormatPDF, export.DefaultOptions()))

	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	n, err := PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPageCount_Missing(t *testing.T) {
	_, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestPageImage_InvalidPage(t *testing.T) {
	_, err := PageImage("whatever.pdf", 0)
	assert.Error(t, err)
}

func TestPageImage_ExportedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, export.WriteFile(path, testutil.GradientRaster(t, 120, 80), export.FormatPDF, export.DefaultOptions()))

	img, err := PageImage(path, 1)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())

	_, err = PageImage(path, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
