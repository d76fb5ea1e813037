package support

import (
	"fmt"

	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/cucumber/godog"
)

// writeRaster stores r under name, picking the format from the extension.
func (testCtx *TestContext) writeRaster(name string, r *raster.Raster) error {
	format, err := export.FormatFromPath(name)
	if err != nil {
		return err
	}
	return export.WriteFile(testCtx.path(name), r, format, export.DefaultOptions())
}

func (testCtx *TestContext) aDocumentPhoto(name string) error {
	r, err := testutil.RenderDocument(testutil.DefaultDocumentConfig())
	if err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	return testCtx.writeRaster(name, r)
}

func (testCtx *TestContext) aDocumentPhotoWithoutText(name string) error {
	cfg := testutil.DefaultDocumentConfig()
	cfg.TextLines = 0
	r, err := testutil.RenderDocument(cfg)
	if err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	return testCtx.writeRaster(name, r)
}

func (testCtx *TestContext) aBlankImage(name string, width, height int) error {
	r, err := raster.NewFilled(width, height, 128, 128, 128, 255)
	if err != nil {
		return err
	}
	return testCtx.writeRaster(name, r)
}

func (testCtx *TestContext) aFileWithContent(name, content string) error {
	return writeFile(testCtx.path(name), []byte(content))
}

// RegisterImageSteps registers fixture generation steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a document photo "([^"]*)"$`, testCtx.aDocumentPhoto)
	sc.Step(`^a blank document photo "([^"]*)"$`, testCtx.aDocumentPhotoWithoutText)
	sc.Step(`^a uniform image "([^"]*)" of (\d+)x(\d+)$`, testCtx.aBlankImage)
	sc.Step(`^a file "([^"]*)" containing "([^"]*)"$`, testCtx.aFileWithContent)
}
