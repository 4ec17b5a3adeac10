package export

import (
	"context"
	"os"
	"path/filepath"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// notFoundFile is the file static hosts serve for unknown paths.
const notFoundFile = "404.html"

func stageRenderPages(ctx context.Context, bs *buildState) error {
	policy := bs.renderer.Policy()
	for _, page := range bs.site.Pages {
		doc, err := bs.renderer.RenderPage(ctx, bs.site, page)
		if err != nil {
			return err
		}
		rel := policy.OutputFile(page.Route)
		if page.Route == render.NotFoundRoute {
			rel = notFoundFile
		}
		if err := bs.writeFile(rel, doc, page.SourcePath); err != nil {
			return err
		}
		bs.logger.Debug("Rendered page", logfields.Route(page.Route), logfields.File(rel))
		bs.report.Pages++
	}
	return nil
}

func stageNotFound(ctx context.Context, bs *buildState) error {
	if _, ok := bs.written[notFoundFile]; ok {
		// already produced by pages/404.md or public/404.html
		return nil
	}
	doc, err := bs.renderer.RenderNotFound(ctx, bs.site)
	if err != nil {
		return err
	}
	return bs.writeFile(notFoundFile, doc, "404 page")
}

// writeFile writes data to rel inside the staging directory. Two producers of the same
// file are a content error.
func (bs *buildState) writeFile(rel string, data []byte, producer string) error {
	if other, exists := bs.written[rel]; exists {
		return derrors.ContentError("output file produced twice").
			WithContext("file", rel).WithContext("first", other).WithContext("second", producer).Build()
	}
	target := filepath.Join(bs.stageDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "create output directory").
			WithContext("path", filepath.Dir(target)).Build()
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write output file").
			WithContext("path", target).Build()
	}
	bs.written[rel] = producer
	return nil
}
