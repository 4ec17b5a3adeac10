package export

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/theme"
)

func stageThemeAssets(ctx context.Context, bs *buildState) error {
	prefix := strings.Trim(theme.StaticPrefix, "/")
	n, err := bs.copyTree(ctx, bs.renderer.Theme().Assets(), prefix, "theme "+bs.renderer.Theme().Name())
	bs.report.Assets += n
	return err
}

// stagePublicAssets copies the public directory byte-for-byte. Images are never transformed in
// export output.
func stagePublicAssets(ctx context.Context, bs *buildState) error {
	dir := bs.cfg.Content.PublicDir
	if dir == "" {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		bs.logger.Debug("No public directory", logfields.Path(dir))
		return nil
	}
	n, err := bs.copyTree(ctx, os.DirFS(dir), "", "public")
	bs.report.Assets += n
	return err
}

// copyTree copies every regular file of src under prefix in the staging directory.
func (bs *buildState) copyTree(ctx context.Context, src fs.FS, prefix, producer string) (int, error) {
	count := 0
	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel := path.Join(prefix, p)
		if other, exists := bs.written[rel]; exists {
			return derrors.ContentError("asset conflicts with generated file").
				WithContext("file", rel).WithContext("first", other).WithContext("second", producer).Build()
		}
		if err := copyFile(src, p, filepath.Join(bs.stageDir, filepath.FromSlash(rel))); err != nil {
			return err
		}
		bs.written[rel] = producer
		count++
		return nil
	})
	return count, err
}

func copyFile(src fs.FS, name, target string) error {
	in, err := src.Open(name)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "open asset").WithContext("path", name).Build()
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "create asset directory").
			WithContext("path", filepath.Dir(target)).Build()
	}
	out, err := os.Create(target)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "create asset").WithContext("path", target).Build()
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return derrors.WrapError(err, derrors.CategoryFileSystem, "copy asset").WithContext("path", target).Build()
	}
	if err := out.Close(); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "close asset").WithContext("path", target).Build()
	}
	return nil
}
