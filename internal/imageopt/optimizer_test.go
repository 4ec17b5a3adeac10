package imageopt

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/paths"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func newOptimizer(t *testing.T) *Optimizer {
	fsys := fstest.MapFS{
		"img/wide.png":  {Data: encodePNG(t, 1600, 800)},
		"img/small.png": {Data: encodePNG(t, 100, 50)},
		"img/photo.jpg": {Data: encodeJPEG(t, 2000, 1000)},
		"img/logo.svg":  {Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)},
	}
	return New(fsys, []int{1080, 640}, 75)
}

func TestOptimize_Downscales(t *testing.T) {
	o := newOptimizer(t)
	res, err := o.Optimize(context.Background(), "/img/wide.png", 640, 75)
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 320, cfg.Height)
}

func TestOptimize_JPEGKeepsFormat(t *testing.T) {
	res, err := newOptimizer(t).Optimize(context.Background(), "img/photo.jpg", 1080, 60)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1080, cfg.Width)
}

func TestOptimize_NoUpscaleAndPassthrough(t *testing.T) {
	o := newOptimizer(t)
	small := encodePNG(t, 100, 50)
	res, err := o.Optimize(context.Background(), "/img/small.png", 640, 75)
	require.NoError(t, err)
	assert.Equal(t, small, res.Data)

	svg, err := o.Optimize(context.Background(), "/img/logo.svg", 640, 75)
	require.NoError(t, err)
	assert.Contains(t, string(svg.Data), "<svg")
}

func TestOptimize_Validation(t *testing.T) {
	o := newOptimizer(t)
	_, err := o.Optimize(context.Background(), "/img/wide.png", 700, 75)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))

	_, err = o.Optimize(context.Background(), "/img/wide.png", 640, 0)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))

	_, err = o.Optimize(context.Background(), "/img/missing.png", 640, 75)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNotFound))

	_, err = o.Optimize(context.Background(), "/../../etc/passwd", 640, 75)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNotFound))
}

func TestOptimize_Caches(t *testing.T) {
	o := newOptimizer(t)
	a, err := o.Optimize(context.Background(), "/img/wide.png", 640, 75)
	require.NoError(t, err)
	b, err := o.Optimize(context.Background(), "img/wide.png", 640, 75)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, o.Len())
}

func TestURL(t *testing.T) {
	o := newOptimizer(t)
	u := o.URL(paths.Policy{BasePath: "/docs", AssetPrefix: "https://cdn.test"}, "/img/wide.png")
	assert.Equal(t, "/docs/_docsite/image?q=75&url=%2Fimg%2Fwide.png&w=1080", u)
}

func TestHandler(t *testing.T) {
	o := newOptimizer(t)
	h := o.Handler(derrors.NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(io.Discard, nil))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Endpoint+"?url=/img/wide.png&w=640", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, Endpoint+"?url=/img/wide.png&w=640", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Endpoint+"?url=/img/wide.png&w=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Endpoint+"?url=/img/none.png&w=640", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
