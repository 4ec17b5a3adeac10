// Package imageopt resizes local images on request in server output mode.
package imageopt

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/draw"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/paths"
)

// Endpoint is the site-relative path the optimizer is mounted at.
const Endpoint = "/_docsite/image"

const maxCacheEntries = 256

// Result is an encoded image.
type Result struct {
	Data        []byte
	ContentType string
	ETag        string
}

type cacheKey struct {
	src     string
	width   int
	quality int
}

// Optimizer serves resized copies of images found in a public directory.
type Optimizer struct {
	root     fs.FS
	widths   []int
	quality  int
	recorder metrics.Recorder

	mu    sync.Mutex
	cache map[cacheKey]*Result
	order []cacheKey
}

// New creates an optimizer over root. widths lists the allowed output widths.
func New(root fs.FS, widths []int, quality int) *Optimizer {
	w := slices.Clone(widths)
	slices.Sort(w)
	return &Optimizer{root: root, widths: w, quality: quality, recorder: metrics.NoopRecorder{}, cache: map[cacheKey]*Result{}}
}

// WithRecorder reports cache hits and misses to rec.
func (o *Optimizer) WithRecorder(rec metrics.Recorder) *Optimizer {
	if rec != nil {
		o.recorder = rec
	}
	return o
}

// URL returns the optimizer URL for a site-relative image path at the largest allowed width.
func (o *Optimizer) URL(policy paths.Policy, sitePath string) string {
	q := url.Values{}
	q.Set("url", sitePath)
	q.Set("w", strconv.Itoa(o.maxWidth()))
	q.Set("q", strconv.Itoa(o.quality))
	return policy.PublicURL(Endpoint) + "?" + q.Encode()
}

func (o *Optimizer) maxWidth() int {
	if len(o.widths) == 0 {
		return 0
	}
	return o.widths[len(o.widths)-1]
}

// Optimize returns src scaled down to width. Images narrower than width and formats that
// cannot be decoded as raster images are returned unchanged.
func (o *Optimizer) Optimize(ctx context.Context, src string, width, quality int) (*Result, error) {
	if !slices.Contains(o.widths, width) {
		return nil, derrors.ValidationError("width is not an allowed image width").
			WithContext("width", width).WithContext("allowed", o.widths).Build()
	}
	if quality < 1 || quality > 100 {
		return nil, derrors.ValidationError("quality must be between 1 and 100").
			WithContext("quality", quality).Build()
	}
	name := strings.TrimPrefix(path.Clean("/"+src), "/")

	key := cacheKey{src: name, width: width, quality: quality}
	if res, ok := o.cached(key); ok {
		o.recorder.IncImageCache(true)
		return res, nil
	}
	o.recorder.IncImageCache(false)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(o.root, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, derrors.NotFoundError("image not found").WithContext("url", src).Build()
		}
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read image").WithContext("url", src).Build()
	}

	res, err := transform(data, width, quality)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryValidation, "image could not be optimized").
			WithContext("url", src).Build()
	}
	o.store(key, res)
	return res, nil
}

func transform(data []byte, width, quality int) (*Result, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// not a raster format we handle (svg, webp, ...): pass through
		return newResult(data, http.DetectContentType(data)), nil //nolint:nilerr // passthrough
	}
	if cfg.Width <= width {
		return newResult(data, "image/"+format), nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	height := cfg.Height * width / cfg.Width
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		format = "png"
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, dst)
	}
	if err != nil {
		return nil, err
	}
	return newResult(buf.Bytes(), "image/"+format), nil
}

func newResult(data []byte, contentType string) *Result {
	sum := sha256.Sum256(data)
	return &Result{Data: data, ContentType: contentType, ETag: `"` + hex.EncodeToString(sum[:8]) + `"`}
}

func (o *Optimizer) cached(k cacheKey) (*Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, ok := o.cache[k]
	return r, ok
}

// store inserts into the cache, evicting the oldest entry when full.
func (o *Optimizer) store(k cacheKey, r *Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.cache[k]; ok {
		return
	}
	if len(o.order) >= maxCacheEntries {
		delete(o.cache, o.order[0])
		o.order = o.order[1:]
	}
	o.cache[k] = r
	o.order = append(o.order, k)
}

// Len reports the number of cached results.
func (o *Optimizer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.cache)
}
