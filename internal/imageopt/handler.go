package imageopt

import (
	"net/http"
	"strconv"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Handler serves GET ?url=<site path>&w=<width>&q=<quality>.
func (o *Optimizer) Handler(errs *derrors.HTTPErrorAdapter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		src := q.Get("url")
		if src == "" {
			errs.WriteErrorResponse(w, r, derrors.ValidationError(`"url" parameter is required`).Build())
			return
		}
		width, err := strconv.Atoi(q.Get("w"))
		if err != nil {
			errs.WriteErrorResponse(w, r, derrors.ValidationError(`"w" parameter must be a number`).Build())
			return
		}
		quality := o.quality
		if qs := q.Get("q"); qs != "" {
			if quality, err = strconv.Atoi(qs); err != nil {
				errs.WriteErrorResponse(w, r, derrors.ValidationError(`"q" parameter must be a number`).Build())
				return
			}
		}

		res, err := o.Optimize(r.Context(), src, width, quality)
		if err != nil {
			errs.WriteErrorResponse(w, r, err)
			return
		}
		if match := r.Header.Get("If-None-Match"); match != "" && match == res.ETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("ETag", res.ETag)
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
		_, _ = w.Write(res.Data)
	})
}
