package unzip

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/terranet-ag/onboarding-service/pkg/logger"
)

// gzipBody reads decompressed data while closing both the gzip reader
// and the original request body.
type gzipBody struct {
	io.Reader
	body io.Closer
	zr   io.Closer
}

func (b gzipBody) Close() error {
	if err := b.zr.Close(); err != nil {
		return err
	}
	return b.body.Close()
}

// Middleware transparently decompresses gzip-encoded request bodies
// before the request reaches the handlers.
func Middleware(l logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		f := func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				l.Errorf("gzip request body: %s", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			body := r.Body
			r.Body = gzipBody{Reader: zr, body: body, zr: zr}
			r.Header.Del("Content-Encoding")
			defer r.Body.Close()

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(f)
	}
}
