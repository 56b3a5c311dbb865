// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// Content codings negotiated by [Compress].
const (
	EncodingBrotli = "br"
	EncodingGzip   = "gzip"
)

// CompressOption configures [Compress].
type CompressOption func(*compressConfig)

type compressConfig struct {
	logger       *slog.Logger
	gzipLevel    int
	brotliLevel  int
	minSize      int
	excludePaths map[string]struct{}
	gzipPool     sync.Pool
	brotliPool   sync.Pool
}

// WithGzipLevel sets the gzip level, from gzip.BestSpeed to gzip.BestCompression.
func WithGzipLevel(level int) CompressOption {
	return func(c *compressConfig) { c.gzipLevel = level }
}

// WithBrotliLevel sets the brotli quality (0-11). Levels above 5 are
// rarely worth the CPU for dynamic JSON.
func WithBrotliLevel(level int) CompressOption {
	return func(c *compressConfig) { c.brotliLevel = level }
}

// WithMinSize leaves responses smaller than n bytes uncompressed.
func WithMinSize(n int) CompressOption {
	return func(c *compressConfig) { c.minSize = n }
}

// WithCompressExcludePaths leaves responses of these exact paths alone.
func WithCompressExcludePaths(paths ...string) CompressOption {
	return func(c *compressConfig) {
		for _, p := range paths {
			c.excludePaths[p] = struct{}{}
		}
	}
}

// WithCompressLogger sets the logger for encoder failures.
func WithCompressLogger(logger *slog.Logger) CompressOption {
	return func(c *compressConfig) { c.logger = logger }
}

// Compress returns a middleware encoding responses with brotli or gzip,
// following the client's Accept-Encoding preferences. Brotli wins ties.
// Responses with status 204, 206 or 304, responses already carrying a
// Content-Encoding and streaming content types are never compressed.
//
// Example:
//
//	r.Use(middleware.Compress(middleware.WithMinSize(1024)))
func Compress(opts ...CompressOption) func(http.Handler) http.Handler {
	cfg := &compressConfig{
		gzipLevel:    gzip.DefaultCompression,
		brotliLevel:  4,
		excludePaths: make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	cfg.gzipPool.New = func() any {
		w, err := gzip.NewWriterLevel(io.Discard, cfg.gzipLevel)
		if err != nil {
			w = gzip.NewWriter(io.Discard)
		}
		return w
	}
	cfg.brotliPool.New = func() any {
		return brotli.NewWriterLevel(io.Discard, cfg.brotliLevel)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := cfg.excludePaths[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}
			encoding := negotiateEncoding(r.Header.Get("Accept-Encoding"))
			if encoding == "" {
				next.ServeHTTP(w, r)
				return
			}

			cw := &compressWriter{ResponseWriter: w, cfg: cfg, encoding: encoding}
			next.ServeHTTP(cw, r)
			if err := cw.Close(); err != nil && cfg.logger != nil {
				cfg.logger.ErrorContext(r.Context(), "compression finalization failed",
					"encoding", encoding, "path", r.URL.Path, "error", err)
			}
		})
	}
}

// compressWriter buffers up to minSize bytes before choosing between a
// compressed and a plain response.
type compressWriter struct {
	http.ResponseWriter
	cfg      *compressConfig
	encoding string

	status   int
	buf      []byte
	decided  bool
	compress bool
	enc      io.WriteCloser
}

func (cw *compressWriter) WriteHeader(code int) {
	if cw.decided || cw.status != 0 {
		return
	}
	cw.status = code

	h := cw.Header()
	if skipStatus(code) || h.Get("Content-Encoding") != "" || skipContentType(h.Get("Content-Type")) {
		cw.decided = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

func (cw *compressWriter) Write(p []byte) (int, error) {
	if cw.status == 0 {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.decided {
		if cw.compress {
			return cw.enc.Write(p)
		}
		return cw.ResponseWriter.Write(p)
	}

	cw.buf = append(cw.buf, p...)
	if len(cw.buf) < cw.cfg.minSize {
		return len(p), nil
	}

	cw.start()
	if _, err := cw.enc.Write(cw.buf); err != nil {
		return 0, err
	}
	cw.buf = nil

	return len(p), nil
}

// start switches to the compressed response.
func (cw *compressWriter) start() {
	cw.decided = true
	cw.compress = true

	h := cw.Header()
	h.Del("Content-Length")
	h.Set("Content-Encoding", cw.encoding)
	h.Add("Vary", "Accept-Encoding")
	cw.ResponseWriter.WriteHeader(cw.status)

	if cw.encoding == EncodingBrotli {
		bw, _ := cw.cfg.brotliPool.Get().(*brotli.Writer)
		bw.Reset(cw.ResponseWriter)
		cw.enc = bw
		return
	}
	gw, _ := cw.cfg.gzipPool.Get().(*gzip.Writer)
	gw.Reset(cw.ResponseWriter)
	cw.enc = gw
}

// Close flushes a response that stayed under minSize and releases the
// encoder.
func (cw *compressWriter) Close() error {
	if !cw.decided {
		cw.decided = true
		if cw.status == 0 && len(cw.buf) == 0 {
			return nil
		}
		if cw.status == 0 {
			cw.status = http.StatusOK
		}
		cw.ResponseWriter.WriteHeader(cw.status)
		_, err := cw.ResponseWriter.Write(cw.buf)

		return err
	}
	if !cw.compress {
		return nil
	}

	err := cw.enc.Close()
	switch enc := cw.enc.(type) {
	case *brotli.Writer:
		enc.Reset(io.Discard)
		cw.cfg.brotliPool.Put(enc)
	case *gzip.Writer:
		enc.Reset(io.Discard)
		cw.cfg.gzipPool.Put(enc)
	}
	cw.enc = nil

	return err
}

// Unwrap returns the underlying writer for http.ResponseController.
func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

func skipStatus(code int) bool {
	return code == http.StatusNoContent ||
		code == http.StatusNotModified ||
		code == http.StatusPartialContent ||
		code < http.StatusOK
}

func skipContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.HasPrefix(ct, "text/event-stream") ||
		strings.HasPrefix(ct, "application/grpc") ||
		strings.HasPrefix(ct, "application/octet-stream") ||
		strings.HasPrefix(ct, "image/")
}

// negotiateEncoding picks br or gzip from an Accept-Encoding header, or ""
// when the client accepts neither.
func negotiateEncoding(header string) string {
	if header == "" {
		return ""
	}

	brQ, gzipQ := -1.0, -1.0
	for part := range strings.SplitSeq(strings.ToLower(header), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				q = parsed
			}
		}
		switch strings.TrimSpace(name) {
		case EncodingBrotli:
			brQ = q
		case EncodingGzip:
			gzipQ = q
		case "*":
			if brQ < 0 {
				brQ = q
			}
			if gzipQ < 0 {
				gzipQ = q
			}
		}
	}

	switch {
	case brQ > 0 && brQ >= gzipQ:
		return EncodingBrotli
	case gzipQ > 0:
		return EncodingGzip
	default:
		return ""
	}
}
