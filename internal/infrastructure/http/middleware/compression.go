package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
)

// CompressionConfig configures compression behavior
type CompressionConfig struct {
	BrotliLevel       int // 0-11
	GzipLevel         int // 1-9
	MinSizeBytes      int
	PreferBrotli      bool
	CompressibleTypes []string
}

// DefaultCompressionConfig returns sensible defaults
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		BrotliLevel:  5,
		GzipLevel:    6,
		MinSizeBytes: 1024,
		PreferBrotli: true,
		CompressibleTypes: []string{
			"text/html",
			"text/css",
			"text/javascript",
			"application/javascript",
			"application/json",
			"text/plain",
			"image/svg+xml",
		},
	}
}

// Compression buffers the response and, when the client accepts it and the
// body is large enough and of a compressible type, rewrites it as br or gzip.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			encoding := negotiateEncoding(r.Header.Get("Accept-Encoding"), cfg.PreferBrotli)
			if encoding == "" || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			bw := &bufferedWriter{ResponseWriter: w, buf: new(bytes.Buffer)}
			next.ServeHTTP(bw, r)

			w.Header().Add("Vary", "Accept-Encoding")
			body := bw.buf.Bytes()
			if len(body) < cfg.MinSizeBytes ||
				w.Header().Get("Content-Encoding") != "" ||
				!isCompressibleType(w.Header().Get("Content-Type"), cfg.CompressibleTypes) {
				bw.flush(body)
				return
			}

			compressed, err := compress(body, encoding, cfg)
			if err != nil || len(compressed) >= len(body) {
				bw.flush(body)
				return
			}

			w.Header().Set("Content-Encoding", encoding)
			bw.flush(compressed)
		})
	}
}

// negotiateEncoding picks br or gzip from an Accept-Encoding header. An
// entry with q=0 is a refusal.
func negotiateEncoding(header string, preferBrotli bool) string {
	if header == "" {
		return ""
	}

	accepted := make(map[string]float64)
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		quality := 1.0
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil {
				quality = v
			}
		}
		accepted[strings.ToLower(strings.TrimSpace(name))] = quality
	}

	if preferBrotli && accepted["br"] > 0 {
		return "br"
	}
	if accepted["gzip"] > 0 {
		return "gzip"
	}
	if accepted["br"] > 0 {
		return "br"
	}
	return ""
}

func compress(content []byte, encoding string, cfg CompressionConfig) ([]byte, error) {
	var buf bytes.Buffer
	var writer io.WriteCloser

	switch encoding {
	case "br":
		writer = brotli.NewWriterLevel(&buf, cfg.BrotliLevel)
	default:
		gz, err := gzip.NewWriterLevel(&buf, cfg.GzipLevel)
		if err != nil {
			return nil, err
		}
		writer = gz
	}

	if _, err := writer.Write(content); err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isCompressibleType(contentType string, types []string) bool {
	if contentType == "" {
		return false
	}
	mainType, _, _ := strings.Cut(contentType, ";")
	mainType = strings.TrimSpace(strings.ToLower(mainType))
	for _, t := range types {
		if mainType == t {
			return true
		}
	}
	return false
}

// bufferedWriter holds the status and body until the handler returns
type bufferedWriter struct {
	http.ResponseWriter
	buf    *bytes.Buffer
	status int
}

func (bw *bufferedWriter) WriteHeader(code int) {
	if bw.status == 0 {
		bw.status = code
	}
}

func (bw *bufferedWriter) Write(b []byte) (int, error) {
	if bw.status == 0 {
		bw.status = http.StatusOK
	}
	return bw.buf.Write(b)
}

func (bw *bufferedWriter) flush(body []byte) {
	if bw.status == 0 {
		bw.status = http.StatusOK
	}
	bw.Header().Del("Content-Length")
	if bw.status != http.StatusNoContent && bw.status != http.StatusNotModified {
		bw.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}
	bw.ResponseWriter.WriteHeader(bw.status)
	if len(body) > 0 {
		bw.ResponseWriter.Write(body)
	}
}
