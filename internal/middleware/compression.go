package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body in bytes worth compressing
	MinSize int
	// CompressibleTypes are the media types compressed
	CompressibleTypes []string
}

// DefaultCompressionConfig compresses JSON and text bodies of 1KB or more.
// Preview JPEGs are already compressed and pass through.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:           1024,
		CompressibleTypes: []string{"application/json", "text/plain"},
	}
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	},
}

// gzipResponseWriter buffers up to MinSize bytes to decide whether to
// compress.
type gzipResponseWriter struct {
	http.ResponseWriter
	config     CompressionConfig
	buffer     []byte
	statusCode int
	decided    bool
	gz         *gzip.Writer
}

func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if !g.decided {
		g.statusCode = statusCode
	}
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.decided {
		if g.gz != nil {
			return g.gz.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}
	g.buffer = append(g.buffer, data...)
	if len(g.buffer) >= g.config.MinSize {
		if err := g.decide(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (g *gzipResponseWriter) compressible() bool {
	mediaType, _, _ := strings.Cut(g.Header().Get("Content-Type"), ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	for _, t := range g.config.CompressibleTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

// decide writes the header and flushes the buffer, compressed or not.
func (g *gzipResponseWriter) decide() error {
	g.decided = true
	buf := g.buffer
	g.buffer = nil

	if len(buf) >= g.config.MinSize && g.Header().Get("Content-Encoding") == "" && g.compressible() {
		g.Header().Del("Content-Length")
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Add("Vary", "Accept-Encoding")
		g.gz = gzipWriterPool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
		g.ResponseWriter.WriteHeader(g.statusCode)
		_, err := g.gz.Write(buf)
		return err
	}

	g.ResponseWriter.WriteHeader(g.statusCode)
	_, err := g.ResponseWriter.Write(buf)
	return err
}

func (g *gzipResponseWriter) close() error {
	if !g.decided {
		if err := g.decide(); err != nil {
			return err
		}
	}
	if g.gz == nil {
		return nil
	}
	err := g.gz.Close()
	gzipWriterPool.Put(g.gz)
	g.gz = nil
	return err
}

// Compression returns a middleware that gzips compressible responses for
// clients that accept it. Websocket upgrades pass through untouched.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			gzw := &gzipResponseWriter{
				ResponseWriter: w,
				config:         config,
				statusCode:     http.StatusOK,
			}
			defer func() { _ = gzw.close() }()
			next.ServeHTTP(gzw, r)
		})
	}
}
