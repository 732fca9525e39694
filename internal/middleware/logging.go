package middleware

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/slatedash/slate/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController so
// websocket upgrades can hijack the connection through the recorder.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack delegates to the underlying writer so upgraders that assert
// http.Hijacker directly (gorilla/websocket) work through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("underlying ResponseWriter does not implement http.Hijacker")
}

// Logging returns middleware that logs each request and feeds the
// request counters.
func Logging(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: 200}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			if m != nil {
				m.RecordRequest(rec.statusCode >= 500)
			}

			reqID := GetRequestID(r.Context())
			if reqID != "" {
				log.Printf("[http] %s %s %d %v [%s]", r.Method, r.URL.Path, rec.statusCode, duration, reqID)
			} else {
				log.Printf("[http] %s %s %d %v", r.Method, r.URL.Path, rec.statusCode, duration)
			}
		})
	}
}
