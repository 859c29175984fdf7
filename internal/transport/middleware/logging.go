package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/shop-backoffice/pkg/logger"
)

const (
	// bodyLogLimit caps how many bytes of a request or response body are kept
	// for the access log.
	bodyLogLimit = 4096
	redacted     = "[REDACTED]"
)

// secretMarkers are matched as substrings of lower-cased header names and
// JSON keys.
var secretMarkers = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"cookie",
	"api_key",
	"apikey",
	"credential",
	"session",
}

func isSecret(name string) bool {
	name = strings.ToLower(name)
	for _, m := range secretMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// LoggingMiddleware writes one access-log line per request through the
// trace-scoped logger placed in the context by RequestID. Credentials in
// headers and JSON bodies are redacted.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		reqBody := captureRequestBody(r)

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.From(r.Context()).Log(r.Context(), levelFor(rec.status), "http request",
			slog.Group("request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", redactHeaders(r.Header),
				"body", redactBody(reqBody),
			),
			slog.Group("response",
				"status", rec.status,
				"bytes", rec.written,
				"body", redactBody(rec.head.Bytes()),
			),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// captureRequestBody reads the body for logging and puts an equivalent
// reader back for the handler.
func captureRequestBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	if len(body) > bodyLogLimit {
		return body[:bodyLogLimit]
	}
	return body
}

// recordingWriter keeps the status, the byte count and the first
// bodyLogLimit bytes of the response.
type recordingWriter struct {
	http.ResponseWriter
	status      int
	written     int
	head        bytes.Buffer
	wroteHeader bool
}

func (rw *recordingWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	if room := bodyLogLimit - rw.head.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rw.head.Write(b[:room])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if isSecret(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// redactBody renders a JSON body with secret fields masked. Bodies that are
// not JSON are summarized by size only.
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Sprintf("[%d bytes, not json]", len(body))
	}
	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return redacted
	}
	return string(out)
}

func redactValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, inner := range t {
			if isSecret(k) {
				t[k] = redacted
			} else {
				t[k] = redactValue(inner)
			}
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = redactValue(t[i])
		}
		return t
	}
	return v
}
