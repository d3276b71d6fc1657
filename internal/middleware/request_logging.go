package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// RequestLogging writes one line per API request. Health probes and the
// metrics scrape are skipped.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Printf("[API] %s %s %d %dB %s ip=%s",
			r.Method, r.URL.Path, rec.statusCode, rec.bytesWritten,
			time.Since(start).Round(time.Millisecond), clientIP(r))
	})
}

func shouldSkipLogging(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health")
}

// clientIP prefers proxy headers over RemoteAddr
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
