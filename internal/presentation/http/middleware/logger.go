package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// healthPath 正常時はアクセスログを出さないパス
const healthPath = "/health"

// responseWriter ステータスコードをキャプチャするためのラッパー
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger ロギングミドルウェア
//
// /health は失敗したときだけログに出す。
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		if r.URL.Path == healthPath {
			if rw.statusCode != http.StatusOK {
				log.Error().Int("status", rw.statusCode).Msg("health check failed")
			}
			return
		}

		event := log.Info()
		if rw.statusCode >= http.StatusInternalServerError {
			event = log.Error()
		} else if rw.statusCode >= http.StatusBadRequest {
			event = log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Int64("bytes", rw.written).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
