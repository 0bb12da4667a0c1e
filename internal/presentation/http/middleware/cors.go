package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS CORSミドルウェア。origins が空の場合はすべてのオリジンを許可する
func CORS(origins ...string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         3600,

		OptionsSuccessStatus: http.StatusNoContent,
	})
}
