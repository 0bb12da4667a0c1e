package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"astro-analyze-app/internal/presentation/di"
	"astro-analyze-app/internal/presentation/http/middleware"
)

// NewRouter 新しいルーターを作成
func NewRouter(container *di.Container) http.Handler {
	r := chi.NewRouter()

	// ミドルウェアの適用
	r.Use(middleware.CORS())
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)

	// Health check
	r.Get("/health", container.HealthHandler().ServeHTTP)

	// Planet API ハンドラー
	planetHandler := container.PlanetHandler()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/planets/analyze", planetHandler.HandleAnalyze)
		r.Get("/session", planetHandler.HandleState)
		r.Post("/session/reset", planetHandler.HandleReset)
	})

	// プレビュー画像
	r.Get("/previews/{id}", planetHandler.HandlePreview)

	return r
}
