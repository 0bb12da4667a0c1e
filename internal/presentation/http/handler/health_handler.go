package handler

import (
	"encoding/json"
	"net/http"
)

// Version アプリケーションのバージョン
const Version = "1.0.0"

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	components map[string]string
}

// NewHealthHandler 新しいHealthHandlerを作成
//
// components には各依存先の状態（"disabled"、ドライバー名など）を渡す。
func NewHealthHandler(components map[string]string) *HealthHandler {
	return &HealthHandler{components: components}
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// ServeHTTP ヘルスチェックを処理
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:     "ok",
		Version:    Version,
		Components: h.components,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
