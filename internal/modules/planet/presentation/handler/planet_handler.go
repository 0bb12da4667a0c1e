package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"astro-analyze-app/internal/modules/planet/domain"
	"astro-analyze-app/internal/modules/planet/usecase"
	"astro-analyze-app/internal/modules/shared/domain/service"
)

const (
	// SessionCookieName セッションIDを保持するCookie名
	SessionCookieName = "astro_session"

	// maxBodySize base64エンコード分を含むリクエストボディの上限
	maxBodySize = service.MaxImageSize*2 + 1<<10
)

// PlanetHandler 惑星画像解析のハンドラー
type PlanetHandler struct {
	sessions   *usecase.SessionRegistry
	previews   domain.PreviewStore
	sessionTTL time.Duration
}

// NewPlanetHandler 新しいPlanetHandlerを作成
func NewPlanetHandler(sessions *usecase.SessionRegistry, previews domain.PreviewStore, sessionTTL time.Duration) *PlanetHandler {
	return &PlanetHandler{
		sessions:   sessions,
		previews:   previews,
		sessionTTL: sessionTTL,
	}
}

// StateResponse ワークフロー状態のレスポンス
type StateResponse struct {
	Success      bool                   `json:"success"`
	Phase        string                 `json:"phase"`
	IsLoading    bool                   `json:"isLoading"`
	Result       *domain.PlanetAnalysis `json:"result,omitempty"`
	Error        string                 `json:"error,omitempty"`
	ErrorKind    string                 `json:"errorKind,omitempty"`
	ImagePreview *PreviewResponse       `json:"imagePreview,omitempty"`
}

// PreviewResponse プレビュー画像の参照
type PreviewResponse struct {
	URL      string `json:"url"`
	MIMEType string `json:"mimeType"`
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// analyzeRequest JSONで画像を送る場合のリクエスト
type analyzeRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
}

// HandleAnalyze 画像を受け取り解析する
func (h *PlanetHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	// 入力が不正な場合はセッションの状態を変えない
	imageData, mimeType, err := h.readImage(w, r)
	if err != nil {
		log.Debug().Err(err).Msg("rejected analyze request")
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	wf := h.session(w, r)

	// クライアントの切断で解析を中断しない
	ctx := context.WithoutCancel(r.Context())
	state, err := wf.Submit(ctx, imageData, mimeType)
	switch {
	case errors.Is(err, domain.ErrSubmissionInProgress):
		h.sendState(w, state, http.StatusConflict, "解析中です。完了までお待ちください")
		return
	case errors.Is(err, domain.ErrInvalidTransition):
		h.sendState(w, state, http.StatusConflict, "セッションが終了しました。もう一度お試しください")
		return
	case err != nil:
		h.sendError(w, "予期しないエラーが発生しました", http.StatusInternalServerError)
		return
	}

	h.sendState(w, state, statusForState(state), "")
}

// HandleReset 結果を破棄して初期状態に戻す
func (h *PlanetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	wf := h.session(w, r)

	state, err := wf.Reset()
	if errors.Is(err, domain.ErrInvalidTransition) {
		h.sendState(w, state, http.StatusConflict, "解析中はリセットできません")
		return
	}
	if err != nil {
		h.sendError(w, "予期しないエラーが発生しました", http.StatusInternalServerError)
		return
	}

	h.sendState(w, state, http.StatusOK, "")
}

// HandleState 現在の状態を返す
func (h *PlanetHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	wf := h.session(w, r)
	h.sendState(w, wf.State(), http.StatusOK, "")
}

// HandlePreview セッションが保持するプレビュー画像を返す
func (h *PlanetHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wf, ok := h.lookupSession(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	state := wf.State()
	if state.ImagePreview == nil || state.ImagePreview.ID != id {
		http.NotFound(w, r)
		return
	}

	data, mimeType, ok := h.previews.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readImage リクエストから画像データとMIMEタイプを取り出す
func (h *PlanetHandler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", errors.New("リクエストの Content-Type が不正です")
	}

	var (
		imageData    []byte
		declaredMIME string
	)
	switch mediaType {
	case "multipart/form-data":
		imageData, declaredMIME, err = readMultipartImage(r)
	case "application/json":
		imageData, declaredMIME, err = readJSONImage(r)
	default:
		return nil, "", fmt.Errorf("未対応の Content-Type です: %s", mediaType)
	}
	if err != nil {
		return nil, "", err
	}

	detected, err := service.ValidateImageData(imageData)
	if err != nil {
		return nil, "", fmt.Errorf("画像ファイルが不正です: %w", err)
	}

	if declaredMIME != "" && declaredMIME != detected {
		log.Debug().Str("declared", declaredMIME).Str("detected", detected).Msg("declared MIME type differs from content")
	}
	return imageData, detected, nil
}

func readMultipartImage(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(service.MaxImageSize); err != nil {
		return nil, "", errors.New("フォームを読み取れませんでした")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", errors.New("画像ファイルを選択してください")
	}
	defer func() {
		_ = file.Close()
	}()

	imageData, err := io.ReadAll(file)
	if err != nil {
		return nil, "", errors.New("画像を読み込めませんでした")
	}
	return imageData, header.Header.Get("Content-Type"), nil
}

func readJSONImage(r *http.Request) ([]byte, string, error) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", errors.New("リクエストボディが不正です")
	}
	if req.Image == "" {
		return nil, "", errors.New("画像ファイルを選択してください")
	}

	imageData, uriMIME, err := service.DecodeImagePayload(req.Image)
	if err != nil {
		return nil, "", fmt.Errorf("画像データが不正です: %w", err)
	}
	if req.MIMEType != "" {
		return imageData, req.MIMEType, nil
	}
	return imageData, uriMIME, nil
}

// session Cookieのセッションを取得。なければ作成してCookieを設定する
func (h *PlanetHandler) session(w http.ResponseWriter, r *http.Request) *usecase.WorkflowUseCase {
	var id string
	if c, err := r.Cookie(SessionCookieName); err == nil {
		id = c.Value
	}

	wf, created := h.sessions.Get(id)
	if created {
		log.Debug().Str("session", wf.ID()).Msg("session started")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    wf.ID(),
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return wf
}

func (h *PlanetHandler) lookupSession(r *http.Request) (*usecase.WorkflowUseCase, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, false
	}
	return h.sessions.Lookup(c.Value)
}

// statusForState 解析後の状態に対応するHTTPステータス
func statusForState(s domain.WorkflowState) int {
	if s.Phase != domain.PhaseFailed {
		return http.StatusOK
	}
	if s.ErrorKind == domain.ErrorKindConfiguration {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// toStateResponse 状態をレスポンス形式に変換
func toStateResponse(s domain.WorkflowState) StateResponse {
	resp := StateResponse{
		Success:   s.Phase != domain.PhaseFailed,
		Phase:     s.Phase.String(),
		IsLoading: s.IsLoading(),
		Result:    s.Result,
		Error:     s.Error,
		ErrorKind: string(s.ErrorKind),
	}
	if s.ImagePreview != nil {
		resp.ImagePreview = &PreviewResponse{
			URL:      s.ImagePreview.URL,
			MIMEType: s.ImagePreview.MIMEType,
		}
	}
	return resp
}

// sendState 状態を送信。message があればエラーとして上書きする
func (h *PlanetHandler) sendState(w http.ResponseWriter, s domain.WorkflowState, statusCode int, message string) {
	resp := toStateResponse(s)
	if message != "" {
		resp.Success = false
		resp.Error = message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// sendError エラーレスポンスを送信
func (h *PlanetHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := ErrorResponse{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
