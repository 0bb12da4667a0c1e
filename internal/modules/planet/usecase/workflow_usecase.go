package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"astro-analyze-app/internal/modules/planet/domain"
)

const (
	msgConfigurationDefault = "APIキーが設定されていません。設定を確認してください"
	msgAnalysisDefault      = "画像の解析中にエラーが発生しました。もう一度お試しください"
	msgUnknown              = "予期しないエラーが発生しました。もう一度お試しください"
)

// Analyzer 画像解析の呼び出し先
type Analyzer interface {
	Analyze(ctx context.Context, imageData []byte, mimeType string) (domain.PlanetAnalysis, error)
}

// Persister 解析結果の非同期保存の呼び出し先
type Persister interface {
	PersistAsync(analysis domain.PlanetAnalysis)
}

// WorkflowUseCase 1セッション分の解析ワークフロー
//
// 状態遷移は mu で直列化し、公開中のスナップショットは state から読む。
type WorkflowUseCase struct {
	id        string
	analyzer  Analyzer
	persister Persister
	previews  domain.PreviewStore

	mu     sync.Mutex
	state  atomic.Pointer[domain.WorkflowState]
	closed bool
}

// NewWorkflowUseCase 新しいWorkflowUseCaseを作成
func NewWorkflowUseCase(id string, analyzer Analyzer, persister Persister, previews domain.PreviewStore) *WorkflowUseCase {
	w := &WorkflowUseCase{
		id:        id,
		analyzer:  analyzer,
		persister: persister,
		previews:  previews,
	}
	w.state.Store(domain.IdleState())
	return w
}

// ID セッションID
func (w *WorkflowUseCase) ID() string {
	return w.id
}

// State 現在のスナップショット
func (w *WorkflowUseCase) State() domain.WorkflowState {
	return *w.state.Load()
}

// Submit 画像を送信して解析し、終了後の状態を返す
//
// 解析中の場合は ErrSubmissionInProgress を返し、状態は変えない。
// 解析の失敗はエラーではなく Failed 状態として返す。
func (w *WorkflowUseCase) Submit(ctx context.Context, imageData []byte, mimeType string) (domain.WorkflowState, error) {
	w.mu.Lock()
	current := w.state.Load()
	if w.closed {
		w.mu.Unlock()
		return *current, domain.ErrInvalidTransition
	}
	if current.IsLoading() {
		w.mu.Unlock()
		return *current, domain.ErrSubmissionInProgress
	}

	// 新しいプレビューを作る前に前回分を解放
	w.releasePreview(current)
	handle := w.previews.Acquire(imageData, mimeType)
	w.publish(domain.LoadingState(handle))
	w.mu.Unlock()

	analysis, err := w.analyzer.Analyze(ctx, imageData, mimeType)

	w.mu.Lock()
	defer w.mu.Unlock()

	loading := w.state.Load()
	var next *domain.WorkflowState
	if err != nil {
		kind, msg := translateError(err)
		log.Warn().Err(err).Str("session", w.id).Str("kind", string(kind)).Msg("analysis failed")
		next = domain.FailedState(loading.ImagePreview, kind, msg)
	} else {
		next = domain.SucceededState(loading.ImagePreview, analysis)
		w.persister.PersistAsync(analysis)
	}

	if w.closed {
		// 解析中にセッションが終了した
		w.releasePreview(loading)
		w.publish(domain.IdleState())
		// 解放済みのプレビューは返さない
		detached := *next
		detached.ImagePreview = nil
		return detached, nil
	}

	w.publish(next)
	return *next, nil
}

// Reset 結果を破棄して Idle に戻る
func (w *WorkflowUseCase) Reset() (domain.WorkflowState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := w.state.Load()
	switch current.Phase {
	case domain.PhaseIdle:
		return *current, nil
	case domain.PhaseLoading:
		return *current, domain.ErrInvalidTransition
	}

	w.releasePreview(current)
	idle := domain.IdleState()
	w.publish(idle)
	return *idle, nil
}

// Close セッション終了。保持中のプレビューを解放する
//
// 解析中の場合、プレビューは解析の終了時に解放される。
func (w *WorkflowUseCase) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true

	current := w.state.Load()
	if current.IsLoading() {
		return
	}
	w.releasePreview(current)
	w.publish(domain.IdleState())
}

func (w *WorkflowUseCase) publish(s *domain.WorkflowState) {
	w.state.Store(s)
	log.Debug().Str("session", w.id).Stringer("phase", s.Phase).Msg("workflow state changed")
}

func (w *WorkflowUseCase) releasePreview(s *domain.WorkflowState) {
	if s.ImagePreview == nil {
		return
	}
	if !w.previews.Release(s.ImagePreview.ID) {
		log.Debug().Str("session", w.id).Str("preview", s.ImagePreview.ID).Msg("preview already evicted")
	}
}

// translateError エラーをユーザー向けメッセージに変換
func translateError(err error) (domain.ErrorKind, string) {
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		return domain.ErrorKindConfiguration, messageOr(cfgErr.UserMessage(), msgConfigurationDefault)
	}

	var analysisErr *domain.AnalysisError
	if errors.As(err, &analysisErr) {
		return domain.ErrorKindAnalysis, messageOr(analysisErr.UserMessage(), msgAnalysisDefault)
	}

	return domain.ErrorKindAnalysis, msgUnknown
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
