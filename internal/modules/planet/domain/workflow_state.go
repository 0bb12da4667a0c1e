package domain

import (
	"errors"
	"fmt"
)

// Phase ワークフローのフェーズ
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

// String フェーズ名を返す
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PreviewHandle プレビュー画像リソースのハンドル
type PreviewHandle struct {
	ID       string
	MIMEType string
	URL      string
}

// WorkflowState セッションごとのUI状態のスナップショット
//
// 遷移のたびに新しいスナップショットを作成する。公開後のスナップショットは変更しない。
type WorkflowState struct {
	Phase        Phase
	Result       *PlanetAnalysis
	Error        string
	ErrorKind    ErrorKind
	ImagePreview *PreviewHandle
}

// IdleState 初期状態
func IdleState() *WorkflowState {
	return &WorkflowState{Phase: PhaseIdle}
}

// LoadingState 解析中の状態
func LoadingState(preview PreviewHandle) *WorkflowState {
	return &WorkflowState{
		Phase:        PhaseLoading,
		ImagePreview: &preview,
	}
}

// SucceededState 解析成功の状態
func SucceededState(preview *PreviewHandle, result PlanetAnalysis) *WorkflowState {
	return &WorkflowState{
		Phase:        PhaseSucceeded,
		Result:       &result,
		ImagePreview: copyPreview(preview),
	}
}

// FailedState 解析失敗の状態
func FailedState(preview *PreviewHandle, kind ErrorKind, message string) *WorkflowState {
	return &WorkflowState{
		Phase:        PhaseFailed,
		Error:        message,
		ErrorKind:    kind,
		ImagePreview: copyPreview(preview),
	}
}

func copyPreview(p *PreviewHandle) *PreviewHandle {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// IsLoading 解析中かどうか
func (s *WorkflowState) IsLoading() bool {
	return s.Phase == PhaseLoading
}

// Validate スナップショットの不変条件を検証
func (s *WorkflowState) Validate() error {
	if s.Result != nil && s.Error != "" {
		return errors.New("result and error are both set")
	}
	if s.IsLoading() && (s.Result != nil || s.Error != "") {
		return errors.New("loading state carries a result or error")
	}
	switch s.Phase {
	case PhaseSucceeded:
		if s.Result == nil {
			return errors.New("succeeded state without result")
		}
	case PhaseFailed:
		if s.Error == "" {
			return errors.New("failed state without message")
		}
	case PhaseIdle:
		if s.Result != nil || s.Error != "" || s.ImagePreview != nil {
			return errors.New("idle state is not empty")
		}
	}
	return nil
}
