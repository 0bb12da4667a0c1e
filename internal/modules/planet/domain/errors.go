package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmissionInProgress 解析中に新しい画像が送信された
	ErrSubmissionInProgress = errors.New("analysis already in progress")

	// ErrInvalidTransition 現在のフェーズでは許可されない遷移
	ErrInvalidTransition = errors.New("invalid workflow transition")
)

// ErrorKind ユーザーに提示するエラーの種別
type ErrorKind string

const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindConfiguration ErrorKind = "configuration"
	ErrorKindAnalysis      ErrorKind = "analysis"
)

// ConfigurationError 必須の認証情報が設定されていない
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return "configuration error"
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UserMessage ユーザー向けメッセージ
func (e *ConfigurationError) UserMessage() string { return e.Message }

// AnalysisError AIサービスの呼び出しまたは応答の解析に失敗
type AnalysisError struct {
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis error: %v", e.Err)
	}
	return "analysis error"
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// UserMessage ユーザー向けメッセージ
func (e *AnalysisError) UserMessage() string { return e.Message }

// PersistenceError ストレージへの保存に失敗
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("persistence error: %v", e.Err)
	}
	return "persistence error"
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UserMessage ユーザー向けメッセージ
func (e *PersistenceError) UserMessage() string { return e.Message }
