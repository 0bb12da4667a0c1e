package domain

import (
	"context"
	"time"
)

// AnalysisRepository 画像解析AIのリポジトリインターフェース
type AnalysisRepository interface {
	// Analyze 画像を解析して構造化された結果を返す
	Analyze(ctx context.Context, imageData []byte, mimeType string) (PlanetAnalysis, error)

	// CheckCredentials 認証情報がなければ ConfigurationError を返す
	CheckCredentials() error

	// ProviderName プロバイダー名を返す
	ProviderName() string
}

// PlanetAnalysisRepository 解析結果の保存先リポジトリインターフェース
type PlanetAnalysisRepository interface {
	Insert(ctx context.Context, row PlanetAnalysisRow) (*StoredRecord, error)
	Close() error
}

// CacheRepository キャッシュリポジトリのインターフェース
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// PreviewStore プレビュー画像の保持先
type PreviewStore interface {
	// Acquire 画像を登録して新しいハンドルを返す
	Acquire(imageData []byte, mimeType string) PreviewHandle
	// Release ハンドルを解放する。既に解放済みの場合はfalse
	Release(id string) bool
	// Get 保持中の画像を取得
	Get(id string) ([]byte, string, bool)
}
