package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"astro-analyze-app/internal/modules/planet/domain"
)

// AnalysisUseCase 惑星画像解析のユースケース
type AnalysisUseCase struct {
	aiRepo    domain.AnalysisRepository
	cacheRepo domain.CacheRepository
	cacheTTL  time.Duration
}

// NewAnalysisUseCase 新しいAnalysisUseCaseを作成
//
// cacheRepo が nil の場合はキャッシュを使わない。
func NewAnalysisUseCase(aiRepo domain.AnalysisRepository, cacheRepo domain.CacheRepository, cacheTTL time.Duration) *AnalysisUseCase {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &AnalysisUseCase{
		aiRepo:    aiRepo,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
	}
}

// Analyze 画像を解析。同じ画像の検証済み結果がキャッシュにあればそれを返す
func (uc *AnalysisUseCase) Analyze(ctx context.Context, imageData []byte, mimeType string) (domain.PlanetAnalysis, error) {
	// キャッシュより先に認証情報を確認
	if err := uc.aiRepo.CheckCredentials(); err != nil {
		return domain.PlanetAnalysis{}, err
	}

	cacheKey := uc.generateCacheKey(imageData, mimeType)

	// キャッシュチェック
	if cached, ok := uc.lookup(ctx, cacheKey); ok {
		log.Debug().Str("planet", cached.PlanetName).Msg("analysis cache hit")
		return cached, nil
	}

	analysis, err := uc.aiRepo.Analyze(ctx, imageData, mimeType)
	if err != nil {
		return domain.PlanetAnalysis{}, err
	}

	// キャッシュ保存の失敗は無視
	if uc.cacheRepo != nil {
		if data, err := json.Marshal(analysis); err == nil {
			if err := uc.cacheRepo.Set(ctx, cacheKey, data, uc.cacheTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache analysis")
			}
		}
	}

	return analysis, nil
}

// GetProviderName プロバイダー名を取得
func (uc *AnalysisUseCase) GetProviderName() string {
	return uc.aiRepo.ProviderName()
}

func (uc *AnalysisUseCase) lookup(ctx context.Context, key string) (domain.PlanetAnalysis, bool) {
	if uc.cacheRepo == nil {
		return domain.PlanetAnalysis{}, false
	}
	data, err := uc.cacheRepo.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return domain.PlanetAnalysis{}, false
	}

	var a domain.PlanetAnalysis
	if err := json.Unmarshal(data, &a); err != nil || a.Validate() != nil {
		_ = uc.cacheRepo.Delete(ctx, key)
		return domain.PlanetAnalysis{}, false
	}
	return a, true
}

// generateCacheKey キャッシュキーを生成
func (uc *AnalysisUseCase) generateCacheKey(imageData []byte, mimeType string) string {
	h := sha256.New()
	h.Write([]byte(mimeType))
	h.Write([]byte{'|'})
	h.Write(imageData)
	return fmt.Sprintf("planet:analysis:%s", hex.EncodeToString(h.Sum(nil)))
}
