package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"astro-analyze-app/internal/modules/planet/domain"
)

// msgPersistFailed 保存失敗時のユーザー向けメッセージ
const msgPersistFailed = "解析結果をデータベースに保存できませんでした"

// PersistenceUseCase 解析結果の保存のユースケース
type PersistenceUseCase struct {
	repo    domain.PlanetAnalysisRepository
	timeout time.Duration
	tasks   errgroup.Group
}

// NewPersistenceUseCase 新しいPersistenceUseCaseを作成
//
// repo が nil の場合、保存は無効（何もせず nil を返す）。
func NewPersistenceUseCase(repo domain.PlanetAnalysisRepository, timeout time.Duration) *PersistenceUseCase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PersistenceUseCase{repo: repo, timeout: timeout}
}

// Enabled 保存先が設定されているか
func (uc *PersistenceUseCase) Enabled() bool {
	return uc.repo != nil
}

// Persist 解析結果を保存
func (uc *PersistenceUseCase) Persist(ctx context.Context, analysis domain.PlanetAnalysis) (*domain.StoredRecord, error) {
	if uc.repo == nil {
		log.Warn().Msg("skipping database save: storage is not configured")
		return nil, nil
	}

	record, err := uc.repo.Insert(ctx, analysis.ToRow())
	if err != nil {
		return nil, &domain.PersistenceError{Message: msgPersistFailed, Err: err}
	}
	return record, nil
}

// PersistAsync 解析結果の保存をバックグラウンドで開始
//
// 呼び出し元は結果を待たない。失敗はログに出すだけで呼び出し元には返らない。
func (uc *PersistenceUseCase) PersistAsync(analysis domain.PlanetAnalysis) {
	uc.tasks.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), uc.timeout)
		defer cancel()

		record, err := uc.Persist(ctx, analysis)
		if err != nil {
			log.Error().Err(err).Str("planet", analysis.PlanetName).Msg("background save failed")
			return err
		}
		if record != nil {
			log.Info().Str("id", record.ID).Str("planet", analysis.PlanetName).Msg("analysis saved")
		}
		return nil
	})
}

// Wait 実行中の保存が終わるまで待つ。最初に失敗した保存のエラーを返す
func (uc *PersistenceUseCase) Wait() error {
	return uc.tasks.Wait()
}

// Close 保存先を閉じる
func (uc *PersistenceUseCase) Close() error {
	if uc.repo == nil {
		return nil
	}
	return uc.repo.Close()
}
