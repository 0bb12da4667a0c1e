package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"astro-analyze-app/internal/config"
	planetDomain "astro-analyze-app/internal/modules/planet/domain"
	planetHandler "astro-analyze-app/internal/modules/planet/presentation/handler"
	planetUsecase "astro-analyze-app/internal/modules/planet/usecase"
	sharedAI "astro-analyze-app/internal/modules/shared/infrastructure/ai"
	sharedCache "astro-analyze-app/internal/modules/shared/infrastructure/cache"
	sharedDB "astro-analyze-app/internal/modules/shared/infrastructure/database"
	sharedPreview "astro-analyze-app/internal/modules/shared/infrastructure/preview"
	sharedSupabase "astro-analyze-app/internal/modules/shared/infrastructure/supabase"
	"astro-analyze-app/internal/presentation/http/handler"
)

const (
	driverSupabase = "supabase"
	statusDisabled = "disabled"
)

// Container DIコンテナ
type Container struct {
	// Shared Infrastructure
	aiRepo       *sharedAI.GeminiRepository
	cacheRepo    *sharedCache.RedisRepository
	storageRepo  planetDomain.PlanetAnalysisRepository
	previewStore *sharedPreview.LRUStore

	// Planet Module
	analysisUseCase    *planetUsecase.AnalysisUseCase
	persistenceUseCase *planetUsecase.PersistenceUseCase
	sessions           *planetUsecase.SessionRegistry
	planetHandler      *planetHandler.PlanetHandler

	healthHandler *handler.HealthHandler
}

// NewContainer 新しいContainerを作成
//
// Redis と保存先は任意。接続できない場合は無効として起動を続ける。
func NewContainer(cfg *config.Config) (*Container, error) {
	container := &Container{}
	components := map[string]string{}

	// Shared Infrastructure: AI Repository
	aiRepo, err := sharedAI.NewGeminiRepository(context.Background(), &cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ai repository: %w", err)
	}
	container.aiRepo = aiRepo
	components["ai"] = aiRepo.ProviderName()

	// Shared Infrastructure: Cache Repository
	var cacheRepo planetDomain.CacheRepository
	components["cache"] = statusDisabled
	if cfg.Redis.Host != "" {
		redisRepo, err := sharedCache.NewRedisRepository(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, analysis cache disabled")
		} else {
			container.cacheRepo = redisRepo
			cacheRepo = redisRepo
			components["cache"] = "redis"
		}
	}

	// Shared Infrastructure: Storage Repository
	storageRepo, err := newStorageRepository(&cfg.Storage)
	if err != nil {
		container.closeInfrastructure()
		return nil, fmt.Errorf("failed to initialize storage repository: %w", err)
	}
	container.storageRepo = storageRepo
	components["storage"] = statusDisabled
	if storageRepo != nil {
		components["storage"] = storageDriver(&cfg.Storage)
	}

	// Shared Infrastructure: Preview Store
	previewStore, err := sharedPreview.NewLRUStore(cfg.Session.PreviewCapacity)
	if err != nil {
		container.closeInfrastructure()
		return nil, fmt.Errorf("failed to initialize preview store: %w", err)
	}
	container.previewStore = previewStore

	// Planet Module: UseCase
	container.analysisUseCase = planetUsecase.NewAnalysisUseCase(aiRepo, cacheRepo, cfg.Redis.TTL)
	container.persistenceUseCase = planetUsecase.NewPersistenceUseCase(storageRepo, cfg.Storage.Timeout)
	container.sessions = planetUsecase.NewSessionRegistry(
		cfg.Session.MaxSessions,
		cfg.Session.TTL,
		func(id string) *planetUsecase.WorkflowUseCase {
			return planetUsecase.NewWorkflowUseCase(id, container.analysisUseCase, container.persistenceUseCase, previewStore)
		},
	)

	// Planet Module: Handler
	container.planetHandler = planetHandler.NewPlanetHandler(container.sessions, previewStore, cfg.Session.TTL)

	container.healthHandler = handler.NewHealthHandler(components)

	return container, nil
}

// newStorageRepository 設定されたドライバーの保存先を作成。URL が空の場合は nil
func newStorageRepository(cfg *config.StorageConfig) (planetDomain.PlanetAnalysisRepository, error) {
	if !cfg.Enabled() {
		log.Warn().Msg("storage url is not set, analysis results will not be saved")
		return nil, nil
	}

	switch storageDriver(cfg) {
	case driverSupabase:
		return sharedSupabase.NewSupabaseRepository(cfg), nil
	case sharedDB.DriverMySQL, sharedDB.DriverPostgres:
		repo, err := sharedDB.NewBunPlanetAnalysisRepository(cfg)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

func storageDriver(cfg *config.StorageConfig) string {
	if cfg.Driver == "" {
		return driverSupabase
	}
	return cfg.Driver
}

// AnalysisUseCase 解析ユースケースを取得
func (c *Container) AnalysisUseCase() *planetUsecase.AnalysisUseCase {
	return c.analysisUseCase
}

// PersistenceUseCase 保存ユースケースを取得
func (c *Container) PersistenceUseCase() *planetUsecase.PersistenceUseCase {
	return c.persistenceUseCase
}

// Sessions セッションレジストリを取得
func (c *Container) Sessions() *planetUsecase.SessionRegistry {
	return c.sessions
}

// PlanetHandler 惑星解析ハンドラーを取得
func (c *Container) PlanetHandler() *planetHandler.PlanetHandler {
	return c.planetHandler
}

// HealthHandler ヘルスチェックハンドラーを取得
func (c *Container) HealthHandler() *handler.HealthHandler {
	return c.healthHandler
}

// Close リソースをクローズ
//
// セッションを終了し、実行中の保存を待ってから接続を閉じる。
func (c *Container) Close() error {
	if c.sessions != nil {
		c.sessions.Close()
	}

	if c.persistenceUseCase != nil {
		if err := c.persistenceUseCase.Wait(); err != nil {
			log.Warn().Err(err).Msg("some analysis results were not saved")
		}
	}

	return c.closeInfrastructure()
}

func (c *Container) closeInfrastructure() error {
	var errs []error

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache repository: %w", err))
		}
	}

	if c.storageRepo != nil {
		if err := c.storageRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage repository: %w", err))
		}
	}

	return errors.Join(errs...)
}
