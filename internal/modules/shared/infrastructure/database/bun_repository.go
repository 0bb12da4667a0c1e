package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"astro-analyze-app/internal/config"
	"astro-analyze-app/internal/modules/planet/domain"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"

	defaultTable = "planet_analyses"
)

// PlanetAnalysis BUNモデル
type PlanetAnalysis struct {
	bun.BaseModel `bun:"table:planet_analyses,alias:pa"`

	ID                        string    `bun:"id,pk,type:varchar(36)"`
	PlanetName                string    `bun:"planet_name,notnull"`
	IsSolarSystem             bool      `bun:"is_solar_system,notnull"`
	EarthSimilarityPercentage int       `bun:"earth_similarity_percentage,notnull"`
	HabitabilityScore         int       `bun:"habitability_score,notnull"`
	HabitabilityAnalysis      string    `bun:"habitability_analysis,notnull,type:text"`
	CompositionComparison     string    `bun:"composition_comparison,notnull,type:text"`
	CreatedAt                 time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// BunPlanetAnalysisRepository BUN実装（MySQL / PostgreSQL）
type BunPlanetAnalysisRepository struct {
	db    *bun.DB
	table string
}

// NewBunPlanetAnalysisRepository 新しいBunPlanetAnalysisRepositoryを作成
//
// 接続確認に失敗しても作成は成功させる。その場合は保存時に PersistenceError となる。
func NewBunPlanetAnalysisRepository(cfg *config.StorageConfig) (*BunPlanetAnalysisRepository, error) {
	db, err := openDB(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, err
	}

	repo := NewBunPlanetAnalysisRepositoryWithDB(db, cfg.Table)

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Warn().Err(err).Str("driver", cfg.Driver).Msg("storage database is not reachable yet")
		return repo, nil
	}

	if cfg.AutoMigrate {
		if err := repo.CreateSchema(ctx); err != nil {
			log.Warn().Err(err).Str("table", repo.table).Msg("failed to create storage table")
		}
	}

	return repo, nil
}

// NewBunPlanetAnalysisRepositoryWithDB DBインスタンスから作成（テスト用）
func NewBunPlanetAnalysisRepositoryWithDB(db *bun.DB, table string) *BunPlanetAnalysisRepository {
	if table == "" {
		table = defaultTable
	}
	return &BunPlanetAnalysisRepository{db: db, table: table}
}

func openDB(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverMySQL:
		sqldb, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return bun.NewDB(sqldb, mysqldialect.New()), nil
	case DriverPostgres:
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", driver)
	}
}

// CreateSchema テーブルがなければ作成
func (r *BunPlanetAnalysisRepository) CreateSchema(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*PlanetAnalysis)(nil)).
		ModelTableExpr("?", bun.Ident(r.table)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}
	return nil
}

// Insert 解析結果を1行保存
func (r *BunPlanetAnalysisRepository) Insert(ctx context.Context, row domain.PlanetAnalysisRow) (*domain.StoredRecord, error) {
	model := toModel(row)

	if _, err := r.db.NewInsert().
		Model(model).
		ModelTableExpr("?", bun.Ident(r.table)).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert planet analysis: %w", err)
	}

	return toRecord(model), nil
}

// Close DB接続を閉じる
func (r *BunPlanetAnalysisRepository) Close() error {
	return r.db.Close()
}

func toModel(row domain.PlanetAnalysisRow) *PlanetAnalysis {
	return &PlanetAnalysis{
		ID:                        uuid.NewString(),
		PlanetName:                row.PlanetName,
		IsSolarSystem:             row.IsSolarSystem,
		EarthSimilarityPercentage: row.EarthSimilarityPercentage,
		HabitabilityScore:         row.HabitabilityScore,
		HabitabilityAnalysis:      row.HabitabilityAnalysis,
		CompositionComparison:     row.CompositionComparison,
		CreatedAt:                 time.Now().UTC().Truncate(time.Second),
	}
}

func toRecord(m *PlanetAnalysis) *domain.StoredRecord {
	return &domain.StoredRecord{
		ID: m.ID,
		Row: domain.PlanetAnalysisRow{
			PlanetName:                m.PlanetName,
			IsSolarSystem:             m.IsSolarSystem,
			EarthSimilarityPercentage: m.EarthSimilarityPercentage,
			HabitabilityScore:         m.HabitabilityScore,
			HabitabilityAnalysis:      m.HabitabilityAnalysis,
			CompositionComparison:     m.CompositionComparison,
		},
		CreatedAt: m.CreatedAt,
	}
}
