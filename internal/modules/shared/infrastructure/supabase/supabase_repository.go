package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"astro-analyze-app/internal/config"
	"astro-analyze-app/internal/modules/planet/domain"
)

// insertedRow PostgREST が返す挿入済みの行
type insertedRow struct {
	ID        any       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	domain.PlanetAnalysisRow
}

// SupabaseRepository Supabase (PostgREST) 実装
type SupabaseRepository struct {
	client *resty.Client
	table  string
}

// NewSupabaseRepository 新しいSupabaseRepositoryを作成
func NewSupabaseRepository(cfg *config.StorageConfig) *SupabaseRepository {
	table := cfg.Table
	if table == "" {
		table = "planet_analyses"
	}

	client := resty.New().
		SetDebug(false).
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetHeaders(map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		})
	if cfg.APIKey != "" {
		client.SetHeader("apikey", cfg.APIKey).SetAuthToken(cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &SupabaseRepository{client: client, table: table}
}

// Insert 解析結果を1行挿入し、保存された行を返す
func (r *SupabaseRepository) Insert(ctx context.Context, row domain.PlanetAnalysisRow) (*domain.StoredRecord, error) {
	var inserted []insertedRow

	_, err := handleError(r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetPathParam("table", r.table).
		SetBody([]domain.PlanetAnalysisRow{row}).
		SetResult(&inserted).
		Post("/rest/v1/{table}"))
	if err != nil {
		return nil, fmt.Errorf("failed to insert planet analysis: %w", err)
	}

	if len(inserted) == 0 {
		return nil, errors.New("insert returned no rows")
	}

	first := inserted[0]
	return &domain.StoredRecord{
		ID:        fmt.Sprint(first.ID),
		Row:       first.PlanetAnalysisRow,
		CreatedAt: first.CreatedAt,
	}, nil
}

// Close 何もしない（HTTPクライアントは接続を保持しない）
func (r *SupabaseRepository) Close() error {
	return nil
}

// handleError 4xx/5xx をエラーとして扱う。resty は失敗レスポンスでも err を返さないため
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d): %s",
			res.Request.Method, res.Request.URL, res.StatusCode(), strings.TrimSpace(res.String()))
	}
	return res, nil
}
