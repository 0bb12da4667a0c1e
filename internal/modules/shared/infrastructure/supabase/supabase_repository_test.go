package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astro-analyze-app/internal/config"
	"astro-analyze-app/internal/modules/planet/domain"
)

func marsRow() domain.PlanetAnalysisRow {
	return domain.PlanetAnalysisRow{
		PlanetName:                "Mars",
		IsSolarSystem:             true,
		EarthSimilarityPercentage: 42,
		HabitabilityScore:         15,
		HabitabilityAnalysis:      "大気が薄い",
		CompositionComparison:     "酸化鉄の地表",
	}
}

func TestSupabaseRepository_Insert(t *testing.T) {
	var (
		gotPath    string
		gotBody    []map[string]interface{}
		gotHeaders http.Header
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"5b0c","created_at":"2026-10-17T05:00:00Z","planet_name":"Mars","is_solar_system":true,"earth_similarity_percentage":42,"habitability_score":15,"habitability_analysis":"大気が薄い","composition_comparison":"酸化鉄の地表"}]`))
	}))
	defer server.Close()

	repo := NewSupabaseRepository(&config.StorageConfig{
		URL:     server.URL + "/",
		APIKey:  "anon-key",
		Timeout: 5 * time.Second,
	})

	record, err := repo.Insert(context.Background(), marsRow())
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/planet_analyses", gotPath)
	assert.Equal(t, "anon-key", gotHeaders.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", gotHeaders.Get("Authorization"))
	assert.Equal(t, "return=representation", gotHeaders.Get("Prefer"))

	// snake_caseのカラム名で送信されていることを確認
	require.Len(t, gotBody, 1)
	assert.Equal(t, map[string]interface{}{
		"planet_name":                 "Mars",
		"is_solar_system":             true,
		"earth_similarity_percentage": float64(42),
		"habitability_score":          float64(15),
		"habitability_analysis":       "大気が薄い",
		"composition_comparison":      "酸化鉄の地表",
	}, gotBody[0])

	assert.Equal(t, "5b0c", record.ID)
	assert.Equal(t, marsRow(), record.Row)
	assert.Equal(t, 2026, record.CreatedAt.Year())
}

func TestSupabaseRepository_Insert_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "異常系: 認証エラー", status: http.StatusUnauthorized, body: `{"message":"Invalid API key"}`},
		{name: "異常系: 制約違反", status: http.StatusBadRequest, body: `{"code":"23502","message":"null value"}`},
		{name: "異常系: サーバーエラー", status: http.StatusInternalServerError, body: `oops`},
		{name: "異常系: 空の結果", status: http.StatusCreated, body: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			repo := NewSupabaseRepository(&config.StorageConfig{URL: server.URL, Table: "planet_analyses"})

			record, err := repo.Insert(context.Background(), marsRow())
			assert.Error(t, err)
			assert.Nil(t, record)
		})
	}
}

func TestSupabaseRepository_Insert_Unreachable(t *testing.T) {
	repo := NewSupabaseRepository(&config.StorageConfig{URL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := repo.Insert(context.Background(), marsRow())
	assert.Error(t, err)
	assert.NoError(t, repo.Close())
}
