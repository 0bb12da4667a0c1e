package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"astro-analyze-app/internal/config"
	"astro-analyze-app/internal/modules/planet/domain"
	"astro-analyze-app/internal/modules/shared/domain/service"
)

const (
	// msgMissingAPIKey APIキー未設定時のユーザー向けメッセージ
	msgMissingAPIKey = "APIキーが見つかりません。環境変数 GEMINI_API_KEY の設定を確認してください"

	// msgAnalysisFailed 解析失敗時のユーザー向けメッセージ
	msgAnalysisFailed = "画像の解析中にエラーが発生しました。APIキーを確認するか、もう一度お試しください"

	// analysisPrompt 惑星画像解析の指示
	analysisPrompt = `Analyze this image of a planet or other celestial body and identify it.
If it is a fictional or unknown planet, estimate its properties from its visual appearance.
Return the output strictly as JSON that conforms to the response schema.
Write habitabilityAnalysis and compositionComparison in %s.`
)

var errEmptyResponse = errors.New("no response from AI")

// GeminiRepository Gemini APIのリポジトリ実装
type GeminiRepository struct {
	client   *genai.Client
	model    string
	language string
	timeout  time.Duration
}

// NewGeminiRepository 新しいGeminiRepositoryを作成
//
// APIキーが空の場合はクライアントを作らず、Analyze が ConfigurationError を返す。
func NewGeminiRepository(ctx context.Context, cfg *config.GeminiConfig) (*GeminiRepository, error) {
	r := &GeminiRepository{
		model:    cfg.Model,
		language: cfg.ResponseLanguage,
		timeout:  cfg.Timeout,
	}
	if r.model == "" {
		r.model = "gemini-2.5-flash"
	}
	if r.language == "" {
		r.language = "Japanese"
	}

	if cfg.APIKey == "" {
		return r, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	// テスト用にエンドポイントを差し替え可能に
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	r.client = client

	return r, nil
}

// Analyze 惑星画像を解析
func (r *GeminiRepository) Analyze(ctx context.Context, imageData []byte, mimeType string) (domain.PlanetAnalysis, error) {
	// ネットワーク呼び出しの前に認証情報を確認
	if err := r.CheckCredentials(); err != nil {
		return domain.PlanetAnalysis{}, err
	}

	if len(imageData) == 0 {
		return domain.PlanetAnalysis{}, &domain.AnalysisError{
			Message: msgAnalysisFailed,
			Err:     errors.New("image data is empty"),
		}
	}
	if !service.IsAllowedMIMEType(mimeType) {
		return domain.PlanetAnalysis{}, &domain.AnalysisError{
			Message: msgAnalysisFailed,
			Err:     fmt.Errorf("unsupported mime type: %q", mimeType),
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// 画像バイト列はSDKがbase64でエンコードして送信する
	parts := []*genai.Part{
		genai.NewPartFromBytes(imageData, mimeType),
		genai.NewPartFromText(fmt.Sprintf(analysisPrompt, r.language)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := r.client.Models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   PlanetAnalysisSchema(),
	})
	if err != nil {
		log.Error().Err(err).Str("model", r.model).Msg("gemini analysis request failed")
		return domain.PlanetAnalysis{}, &domain.AnalysisError{
			Message: msgAnalysisFailed,
			Err:     fmt.Errorf("failed to generate content: %w", err),
		}
	}

	text := result.Text()
	if text == "" {
		return domain.PlanetAnalysis{}, &domain.AnalysisError{
			Message: msgAnalysisFailed,
			Err:     errEmptyResponse,
		}
	}

	analysis, err := ParsePlanetAnalysis(text)
	if err != nil {
		log.Error().Err(err).Str("model", r.model).Msg("gemini response does not match schema")
		return domain.PlanetAnalysis{}, &domain.AnalysisError{
			Message: msgAnalysisFailed,
			Err:     err,
		}
	}

	if result.UsageMetadata != nil {
		log.Debug().
			Int32("input_tokens", result.UsageMetadata.PromptTokenCount).
			Int32("output_tokens", result.UsageMetadata.CandidatesTokenCount).
			Str("planet", analysis.PlanetName).
			Msg("gemini analysis completed")
	}

	return analysis, nil
}

// CheckCredentials APIキーが設定されているか確認
func (r *GeminiRepository) CheckCredentials() error {
	if r.client == nil {
		return &domain.ConfigurationError{
			Message: msgMissingAPIKey,
			Err:     errors.New("gemini api key is not configured"),
		}
	}
	return nil
}

// ProviderName プロバイダー名を返す
func (r *GeminiRepository) ProviderName() string {
	return "Google Gemini (" + r.model + ")"
}

// planetAnalysisWire 応答JSONの形。欠落したフィールドを検出するためポインタで受ける
type planetAnalysisWire struct {
	PlanetName                *string `json:"planetName"`
	IsSolarSystem             *bool   `json:"isSolarSystem"`
	EarthSimilarityPercentage *int    `json:"earthSimilarityPercentage"`
	HabitabilityScore         *int    `json:"habitabilityScore"`
	HabitabilityAnalysis      *string `json:"habitabilityAnalysis"`
	CompositionComparison     *string `json:"compositionComparison"`
}

// ParsePlanetAnalysis AIの応答テキストを厳密にパース
//
// 6つのフィールドがすべて揃った単一のJSONオブジェクトのみ受け付ける。
func ParsePlanetAnalysis(text string) (domain.PlanetAnalysis, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()

	var w planetAnalysisWire
	if err := dec.Decode(&w); err != nil {
		return domain.PlanetAnalysis{}, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return domain.PlanetAnalysis{}, errors.New("unexpected data after response JSON")
	}

	var missing []string
	if w.PlanetName == nil {
		missing = append(missing, "planetName")
	}
	if w.IsSolarSystem == nil {
		missing = append(missing, "isSolarSystem")
	}
	if w.EarthSimilarityPercentage == nil {
		missing = append(missing, "earthSimilarityPercentage")
	}
	if w.HabitabilityScore == nil {
		missing = append(missing, "habitabilityScore")
	}
	if w.HabitabilityAnalysis == nil {
		missing = append(missing, "habitabilityAnalysis")
	}
	if w.CompositionComparison == nil {
		missing = append(missing, "compositionComparison")
	}
	if len(missing) > 0 {
		return domain.PlanetAnalysis{}, fmt.Errorf("response is missing required fields: %v", missing)
	}

	analysis, err := domain.NewPlanetAnalysis(
		*w.PlanetName,
		*w.IsSolarSystem,
		*w.EarthSimilarityPercentage,
		*w.HabitabilityScore,
		*w.HabitabilityAnalysis,
		*w.CompositionComparison,
	)
	if err != nil {
		return domain.PlanetAnalysis{}, fmt.Errorf("response violates schema: %w", err)
	}
	return analysis, nil
}
