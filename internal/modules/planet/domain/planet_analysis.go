package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MinPercentage パーセンテージ系フィールドの下限
	MinPercentage = 0
	// MaxPercentage パーセンテージ系フィールドの上限
	MaxPercentage = 100
)

// PlanetAnalysis 惑星画像解析結果のエンティティ
//
// 6つのフィールドはすべて必須で、NewPlanetAnalysis を通してのみ生成する。
// 値型として扱い、生成後に変更しない。
type PlanetAnalysis struct {
	PlanetName                string `json:"planetName"`
	IsSolarSystem             bool   `json:"isSolarSystem"`
	EarthSimilarityPercentage int    `json:"earthSimilarityPercentage"`
	HabitabilityScore         int    `json:"habitabilityScore"`
	HabitabilityAnalysis      string `json:"habitabilityAnalysis"`
	CompositionComparison     string `json:"compositionComparison"`
}

// NewPlanetAnalysis 検証済みのPlanetAnalysisを作成
func NewPlanetAnalysis(
	planetName string,
	isSolarSystem bool,
	earthSimilarityPercentage int,
	habitabilityScore int,
	habitabilityAnalysis string,
	compositionComparison string,
) (PlanetAnalysis, error) {
	a := PlanetAnalysis{
		PlanetName:                planetName,
		IsSolarSystem:             isSolarSystem,
		EarthSimilarityPercentage: earthSimilarityPercentage,
		HabitabilityScore:         habitabilityScore,
		HabitabilityAnalysis:      habitabilityAnalysis,
		CompositionComparison:     compositionComparison,
	}
	if err := a.Validate(); err != nil {
		return PlanetAnalysis{}, err
	}
	return a, nil
}

// Validate フィールドの制約を検証
func (a PlanetAnalysis) Validate() error {
	if strings.TrimSpace(a.PlanetName) == "" {
		return errors.New("planetName is empty")
	}
	if err := validatePercentage("earthSimilarityPercentage", a.EarthSimilarityPercentage); err != nil {
		return err
	}
	if err := validatePercentage("habitabilityScore", a.HabitabilityScore); err != nil {
		return err
	}
	if strings.TrimSpace(a.HabitabilityAnalysis) == "" {
		return errors.New("habitabilityAnalysis is empty")
	}
	if strings.TrimSpace(a.CompositionComparison) == "" {
		return errors.New("compositionComparison is empty")
	}
	return nil
}

func validatePercentage(field string, v int) error {
	if v < MinPercentage || v > MaxPercentage {
		return fmt.Errorf("%s out of range [%d,%d]: %d", field, MinPercentage, MaxPercentage, v)
	}
	return nil
}

// ToRow ストレージ行の形式に変換
func (a PlanetAnalysis) ToRow() PlanetAnalysisRow {
	return PlanetAnalysisRow{
		PlanetName:                a.PlanetName,
		IsSolarSystem:             a.IsSolarSystem,
		EarthSimilarityPercentage: a.EarthSimilarityPercentage,
		HabitabilityScore:         a.HabitabilityScore,
		HabitabilityAnalysis:      a.HabitabilityAnalysis,
		CompositionComparison:     a.CompositionComparison,
	}
}

// PlanetAnalysisRow planet_analyses テーブルの1行（snake_caseカラム）
type PlanetAnalysisRow struct {
	PlanetName                string `json:"planet_name"`
	IsSolarSystem             bool   `json:"is_solar_system"`
	EarthSimilarityPercentage int    `json:"earth_similarity_percentage"`
	HabitabilityScore         int    `json:"habitability_score"`
	HabitabilityAnalysis      string `json:"habitability_analysis"`
	CompositionComparison     string `json:"composition_comparison"`
}
