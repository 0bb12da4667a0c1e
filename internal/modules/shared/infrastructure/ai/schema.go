package ai

import (
	"google.golang.org/genai"

	"astro-analyze-app/internal/modules/planet/domain"
)

// planetAnalysisFields 応答スキーマのフィールド順
var planetAnalysisFields = []string{
	"planetName",
	"isSolarSystem",
	"earthSimilarityPercentage",
	"habitabilityScore",
	"habitabilityAnalysis",
	"compositionComparison",
}

// PlanetAnalysisSchema 構造化出力のスキーマ
func PlanetAnalysisSchema() *genai.Schema {
	minPct := float64(domain.MinPercentage)
	maxPct := float64(domain.MaxPercentage)

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"planetName": {
				Type:        genai.TypeString,
				Description: "Name of the planet or celestial body identified.",
			},
			"isSolarSystem": {
				Type:        genai.TypeBoolean,
				Description: "True if it belongs to our Solar System, false otherwise.",
			},
			"earthSimilarityPercentage": {
				Type:        genai.TypeInteger,
				Description: "Percentage (0-100) of similarity to Earth in composition and atmosphere.",
				Minimum:     &minPct,
				Maximum:     &maxPct,
			},
			"habitabilityScore": {
				Type:        genai.TypeInteger,
				Description: "Score (0-100) of how likely humans could survive there.",
				Minimum:     &minPct,
				Maximum:     &maxPct,
			},
			"habitabilityAnalysis": {
				Type:        genai.TypeString,
				Description: "A short analysis of human habitability.",
			},
			"compositionComparison": {
				Type:        genai.TypeString,
				Description: "A short comparison of its composition against Earth.",
			},
		},
		Required:         planetAnalysisFields,
		PropertyOrdering: planetAnalysisFields,
	}
}
