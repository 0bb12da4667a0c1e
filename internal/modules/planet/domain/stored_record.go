package domain

import "time"

// StoredRecord 永続化された解析結果
type StoredRecord struct {
	ID        string            `json:"id"`
	Row       PlanetAnalysisRow `json:"row"`
	CreatedAt time.Time         `json:"created_at"`
}
