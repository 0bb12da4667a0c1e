package preview

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"astro-analyze-app/internal/modules/planet/domain"
)

// URLPrefix プレビュー配信のパス
const URLPrefix = "/previews/"

type blob struct {
	data     []byte
	mimeType string
}

// LRUStore 容量上限つきのプレビュー保持先
//
// 通常はワークフローが Release で解放する。容量を超えた場合は古いものから破棄する。
type LRUStore struct {
	cache *lru.Cache[string, blob]
}

// NewLRUStore 新しいLRUStoreを作成
func NewLRUStore(capacity int) (*LRUStore, error) {
	if capacity <= 0 {
		capacity = 2048
	}
	cache, err := lru.New[string, blob](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: cache}, nil
}

// Acquire 画像を登録して新しいハンドルを返す
func (s *LRUStore) Acquire(imageData []byte, mimeType string) domain.PreviewHandle {
	id := uuid.NewString()
	data := make([]byte, len(imageData))
	copy(data, imageData)

	if evicted := s.cache.Add(id, blob{data: data, mimeType: mimeType}); evicted {
		log.Warn().Int("capacity", s.cache.Len()).Msg("preview store full, evicted oldest preview")
	}

	return domain.PreviewHandle{
		ID:       id,
		MIMEType: mimeType,
		URL:      URLPrefix + id,
	}
}

// Release ハンドルを解放
func (s *LRUStore) Release(id string) bool {
	return s.cache.Remove(id)
}

// Get 保持中の画像を取得
func (s *LRUStore) Get(id string) ([]byte, string, bool) {
	b, ok := s.cache.Get(id)
	if !ok {
		return nil, "", false
	}
	return b.data, b.mimeType, true
}

// Len 保持中のプレビュー数
func (s *LRUStore) Len() int {
	return s.cache.Len()
}
