package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"astro-analyze-app/internal/modules/planet/domain"
)

func marsAnalysis() domain.PlanetAnalysis {
	return domain.PlanetAnalysis{
		PlanetName:                "Mars",
		IsSolarSystem:             true,
		EarthSimilarityPercentage: 42,
		HabitabilityScore:         15,
		HabitabilityAnalysis:      "大気が薄く、液体の水は地表に存在しない",
		CompositionComparison:     "地球より鉄の酸化物が多い",
	}
}

// callLog 呼び出し順を記録する
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

// MockAnalysisRepository モック解析リポジトリ
type MockAnalysisRepository struct {
	AnalyzeFunc          func(ctx context.Context, imageData []byte, mimeType string) (domain.PlanetAnalysis, error)
	CheckCredentialsFunc func() error
	ProviderNameFunc     func() string

	mu    sync.Mutex
	calls int
}

func (m *MockAnalysisRepository) Analyze(ctx context.Context, imageData []byte, mimeType string) (domain.PlanetAnalysis, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, imageData, mimeType)
	}
	return marsAnalysis(), nil
}

func (m *MockAnalysisRepository) CheckCredentials() error {
	if m.CheckCredentialsFunc != nil {
		return m.CheckCredentialsFunc()
	}
	return nil
}

func (m *MockAnalysisRepository) ProviderName() string {
	if m.ProviderNameFunc != nil {
		return m.ProviderNameFunc()
	}
	return "Mock AI Provider"
}

func (m *MockAnalysisRepository) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockCacheRepository メモリ上のモックキャッシュ
type MockCacheRepository struct {
	SetFunc func(ctx context.Context, key string, value []byte, expiration time.Duration) error
	GetFunc func(ctx context.Context, key string) ([]byte, error)

	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = expiration
	return nil
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockPlanetAnalysisRepository モック保存先
type MockPlanetAnalysisRepository struct {
	InsertFunc func(ctx context.Context, row domain.PlanetAnalysisRow) (*domain.StoredRecord, error)
	CloseFunc  func() error

	mu   sync.Mutex
	rows []domain.PlanetAnalysisRow
}

func (m *MockPlanetAnalysisRepository) Insert(ctx context.Context, row domain.PlanetAnalysisRow) (*domain.StoredRecord, error) {
	m.mu.Lock()
	m.rows = append(m.rows, row)
	m.mu.Unlock()
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, row)
	}
	return &domain.StoredRecord{ID: "rec-1", Row: row, CreatedAt: time.Now().UTC()}, nil
}

func (m *MockPlanetAnalysisRepository) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockPlanetAnalysisRepository) Rows() []domain.PlanetAnalysisRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PlanetAnalysisRow, len(m.rows))
	copy(out, m.rows)
	return out
}

// MockPersister 非同期保存の呼び出しを記録する
type MockPersister struct {
	log *callLog

	mu       sync.Mutex
	analyses []domain.PlanetAnalysis
}

func (m *MockPersister) PersistAsync(analysis domain.PlanetAnalysis) {
	m.mu.Lock()
	m.analyses = append(m.analyses, analysis)
	m.mu.Unlock()
	if m.log != nil {
		m.log.add("persist:%s", analysis.PlanetName)
	}
}

func (m *MockPersister) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.analyses)
}

// MockPreviewStore 取得と解放を記録するプレビューストア
type MockPreviewStore struct {
	log *callLog

	mu       sync.Mutex
	seq      int
	live     map[string]bool
	released map[string]int
}

func NewMockPreviewStore(log *callLog) *MockPreviewStore {
	return &MockPreviewStore{
		log:      log,
		live:     make(map[string]bool),
		released: make(map[string]int),
	}
}

func (m *MockPreviewStore) Acquire(imageData []byte, mimeType string) domain.PreviewHandle {
	m.mu.Lock()
	m.seq++
	id := fmt.Sprintf("p%d", m.seq)
	m.live[id] = true
	m.mu.Unlock()
	if m.log != nil {
		m.log.add("acquire:%s", id)
	}
	return domain.PreviewHandle{ID: id, MIMEType: mimeType, URL: "/previews/" + id}
}

func (m *MockPreviewStore) Release(id string) bool {
	m.mu.Lock()
	m.released[id]++
	ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()
	if m.log != nil {
		m.log.add("release:%s", id)
	}
	return ok
}

func (m *MockPreviewStore) Get(id string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.live[id] {
		return nil, "", false
	}
	return []byte("img"), "image/png", true
}

// ReleaseCount ハンドルごとの解放回数
func (m *MockPreviewStore) ReleaseCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released[id]
}

// Live 未解放のハンドル数
func (m *MockPreviewStore) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
