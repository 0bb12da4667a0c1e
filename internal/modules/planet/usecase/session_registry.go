package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// WorkflowFactory セッションIDからワークフローを作成する
type WorkflowFactory func(id string) *WorkflowUseCase

// SessionRegistry セッションごとのワークフローを保持する
//
// 一定時間アクセスのないセッション、または上限を超えた古いセッションは破棄され、
// そのワークフローは Close される。
type SessionRegistry struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, *WorkflowUseCase]
	factory  WorkflowFactory
}

// NewSessionRegistry 新しいSessionRegistryを作成
func NewSessionRegistry(maxSessions int, ttl time.Duration, factory WorkflowFactory) *SessionRegistry {
	if maxSessions <= 0 {
		maxSessions = 1024
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	onEvict := func(id string, wf *WorkflowUseCase) {
		log.Debug().Str("session", id).Msg("session closed")
		wf.Close()
	}

	return &SessionRegistry{
		sessions: expirable.NewLRU[string, *WorkflowUseCase](maxSessions, onEvict, ttl),
		factory:  factory,
	}
}

// Get セッションのワークフローを取得。存在しない場合は新しく作成する
//
// id が空または不明な場合は新しいIDを払い出す。アクセスごとに有効期限を延長する。
func (r *SessionRegistry) Get(id string) (*WorkflowUseCase, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if wf, ok := r.sessions.Get(id); ok {
			r.sessions.Add(id, wf)
			return wf, false
		}
	}

	newID := uuid.NewString()
	wf := r.factory(newID)
	r.sessions.Add(newID, wf)
	return wf, true
}

// Lookup 既存のセッションのみ取得
func (r *SessionRegistry) Lookup(id string) (*WorkflowUseCase, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions.Get(id)
}

// Len 保持中のセッション数
func (r *SessionRegistry) Len() int {
	return r.sessions.Len()
}

// Close 全セッションを終了
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Purge()
}
