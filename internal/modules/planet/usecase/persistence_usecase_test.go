package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astro-analyze-app/internal/modules/planet/domain"
)

func TestPersistenceUseCase_Persist(t *testing.T) {
	repo := &MockPlanetAnalysisRepository{}
	uc := NewPersistenceUseCase(repo, time.Second)

	record, err := uc.Persist(context.Background(), marsAnalysis())
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "rec-1", record.ID)
	assert.Equal(t, marsAnalysis().ToRow(), record.Row)
	require.Len(t, repo.Rows(), 1)
	assert.Equal(t, "Mars", repo.Rows()[0].PlanetName)
	assert.True(t, uc.Enabled())
}

func TestPersistenceUseCase_Persist_Disabled(t *testing.T) {
	uc := NewPersistenceUseCase(nil, 0)

	record, err := uc.Persist(context.Background(), marsAnalysis())
	assert.NoError(t, err)
	assert.Nil(t, record)
	assert.False(t, uc.Enabled())
	assert.NoError(t, uc.Close())
}

func TestPersistenceUseCase_Persist_Failure(t *testing.T) {
	cause := errors.New("permission denied for table planet_analyses")
	repo := &MockPlanetAnalysisRepository{
		InsertFunc: func(ctx context.Context, row domain.PlanetAnalysisRow) (*domain.StoredRecord, error) {
			return nil, cause
		},
	}
	uc := NewPersistenceUseCase(repo, time.Second)

	record, err := uc.Persist(context.Background(), marsAnalysis())
	assert.Nil(t, record)

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.NotEmpty(t, persistErr.UserMessage())
	assert.ErrorIs(t, err, cause)
}

func TestPersistenceUseCase_PersistAsync(t *testing.T) {
	release := make(chan struct{})
	repo := &MockPlanetAnalysisRepository{
		InsertFunc: func(ctx context.Context, row domain.PlanetAnalysisRow) (*domain.StoredRecord, error) {
			<-release
			return &domain.StoredRecord{ID: "rec-async", Row: row}, nil
		},
	}
	uc := NewPersistenceUseCase(repo, 5*time.Second)

	// 保存の完了を待たずに戻る
	uc.PersistAsync(marsAnalysis())
	close(release)

	require.NoError(t, uc.Wait())
	assert.Len(t, repo.Rows(), 1)
}

func TestPersistenceUseCase_PersistAsync_FailureReportedByWait(t *testing.T) {
	repo := &MockPlanetAnalysisRepository{
		InsertFunc: func(ctx context.Context, row domain.PlanetAnalysisRow) (*domain.StoredRecord, error) {
			return nil, errors.New("network unreachable")
		},
	}
	uc := NewPersistenceUseCase(repo, time.Second)

	uc.PersistAsync(marsAnalysis())

	var persistErr *domain.PersistenceError
	assert.ErrorAs(t, uc.Wait(), &persistErr)
}

func TestPersistenceUseCase_PersistAsync_Timeout(t *testing.T) {
	repo := &MockPlanetAnalysisRepository{
		InsertFunc: func(ctx context.Context, row domain.PlanetAnalysisRow) (*domain.StoredRecord, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	uc := NewPersistenceUseCase(repo, 20*time.Millisecond)

	uc.PersistAsync(marsAnalysis())

	err := uc.Wait()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPersistenceUseCase_Close(t *testing.T) {
	closed := false
	repo := &MockPlanetAnalysisRepository{
		CloseFunc: func() error {
			closed = true
			return nil
		},
	}
	uc := NewPersistenceUseCase(repo, time.Second)

	require.NoError(t, uc.Close())
	assert.True(t, closed)
}
