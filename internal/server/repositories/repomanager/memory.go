package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/statelessauth/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. WithTx
// serialises transactions and restores the previous contents when fn
// fails.
type MemoryRepositoryManager struct {
	txMu  sync.Mutex
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, users users.Repository) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	restore := m.users.Snapshot()
	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
		if err != nil {
			restore()
		}
	}()

	return fn(ctx, m.users)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
