// Package tokenstore holds the local session token stores: an in-process
// store and a file-backed store that survives CLI invocations.
package tokenstore

import (
	"context"
	"sync"

	"github.com/sdm/cabinet-client/internal/core/ports"
)

// Memory keeps the token for the lifetime of the process.
type Memory struct {
	mu    sync.RWMutex
	token string
}

var _ ports.TokenStore = (*Memory)(nil)

// NewMemory returns an empty store, optionally seeded with a token.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Get(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
