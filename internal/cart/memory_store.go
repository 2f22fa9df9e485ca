package cart

import (
	"context"
	"sync"

	"github.com/mercantile/storefront/pkg/logger"
)

// MemoryStore is a process-local store. Payloads are kept encoded so it
// behaves like the durable stores.
type MemoryStore struct {
	mu       sync.RWMutex
	payloads map[string][]byte
	logg     *logger.Logger
}

func NewMemoryStore(logg *logger.Logger) *MemoryStore {
	return &MemoryStore{payloads: map[string][]byte{}, logg: logg}
}

func (s *MemoryStore) Save(_ context.Context, sessionKey string, state State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.payloads[sessionKey] = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, sessionKey string) (State, bool, error) {
	s.mu.RLock()
	payload, ok := s.payloads[sessionKey]
	s.mu.RUnlock()
	if !ok {
		return State{}, false, nil
	}
	state, ok := decodeOrDiscard(ctx, s.logg, sessionKey, payload)
	return state, ok, nil
}
