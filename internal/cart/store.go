package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mercantile/storefront/pkg/logger"
)

// Store persists ledger state per cart session. Load reports found=false for
// missing and malformed payloads alike; only infrastructure failures are errors.
type Store interface {
	Save(ctx context.Context, sessionKey string, state State) error
	Load(ctx context.Context, sessionKey string) (State, bool, error)
}

const (
	StoreKindRedis    = "redis"
	StoreKindDatabase = "database"
	StoreKindMemory   = "memory"
)

// StoreDeps carries the backends a store kind may need.
type StoreDeps struct {
	Redis  RedisKV
	DB     *gorm.DB
	TTL    time.Duration
	Logger *logger.Logger
}

// NewStore selects a store implementation by kind.
func NewStore(kind string, deps StoreDeps) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case StoreKindRedis, "":
		return NewRedisStore(deps.Redis, deps.TTL, deps.Logger)
	case StoreKindDatabase:
		return NewGormStore(deps.DB, deps.Logger)
	case StoreKindMemory:
		return NewMemoryStore(deps.Logger), nil
	default:
		return nil, fmt.Errorf("unknown cart store %q", kind)
	}
}

// decodeOrDiscard applies the malformed-equals-absent rule shared by every store.
func decodeOrDiscard(ctx context.Context, logg *logger.Logger, sessionKey string, payload []byte) (State, bool) {
	state, err := decodeState(payload)
	if err != nil {
		if logg != nil {
			logg.WarnErr(logg.WithCartSession(ctx, sessionKey), "discarding unreadable cart payload", err)
		}
		return State{}, false
	}
	return state, true
}
