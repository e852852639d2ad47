package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketStore persists market snapshots. Upserts replace the previous
// snapshot for the same market ID (latest fetch wins).
type MarketStore interface {
	Upsert(ctx context.Context, market Market) error
	UpsertBatch(ctx context.Context, markets []Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	ListOpen(ctx context.Context, opts ListOpts) ([]Market, error)
	ListAll(ctx context.Context) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// KeywordCount is one keyword with its number of stored pairs.
type KeywordCount struct {
	Keyword   string `json:"keyword"`
	PairCount int    `json:"pair_count"`
}

// PairStore persists candidate pairs. ReplaceKeyword swaps a keyword's pair
// set atomically so pair IDs stay reproducible after a rebuild.
type PairStore interface {
	ReplaceKeyword(ctx context.Context, keyword string, pairs []Pair) error
	GetByID(ctx context.Context, id string) (Pair, error)
	ListByKeyword(ctx context.Context, keyword string, opts ListOpts) ([]Pair, error)
	List(ctx context.Context, opts ListOpts) ([]Pair, error)
	CountByKeyword(ctx context.Context) ([]KeywordCount, error)
	Count(ctx context.Context, keyword string) (int64, error)
}

// PortfolioStore persists the single paper portfolio and its trade log.
type PortfolioStore interface {
	Save(ctx context.Context, p Portfolio) error
	Load(ctx context.Context) (Portfolio, error)
	LogTrade(ctx context.Context, rec TradeRecord) error
	ListTrades(ctx context.Context, opts ListOpts) ([]TradeRecord, error)
}

// PriceCache provides fast access to the latest quotes per market side,
// fed by the live price feed.
type PriceCache interface {
	SetPrice(ctx context.Context, marketID string, outcome Outcome, price float64, ts time.Time) error
	GetPrice(ctx context.Context, marketID string, outcome Outcome) (float64, time.Time, error)
	GetPrices(ctx context.Context, marketIDs []string) (map[string]QuotePair, error)
}

// QuotePair holds the cached YES/NO quotes for one market. Either side may
// be nil when the feed has not seen a quote for it yet.
type QuotePair struct {
	Yes *float64
	No  *float64
}

// LockManager provides distributed locking for the trade path when more than
// one API replica shares the portfolio row.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter limits request rates per key, shared across replicas.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub used to push price and trade events to the
// review UI over WebSocket.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
