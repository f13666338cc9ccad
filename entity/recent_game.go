package entity

import (
	"context"

	"github.com/shopspring/decimal"
)

// RecentGamesCap is the retention cap of the recent games feed. Rows beyond
// the cap are evicted oldest-timestamp-first.
const RecentGamesCap = 10

type RecentGame struct {
	ID        uint            `db:"id"`
	GameID    uint64          `db:"game_id"`
	Winner    string          `db:"winner"`
	BetAmount decimal.Decimal `db:"bet_amount"`
	Payout    decimal.Decimal `db:"payout"`
	Result    bool            `db:"result"`
	TxHash    string          `db:"tx_hash"`
	Timestamp int64           `db:"timestamp"`
}

type RecentGamesRepo interface {
	// Ensure inserts the game keyed by its tx hash and trims the feed to the
	// retention cap. It returns false without error when the tx hash was
	// already present.
	Ensure(ctx context.Context, game *RecentGame) (bool, error)
	FindLatest(ctx context.Context, limit uint) ([]*RecentGame, error)
	// WindowTotals returns the summed payout and game count over feed rows
	// with timestamp >= since.
	WindowTotals(ctx context.Context, since int64) (decimal.Decimal, uint, error)
	Count(ctx context.Context) (uint, error)
}
