package entity

import (
	"context"

	"github.com/shopspring/decimal"
)

// ReferralReward is an append-only ledger entry keyed by the originating
// transaction hash.
type ReferralReward struct {
	ID        uint            `db:"id"`
	Referrer  string          `db:"referrer"`
	Amount    decimal.Decimal `db:"amount"`
	GameID    uint64          `db:"game_id"`
	TxHash    string          `db:"tx_hash"`
	Timestamp int64           `db:"timestamp"`
}

type ReferralRewardsRepo interface {
	// Ensure appends the reward to the ledger. Re-inserting an already seen
	// tx hash is a no-op.
	Ensure(ctx context.Context, reward *ReferralReward) error
	// TotalsByReferrer returns the summed reward amount and reward count for
	// the given lowercase referrer address.
	TotalsByReferrer(ctx context.Context, referrer string) (decimal.Decimal, uint, error)
	FindLatestByReferrer(ctx context.Context, referrer string, limit uint) ([]*ReferralReward, error)
}
