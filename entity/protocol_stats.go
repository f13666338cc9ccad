package entity

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProtocolStats is the singleton lifetime aggregate. Exactly one row exists,
// enforced by a CHECK (id = 1) constraint.
type ProtocolStats struct {
	ID           uint            `db:"id"`
	TotalVolume  decimal.Decimal `db:"total_volume"`
	TotalGames   uint            `db:"total_games"`
	TotalPlayers uint            `db:"total_players"`
	LastUpdated  *int64          `db:"last_updated"`
}

type ProtocolStatsRepo interface {
	// RecordGame atomically accrues payout into the lifetime volume,
	// increments the game count, registers the winner as a player if unseen,
	// and refreshes the distinct player count.
	RecordGame(ctx context.Context, winner string, payout decimal.Decimal, timestamp int64) error
	Get(ctx context.Context) (*ProtocolStats, error)
}
