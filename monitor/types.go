package monitor

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GameResolvedEvent is a decoded GameResolved log paired with its block
// timestamp.
type GameResolvedEvent struct {
	GameID    uint64
	Winner    common.Address
	Result    bool
	Payout    *big.Int
	TxHash    common.Hash
	Timestamp int64
}

// ReferralRewardEvent is a decoded ReferralReward log paired with its block
// timestamp.
type ReferralRewardEvent struct {
	Referrer  common.Address
	Amount    *big.Int
	GameID    uint64
	TxHash    common.Hash
	Timestamp int64
}

// BlocksRange is the inclusive block window scanned by one poll cycle.
type BlocksRange struct {
	From uint64
	To   uint64
}
