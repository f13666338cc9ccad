package monitor

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/monadflip/flip-monitor/contract/abi"
)

// decodeGameResolved turns an unpacked GameResolved log into a typed event.
// The timestamp argument is the containing block's timestamp; the event's own
// timestamp field is ignored in its favor.
func decodeGameResolved(log types.Log, values map[string]interface{}, timestamp int64) (*GameResolvedEvent, error) {
	gameID, err := toUint64(values["gameId"])
	if err != nil {
		return nil, fmt.Errorf("bad gameId in %s log: %w", abi.GameResolved, err)
	}
	winner, ok := values["winner"].(common.Address)
	if !ok {
		return nil, fmt.Errorf("bad winner in %s log", abi.GameResolved)
	}
	result, ok := values["result"].(bool)
	if !ok {
		return nil, fmt.Errorf("bad result in %s log", abi.GameResolved)
	}
	payout, ok := values["payout"].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("bad payout in %s log", abi.GameResolved)
	}
	return &GameResolvedEvent{
		GameID:    gameID,
		Winner:    winner,
		Result:    result,
		Payout:    payout,
		TxHash:    log.TxHash,
		Timestamp: timestamp,
	}, nil
}

func decodeReferralReward(log types.Log, values map[string]interface{}, timestamp int64) (*ReferralRewardEvent, error) {
	referrer, ok := values["referrer"].(common.Address)
	if !ok {
		return nil, fmt.Errorf("bad referrer in %s log", abi.ReferralReward)
	}
	amount, ok := values["amount"].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("bad amount in %s log", abi.ReferralReward)
	}
	gameID, err := toUint64(values["gameId"])
	if err != nil {
		return nil, fmt.Errorf("bad gameId in %s log: %w", abi.ReferralReward, err)
	}
	return &ReferralRewardEvent{
		Referrer:  referrer,
		Amount:    amount,
		GameID:    gameID,
		TxHash:    log.TxHash,
		Timestamp: timestamp,
	}, nil
}

func toUint64(v interface{}) (uint64, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("not a uint256")
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("value %s does not fit in uint64", n)
	}
	return n.Uint64(), nil
}
