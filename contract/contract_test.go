package contract_test

import (
	"math/big"
	"testing"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/monadflip/flip-monitor/contract"
	"github.com/monadflip/flip-monitor/contract/abi"
)

func TestEventIDs(t *testing.T) {
	t.Parallel()

	c := contract.NewContract(common.Address{}, abi.Coinflip)

	require.Equal(t,
		crypto.Keccak256Hash([]byte("GameResolved(uint256,address,bool,uint256,uint256)")),
		c.EventID(abi.GameResolved))
	require.Equal(t,
		crypto.Keccak256Hash([]byte("ReferralReward(address,uint256,uint256,uint256)")),
		c.EventID(abi.ReferralReward))
}

func TestParseGameResolvedLog(t *testing.T) {
	t.Parallel()

	c := contract.NewContract(common.Address{}, abi.Coinflip)
	winner := common.HexToAddress("0xAbCd000000000000000000000000000000001234")
	payout := big.NewInt(1985000000000000000)

	data, err := packNonIndexed(abi.Coinflip.Events[abi.GameResolved].Inputs, true, payout, big.NewInt(1700000000))
	require.NoError(t, err)

	log := types.Log{
		Topics: []common.Hash{
			c.EventID(abi.GameResolved),
			common.BigToHash(big.NewInt(42)),
			winner.Hash(),
		},
		Data: data,
	}

	name, values, err := c.ParseLog(log)
	require.NoError(t, err)
	require.Equal(t, abi.GameResolved, name)
	require.Equal(t, big.NewInt(42), values["gameId"])
	require.Equal(t, winner, values["winner"])
	require.Equal(t, true, values["result"])
	require.Equal(t, payout, values["payout"])
}

func TestParseUnknownLog(t *testing.T) {
	t.Parallel()

	c := contract.NewContract(common.Address{}, abi.Coinflip)

	name, values, err := c.ParseLog(types.Log{
		Topics: []common.Hash{crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))},
	})
	require.NoError(t, err)
	require.Empty(t, name)
	require.Nil(t, values)

	_, _, err = c.ParseLog(types.Log{})
	require.Error(t, err)
}

func packNonIndexed(inputs ethabi.Arguments, values ...interface{}) ([]byte, error) {
	var nonIndexed ethabi.Arguments
	for _, arg := range inputs {
		if !arg.Indexed {
			nonIndexed = append(nonIndexed, arg)
		}
	}
	return nonIndexed.Pack(values...)
}
