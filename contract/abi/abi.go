package abi

//nolint:golint
import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed coinflip.json
var coinflipJSONABI string

// Coinflip is the parsed ABI of the coinflip game contract.
var Coinflip abi.ABI

// Handled event names.
const (
	GameResolved   = "GameResolved"
	ReferralReward = "ReferralReward"
)

func init() {
	var err error
	Coinflip, err = abi.JSON(strings.NewReader(coinflipJSONABI))
	if err != nil {
		panic(err)
	}
}
