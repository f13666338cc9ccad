package monitor

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/monadflip/flip-monitor/config"
	"github.com/monadflip/flip-monitor/db"
	"github.com/monadflip/flip-monitor/entity"
	"github.com/monadflip/flip-monitor/logging"
	"github.com/monadflip/flip-monitor/repository"
)

func setupHandler(t *testing.T) (*FlipEventHandler, *repository.Repo) {
	t.Helper()

	conn, err := db.ConnectToDBAndMigrate(&config.DBConfig{
		Path: filepath.Join(t.TempDir(), "monitor.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, conn.Close())
	})

	repo := repository.NewRepo(conn)
	multiplier := decimal.RequireFromString("1.985")
	return NewFlipEventHandler(logging.New(), repo, multiplier), repo
}

func gameEvent(gameID uint64, winner common.Address, payoutWei *big.Int, timestamp int64) *GameResolvedEvent {
	return &GameResolvedEvent{
		GameID:    gameID,
		Winner:    winner,
		Result:    true,
		Payout:    payoutWei,
		TxHash:    common.BigToHash(big.NewInt(int64(gameID))),
		Timestamp: timestamp,
	}
}

func TestHandleGameResolved(t *testing.T) {
	handler, repo := setupHandler(t)
	ctx := context.Background()

	winner := common.HexToAddress("0xAbCd000000000000000000000000000000001234")
	payout := new(big.Int)
	payout.SetString("1985000000000000000", 10) // 1.985 tokens

	require.NoError(t, handler.HandleGameResolved(ctx, gameEvent(1, winner, payout, 1700000000)))

	stats, err := repo.ProtocolStats.Get(ctx)
	require.NoError(t, err)
	require.True(t, stats.TotalVolume.Equal(decimal.RequireFromString("1.985")),
		"got volume %s", stats.TotalVolume)
	require.EqualValues(t, 1, stats.TotalGames)
	require.EqualValues(t, 1, stats.TotalPlayers)
	require.NotNil(t, stats.LastUpdated)
	require.EqualValues(t, 1700000000, *stats.LastUpdated)

	games, err := repo.RecentGames.FindLatest(ctx, entity.RecentGamesCap)
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, "0xabcd000000000000000000000000000000001234", games[0].Winner)
	require.True(t, games[0].Payout.Equal(decimal.RequireFromString("1.985")))
	// 1.985 / 1.985 reconstructs a stake of exactly one token.
	require.True(t, games[0].BetAmount.Equal(decimal.NewFromInt(1)),
		"got bet amount %s", games[0].BetAmount)
	require.True(t, games[0].Result)
}

func TestHandleGameResolvedBetDerivation(t *testing.T) {
	handler, repo := setupHandler(t)
	ctx := context.Background()

	winner := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	payout := new(big.Int)
	payout.SetString("1970000000000000000", 10) // 1.97 tokens

	require.NoError(t, handler.HandleGameResolved(ctx, gameEvent(3, winner, payout, 1700000050)))

	games, err := repo.RecentGames.FindLatest(ctx, entity.RecentGamesCap)
	require.NoError(t, err)
	require.Len(t, games, 1)
	// 1.97 / 1.985 = 0.992443324937...
	require.Equal(t, "0.992443325", games[0].BetAmount.StringFixed(9))
}

func TestHandleGameResolvedRepeated(t *testing.T) {
	handler, repo := setupHandler(t)
	ctx := context.Background()

	winner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	ev := gameEvent(7, winner, big.NewInt(1e18), 1700000100)

	require.NoError(t, handler.HandleGameResolved(ctx, ev))
	require.NoError(t, handler.HandleGameResolved(ctx, ev))

	stats, err := repo.ProtocolStats.Get(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.TotalGames)
	require.True(t, stats.TotalVolume.Equal(decimal.NewFromInt(1)))

	count, err := repo.RecentGames.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestHandleGameResolvedFeedCap(t *testing.T) {
	handler, repo := setupHandler(t)
	ctx := context.Background()

	winner := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	for i := 1; i <= 15; i++ {
		ev := gameEvent(uint64(i), winner, big.NewInt(1e18), 1700000000+int64(i))
		require.NoError(t, handler.HandleGameResolved(ctx, ev))
	}

	count, err := repo.RecentGames.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, entity.RecentGamesCap, count)

	games, err := repo.RecentGames.FindLatest(ctx, entity.RecentGamesCap)
	require.NoError(t, err)
	require.Len(t, games, entity.RecentGamesCap)
	// Newest first, oldest five trimmed away.
	require.EqualValues(t, 15, games[0].GameID)
	require.EqualValues(t, 6, games[len(games)-1].GameID)

	// The trim must not touch the lifetime aggregates.
	stats, err := repo.ProtocolStats.Get(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 15, stats.TotalGames)
	require.EqualValues(t, 1, stats.TotalPlayers)
}

func TestHandleGameResolvedCountsDistinctPlayers(t *testing.T) {
	handler, repo := setupHandler(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		winner := common.HexToAddress(fmt.Sprintf("0x%040d", i%2+1))
		ev := gameEvent(uint64(i), winner, big.NewInt(1e18), 1700000000+int64(i))
		require.NoError(t, handler.HandleGameResolved(ctx, ev))
	}

	stats, err := repo.ProtocolStats.Get(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalGames)
	require.EqualValues(t, 2, stats.TotalPlayers)
}

func TestHandleReferralReward(t *testing.T) {
	handler, repo := setupHandler(t)
	ctx := context.Background()

	referrer := common.HexToAddress("0xAbCd0000000000000000000000000000000000Ff")
	ev := &ReferralRewardEvent{
		Referrer:  referrer,
		Amount:    big.NewInt(1e16), // 0.01 tokens
		GameID:    42,
		TxHash:    common.HexToHash("0x01"),
		Timestamp: 1700000200,
	}
	require.NoError(t, handler.HandleReferralReward(ctx, ev))
	// Same tx hash observed again must be swallowed.
	require.NoError(t, handler.HandleReferralReward(ctx, ev))

	total, count, err := repo.ReferralRewards.TotalsByReferrer(ctx, "0xabcd0000000000000000000000000000000000ff")
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.True(t, total.Equal(decimal.RequireFromString("0.01")), "got total %s", total)

	rewards, err := repo.ReferralRewards.FindLatestByReferrer(ctx, "0xabcd0000000000000000000000000000000000ff", 10)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	require.EqualValues(t, 42, rewards[0].GameID)
}

func TestWeiToToken(t *testing.T) {
	t.Parallel()

	wei := new(big.Int)
	wei.SetString("1985000000000000000", 10)
	require.True(t, weiToToken(wei).Equal(decimal.RequireFromString("1.985")))
	require.True(t, weiToToken(big.NewInt(0)).IsZero())
}
