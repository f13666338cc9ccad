package presenter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/monadflip/flip-monitor/config"
	"github.com/monadflip/flip-monitor/db"
	"github.com/monadflip/flip-monitor/entity"
	"github.com/monadflip/flip-monitor/logging"
	"github.com/monadflip/flip-monitor/presenter"
	"github.com/monadflip/flip-monitor/repository"
)

type fakeClient struct {
	head    uint64
	headErr error
}

func (c *fakeClient) ChainID() string { return "10143" }

func (c *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	return c.head, c.headErr
}

func (c *fakeClient) HeaderByNumber(ctx context.Context, n uint64) (*types.Header, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeClient) BlockTimestamp(ctx context.Context, n uint64) (int64, error) {
	return 0, errors.New("not implemented")
}

func (c *fakeClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, errors.New("not implemented")
}

func setupPresenter(t *testing.T, client *fakeClient) (*presenter.Presenter, *repository.Repo) {
	t.Helper()

	conn, err := db.ConnectToDBAndMigrate(&config.DBConfig{
		Path: filepath.Join(t.TempDir(), "presenter.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, conn.Close())
	})

	repo := repository.NewRepo(conn)
	p := presenter.NewPresenter(logging.New(), repo, client, &config.PresenterConfig{
		Host:       "127.0.0.1:3000",
		CORSOrigin: "*",
	})
	return p, repo
}

func getJSON(t *testing.T, handler http.Handler, path string, out interface{}) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil && rec.Code != http.StatusBadRequest {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func seedGame(t *testing.T, repo *repository.Repo, gameID uint64, winner string, payout decimal.Decimal, timestamp int64) {
	t.Helper()

	ctx := context.Background()
	inserted, err := repo.RecentGames.Ensure(ctx, &entity.RecentGame{
		GameID:    gameID,
		Winner:    winner,
		BetAmount: payout.Div(decimal.RequireFromString("1.985")),
		Payout:    payout,
		Result:    true,
		TxHash:    fmt.Sprintf("0x%064x", gameID),
		Timestamp: timestamp,
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, repo.ProtocolStats.RecordGame(ctx, winner, payout, timestamp))
}

func timeNow() int64 {
	return time.Now().Unix()
}

func TestGetHealth(t *testing.T) {
	client := &fakeClient{head: 12345}
	p, _ := setupPresenter(t, client)

	var res presenter.HealthResult
	require.Equal(t, http.StatusOK, getJSON(t, p.Handler(), "/api/health", &res))
	require.Equal(t, "ok", res.Status)
	require.EqualValues(t, 12345, res.BlockNumber)
	require.NotZero(t, res.Timestamp)

	// A degraded RPC endpoint must surface as an unhealthy status code.
	client.headErr = errors.New("connection refused")
	require.Equal(t, http.StatusInternalServerError, getJSON(t, p.Handler(), "/api/health", &res))
	require.Equal(t, "error", res.Status)
	require.Contains(t, res.Message, "connection refused")
}

func TestCrossOriginRequests(t *testing.T) {
	p, _ := setupPresenter(t, &fakeClient{head: 1})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetStats(t *testing.T) {
	p, repo := setupPresenter(t, &fakeClient{head: 1})

	var res presenter.StatsResult
	require.Equal(t, http.StatusOK, getJSON(t, p.Handler(), "/api/stats", &res))
	require.Equal(t, "0.00", res.Volume24h)
	require.EqualValues(t, 0, res.GamesToday)
	require.Equal(t, "0", res.TotalFlipped)
	require.EqualValues(t, 0, res.TotalPlayers)

	now := timeNow()
	seedGame(t, repo, 1, "0xaaaa000000000000000000000000000000000001", decimal.RequireFromString("1.985"), now-60)
	seedGame(t, repo, 2, "0xaaaa000000000000000000000000000000000002", decimal.RequireFromString("0.5"), now-120)
	// Older than the 24h window, still part of the lifetime totals.
	seedGame(t, repo, 3, "0xaaaa000000000000000000000000000000000001", decimal.RequireFromString("10"), now-2*86400)

	require.Equal(t, http.StatusOK, getJSON(t, p.Handler(), "/api/stats", &res))
	require.Equal(t, "2.49", res.Volume24h)
	require.EqualValues(t, 2, res.GamesToday)
	require.Equal(t, "12", res.TotalFlipped)
	require.EqualValues(t, 2, res.TotalPlayers)
}

func TestGetLiveActivity(t *testing.T) {
	p, repo := setupPresenter(t, &fakeClient{head: 1})

	var res []*presenter.GameResult
	require.Equal(t, http.StatusOK, getJSON(t, p.Handler(), "/api/live-activity", &res))
	require.Empty(t, res)

	now := timeNow()
	seedGame(t, repo, 1, "0xaaaa000000000000000000000000000000000001", decimal.RequireFromString("1.985"), now-60)
	seedGame(t, repo, 2, "0xaaaa000000000000000000000000000000000002", decimal.RequireFromString("3.97"), now-30)

	require.Equal(t, http.StatusOK, getJSON(t, p.Handler(), "/api/live-activity", &res))
	require.Len(t, res, 2)
	// Newest first.
	require.EqualValues(t, 2, res[0].GameID)
	require.Equal(t, "0xaaaa000000000000000000000000000000000002", res[0].Winner)
	require.Equal(t, "3.97", res[0].Payout)
	require.Equal(t, "2", res[0].BetAmount)
	require.True(t, res[0].Result)
	require.EqualValues(t, 1, res[1].GameID)
}

func TestGetReferralStats(t *testing.T) {
	p, repo := setupPresenter(t, &fakeClient{head: 1})
	ctx := context.Background()

	referrer := "0xbbbb000000000000000000000000000000000001"
	require.NoError(t, repo.ReferralRewards.Ensure(ctx, &entity.ReferralReward{
		Referrer:  referrer,
		Amount:    decimal.RequireFromString("0.01"),
		GameID:    1,
		TxHash:    "0xr1",
		Timestamp: 1700000000,
	}))
	require.NoError(t, repo.ReferralRewards.Ensure(ctx, &entity.ReferralReward{
		Referrer:  referrer,
		Amount:    decimal.RequireFromString("0.025"),
		GameID:    2,
		TxHash:    "0xr2",
		Timestamp: 1700000100,
	}))

	var res presenter.ReferralResult
	require.Equal(t, http.StatusOK, getJSON(t, p.Handler(), "/api/referral/"+referrer, &res))
	require.Equal(t, "0.035000", res.TotalEarned)
	require.EqualValues(t, 2, res.GamesReferred)
	require.Len(t, res.RecentRewards, 2)
	require.EqualValues(t, 2, res.RecentRewards[0].GameID)

	// Addresses are matched case-insensitively by lowercasing the parameter.
	require.Equal(t, http.StatusOK, getJSON(t, p.Handler(),
		"/api/referral/0xBBBB000000000000000000000000000000000001", &res))
	require.EqualValues(t, 2, res.GamesReferred)

	// Unknown referrers get an empty result, not an error.
	require.Equal(t, http.StatusOK, getJSON(t, p.Handler(),
		"/api/referral/0xcccc000000000000000000000000000000000001", &res))
	require.Equal(t, "0.000000", res.TotalEarned)
	require.EqualValues(t, 0, res.GamesReferred)
	require.Empty(t, res.RecentRewards)
}

func TestGetReferralStatsRejectsBadAddress(t *testing.T) {
	p, _ := setupPresenter(t, &fakeClient{head: 1})

	require.Equal(t, http.StatusBadRequest, getJSON(t, p.Handler(), "/api/referral/whale", nil))
	require.Equal(t, http.StatusBadRequest, getJSON(t, p.Handler(), "/api/referral/0x1234", nil))
}
