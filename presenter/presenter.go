package presenter

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/monadflip/flip-monitor/config"
	"github.com/monadflip/flip-monitor/entity"
	"github.com/monadflip/flip-monitor/ethclient"
	"github.com/monadflip/flip-monitor/logging"
	custommiddleware "github.com/monadflip/flip-monitor/presenter/http/middleware"
	"github.com/monadflip/flip-monitor/presenter/http/render"
	"github.com/monadflip/flip-monitor/repository"
)

const (
	statsWindow      = 24 * time.Hour
	recentRewardsCap = 20
)

// Presenter serves the read-side JSON API on top of the repositories.
type Presenter struct {
	logger logging.Logger
	repo   *repository.Repo
	client ethclient.Client
	root   chi.Router
	server *http.Server
}

func NewPresenter(logger logging.Logger, repo *repository.Repo, client ethclient.Client, cfg *config.PresenterConfig) *Presenter {
	p := &Presenter{
		logger: logger,
		repo:   repo,
		client: client,
		root:   chi.NewMux(),
	}
	p.root.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.CORSOrigin},
		AllowedMethods: []string{http.MethodGet},
	}))
	p.root.Use(middleware.Throttle(100))
	p.root.Use(middleware.RequestID)
	p.root.Use(custommiddleware.NewLoggerMiddleware(logger))
	p.root.Use(custommiddleware.Recoverer)
	p.root.Get("/api/health", p.GetHealth)
	p.root.Get("/api/stats", p.wrapJSONHandler(p.GetStats))
	p.root.Get("/api/live-activity", p.wrapJSONHandler(p.GetRecentGames))
	p.root.With(custommiddleware.GetAddressMiddleware).
		Get("/api/referral/{address}", p.wrapJSONHandler(p.GetReferralStats))
	return p
}

// Serve blocks until the listener fails or Shutdown is called.
func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	p.server = &http.Server{
		Addr:              addr,
		Handler:           p.root,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return p.server.ListenAndServe()
}

func (p *Presenter) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}

// Handler exposes the routing tree, primarily for tests.
func (p *Presenter) Handler() http.Handler {
	return p.root
}

func (p *Presenter) wrapJSONHandler(handler func(ctx context.Context) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r.Context())
		if err != nil {
			render.Error(w, r, err)
			return
		}
		render.JSON(w, r, http.StatusOK, res)
	}
}

// GetHealth probes the RPC endpoint. It reports a degraded endpoint with an
// HTTP 500 so status-code based probes see it as unhealthy.
func (p *Presenter) GetHealth(w http.ResponseWriter, r *http.Request) {
	res := &HealthResult{
		Status:    "ok",
		Timestamp: time.Now().UnixMilli(),
	}
	head, err := p.client.BlockNumber(r.Context())
	if err != nil {
		p.logger.WithError(err).Error("health check can't reach the rpc endpoint")
		res.Status = "error"
		res.Message = err.Error()
		render.JSON(w, r, http.StatusInternalServerError, res)
		return
	}
	res.BlockNumber = head
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetStats(ctx context.Context) (interface{}, error) {
	stats, err := p.repo.ProtocolStats.Get(ctx)
	if err != nil {
		return nil, err
	}

	// The 24h figures are computed over the capped recent feed, so they
	// undercount once more games than the feed retains happen in a day.
	since := time.Now().Add(-statsWindow).Unix()
	volume, games, err := p.repo.RecentGames.WindowTotals(ctx, since)
	if err != nil {
		return nil, err
	}

	return &StatsResult{
		Volume24h:    volume.StringFixed(2),
		GamesToday:   games,
		TotalFlipped: stats.TotalVolume.StringFixed(0),
		TotalPlayers: stats.TotalPlayers,
	}, nil
}

func (p *Presenter) GetRecentGames(ctx context.Context) (interface{}, error) {
	games, err := p.repo.RecentGames.FindLatest(ctx, entity.RecentGamesCap)
	if err != nil {
		return nil, err
	}

	res := make([]*GameResult, 0, len(games))
	for _, game := range games {
		res = append(res, &GameResult{
			GameID:    game.GameID,
			Winner:    game.Winner,
			BetAmount: game.BetAmount.String(),
			Payout:    game.Payout.String(),
			Result:    game.Result,
			TxHash:    game.TxHash,
			Timestamp: game.Timestamp,
		})
	}
	return res, nil
}

func (p *Presenter) GetReferralStats(ctx context.Context) (interface{}, error) {
	referrer := custommiddleware.AddressFromContext(ctx)

	total, count, err := p.repo.ReferralRewards.TotalsByReferrer(ctx, referrer)
	if err != nil {
		return nil, err
	}
	rewards, err := p.repo.ReferralRewards.FindLatestByReferrer(ctx, referrer, recentRewardsCap)
	if err != nil {
		return nil, err
	}

	res := &ReferralResult{
		TotalEarned:   total.StringFixed(6),
		GamesReferred: count,
		RecentRewards: make([]*RewardResult, 0, len(rewards)),
	}
	for _, reward := range rewards {
		res.RecentRewards = append(res.RecentRewards, &RewardResult{
			Amount:    reward.Amount.String(),
			GameID:    reward.GameID,
			TxHash:    reward.TxHash,
			Timestamp: reward.Timestamp,
		})
	}
	return res, nil
}
