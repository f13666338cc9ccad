package repository

import (
	"github.com/monadflip/flip-monitor/db"
	"github.com/monadflip/flip-monitor/entity"
	"github.com/monadflip/flip-monitor/repository/sqlite"
)

type Repo struct {
	ProtocolStats   entity.ProtocolStatsRepo
	RecentGames     entity.RecentGamesRepo
	ReferralRewards entity.ReferralRewardsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		ProtocolStats:   sqlite.NewProtocolStatsRepo("protocol_stats", "players", db),
		RecentGames:     sqlite.NewRecentGamesRepo("recent_games", db),
		ReferralRewards: sqlite.NewReferralRewardsRepo("referral_rewards", db),
	}
}
