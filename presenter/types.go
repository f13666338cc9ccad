package presenter

// HealthResult reports API liveness together with the current chain head.
type HealthResult struct {
	Status      string `json:"status"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	Message     string `json:"message,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// StatsResult is the protocol-wide aggregate view. Token amounts are decimal
// strings, volume24h with two fraction digits and totalFlipped with none.
type StatsResult struct {
	Volume24h    string `json:"volume24h"`
	GamesToday   uint   `json:"gamesToday"`
	TotalFlipped string `json:"totalFlipped"`
	TotalPlayers uint   `json:"totalPlayers"`
}

// GameResult is one entry of the recent games feed.
type GameResult struct {
	GameID    uint64 `json:"gameId"`
	Winner    string `json:"winner"`
	BetAmount string `json:"betAmount"`
	Payout    string `json:"payout"`
	Result    bool   `json:"result"`
	TxHash    string `json:"txHash"`
	Timestamp int64  `json:"timestamp"`
}

// RewardResult is one entry of a referrer's recent rewards.
type RewardResult struct {
	Amount    string `json:"amount"`
	GameID    uint64 `json:"gameId"`
	TxHash    string `json:"txHash"`
	Timestamp int64  `json:"timestamp"`
}

// ReferralResult is the per-referrer earnings view. totalEarned carries six
// fraction digits.
type ReferralResult struct {
	TotalEarned   string          `json:"totalEarned"`
	GamesReferred uint            `json:"gamesReferred"`
	RecentRewards []*RewardResult `json:"recentRewards"`
}
