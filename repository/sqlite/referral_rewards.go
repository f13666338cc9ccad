package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/monadflip/flip-monitor/db"
	"github.com/monadflip/flip-monitor/entity"
)

type referralRewardsRepo baseSQLiteRepo

func NewReferralRewardsRepo(table string, db *db.DB) entity.ReferralRewardsRepo {
	return (*referralRewardsRepo)(newBaseSQLiteRepo(table, db))
}

func (r *referralRewardsRepo) Ensure(ctx context.Context, reward *entity.ReferralReward) error {
	q, args, err := sq.Insert(r.table).
		Columns("referrer", "amount", "game_id", "tx_hash", "timestamp").
		Values(reward.Referrer, reward.Amount, reward.GameID, reward.TxHash, reward.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("can't insert referral reward: %w", err)
	}
	return nil
}

func (r *referralRewardsRepo) TotalsByReferrer(ctx context.Context, referrer string) (decimal.Decimal, uint, error) {
	q, args, err := sq.Select("COALESCE(SUM(CAST(amount AS REAL)), 0) AS total", "COUNT(*) AS count").
		From(r.table).
		Where(sq.Eq{"referrer": referrer}).
		ToSql()
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("can't build query: %w", err)
	}
	var totals struct {
		Total float64 `db:"total"`
		Count uint    `db:"count"`
	}
	err = r.db.GetContext(ctx, &totals, q, args...)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("can't get referrer totals: %w", err)
	}
	return decimal.NewFromFloat(totals.Total), totals.Count, nil
}

func (r *referralRewardsRepo) FindLatestByReferrer(ctx context.Context, referrer string, limit uint) ([]*entity.ReferralReward, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"referrer": referrer}).
		OrderBy("timestamp DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	rewards := []*entity.ReferralReward{}
	err = r.db.SelectContext(ctx, &rewards, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't find referral rewards: %w", err)
	}
	return rewards, nil
}
