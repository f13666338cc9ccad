package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/monadflip/flip-monitor/db"
	"github.com/monadflip/flip-monitor/entity"
)

type recentGamesRepo baseSQLiteRepo

func NewRecentGamesRepo(table string, db *db.DB) entity.RecentGamesRepo {
	return (*recentGamesRepo)(newBaseSQLiteRepo(table, db))
}

func (r *recentGamesRepo) Ensure(ctx context.Context, game *entity.RecentGame) (bool, error) {
	inserted := false
	txErr := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		q, args, err := sq.Insert(r.table).
			Columns("game_id", "winner", "bet_amount", "payout", "result", "tx_hash", "timestamp").
			Values(game.GameID, game.Winner, game.BetAmount, game.Payout, game.Result, game.TxHash, game.Timestamp).
			Suffix("ON CONFLICT (tx_hash) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("can't build query: %w", err)
		}
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("can't insert recent game: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("can't read affected rows: %w", err)
		}
		if rows == 0 {
			return nil
		}
		inserted = true

		keep := sq.Select("id").
			From(r.table).
			OrderBy("timestamp DESC", "id DESC").
			Limit(entity.RecentGamesCap)
		keepSQL, keepArgs, err := keep.ToSql()
		if err != nil {
			return fmt.Errorf("can't build query: %w", err)
		}
		q, args, err = sq.Delete(r.table).
			Where(sq.Expr(fmt.Sprintf("id NOT IN (%s)", keepSQL), keepArgs...)).
			ToSql()
		if err != nil {
			return fmt.Errorf("can't build query: %w", err)
		}
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("can't evict old games: %w", err)
		}
		return nil
	})
	return inserted, txErr
}

func (r *recentGamesRepo) FindLatest(ctx context.Context, limit uint) ([]*entity.RecentGame, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		OrderBy("timestamp DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	games := []*entity.RecentGame{}
	err = r.db.SelectContext(ctx, &games, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't find recent games: %w", err)
	}
	return games, nil
}

func (r *recentGamesRepo) WindowTotals(ctx context.Context, since int64) (decimal.Decimal, uint, error) {
	q, args, err := sq.Select("COALESCE(SUM(CAST(payout AS REAL)), 0) AS volume", "COUNT(*) AS games").
		From(r.table).
		Where(sq.GtOrEq{"timestamp": since}).
		ToSql()
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("can't build query: %w", err)
	}
	var totals struct {
		Volume float64 `db:"volume"`
		Games  uint    `db:"games"`
	}
	err = r.db.GetContext(ctx, &totals, q, args...)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("can't get window totals: %w", err)
	}
	return decimal.NewFromFloat(totals.Volume), totals.Games, nil
}

func (r *recentGamesRepo) Count(ctx context.Context) (uint, error) {
	q, args, err := sq.Select("COUNT(*)").From(r.table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("can't build query: %w", err)
	}
	var count uint
	err = r.db.GetContext(ctx, &count, q, args...)
	if err != nil {
		return 0, fmt.Errorf("can't count recent games: %w", err)
	}
	return count, nil
}
